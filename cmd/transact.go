package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unionpay-go/unionpay/clients/unionpay"
	appctx "github.com/unionpay-go/unionpay/context"
	"github.com/unionpay-go/unionpay/logging"
	"github.com/unionpay-go/unionpay/pki"
)

func init() {
	// create
	CreateCmd.Flags().String("order-id", "", "order identifier, generated when empty")
	Must(viper.BindPFlag("order-id", CreateCmd.Flags().Lookup("order-id")))
	CreateCmd.Flags().String("amount", "", "order amount in yuan, e.g. 12.50")
	Must(viper.BindPFlag("amount", CreateCmd.Flags().Lookup("amount")))
	CreateCmd.Flags().String("description", "", "order description shown to the cardholder")
	Must(viper.BindPFlag("description", CreateCmd.Flags().Lookup("description")))
	CreateCmd.Flags().Bool("app", false, "create on the app channel instead of the web channel")
	Must(viper.BindPFlag("app", CreateCmd.Flags().Lookup("app")))

	// query
	QueryCmd.Flags().String("order-id", "", "order identifier of the original transaction")
	QueryCmd.Flags().String("txn-time", "", "original transaction time, format 20060102150405")

	// cancel / refund
	for _, command := range []*cobra.Command{CancelCmd, RefundCmd} {
		command.Flags().String("order-id", "", "order identifier for this operation, generated when empty")
		command.Flags().String("orig-query-id", "", "gateway query id of the original transaction")
		command.Flags().String("amount", "", "original amount in yuan")
	}

	RootCmd.AddCommand(CreateCmd, QueryCmd, CancelCmd, RefundCmd)
}

// CreateCmd opens a new consumption order
var CreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a consumption order",
	Run:   Perform("create order", createOrder),
}

// QueryCmd looks up the disposition of an order
var QueryCmd = &cobra.Command{
	Use:   "query",
	Short: "query the disposition of an order",
	Run:   Perform("query order", queryOrder),
}

// CancelCmd voids an unsettled transaction
var CancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "cancel an unsettled transaction",
	Run:   Perform("cancel order", cancelOrder),
}

// RefundCmd returns funds for a settled transaction
var RefundCmd = &cobra.Command{
	Use:   "refund",
	Short: "refund a settled transaction",
	Run:   Perform("refund order", refundOrder),
}

// ctxOrViperString prefers a value stashed on the context over the
// bound configuration value
func ctxOrViperString(ctx context.Context, key appctx.CTXKey, viperKey string) string {
	if v, err := appctx.GetStringFromContext(ctx, key); err == nil && v != "" {
		return v
	}
	return viper.GetString(viperKey)
}

// newGatewayClient assembles the gateway client from configuration: the
// merchant identity comes out of the pkcs12 container eagerly, so a bad
// passphrase or container fails here and not mid transaction. A client
// already stashed on the command context wins over configuration.
func newGatewayClient(command *cobra.Command) (unionpay.Client, error) {
	if client, ok := command.Context().Value(appctx.UnionPayClientCTXKey).(unionpay.Client); ok {
		return client, nil
	}

	var tc pki.Toolchain = pki.NativeToolchain{}
	if viper.GetBool("openssl") {
		tc = pki.NewOpenSSLToolchain()
	}

	container, err := os.ReadFile(viper.GetString("certificate"))
	if err != nil {
		return nil, fmt.Errorf("failed to read signing certificate container: %w", err)
	}
	identity, err := pki.NewIdentityFromContainer(
		ctxOrViperString(command.Context(), appctx.MerchantIDCTXKey, "merchant-id"),
		container, viper.GetString("certificate-password"), tc)
	if err != nil {
		return nil, err
	}

	rootPEM, err := os.ReadFile(viper.GetString("root-ca"))
	if err != nil {
		return nil, fmt.Errorf("failed to read root CA: %w", err)
	}
	var interPEMs [][]byte
	if middle := viper.GetString("middle-ca"); middle != "" {
		interPEM, err := os.ReadFile(middle)
		if err != nil {
			return nil, fmt.Errorf("failed to read intermediate CA: %w", err)
		}
		interPEMs = append(interPEMs, interPEM)
	}
	anchors, err := pki.NewTrustAnchors(rootPEM, interPEMs...)
	if err != nil {
		return nil, err
	}

	return unionpay.New(unionpay.Config{
		Sandbox:       viper.GetBool("sandbox"),
		Identity:      identity,
		Anchors:       anchors,
		Toolchain:     tc,
		FrontURL:      viper.GetString("front-url"),
		BackURL:       viper.GetString("back-url"),
		CancelBackURL: viper.GetString("cancel-back-url"),
		RefundBackURL: viper.GetString("refund-back-url"),
		ServerURL:     ctxOrViperString(command.Context(), appctx.UnionPayServerCTXKey, "gateway-url"),
	})
}

func flagAmount(command *cobra.Command) (int64, error) {
	raw, err := command.Flags().GetString("amount")
	if err != nil {
		return 0, err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q: %w", raw, err)
	}
	return unionpay.MinorUnits(amount)
}

func flagOrderID(command *cobra.Command) string {
	orderID, _ := command.Flags().GetString("order-id")
	if orderID == "" {
		orderID = unionpay.GenerateOrderID()
	}
	return orderID
}

func createOrder(command *cobra.Command, args []string) error {
	logger := logging.Logger(command.Context(), "cmd.createOrder")

	client, err := newGatewayClient(command)
	if err != nil {
		return err
	}

	amount, err := flagAmount(command)
	if err != nil {
		return err
	}
	req := &unionpay.CreateOrderRequest{
		OrderID:     flagOrderID(command),
		Amount:      amount,
		Description: viper.GetString("description"),
	}

	if viper.GetBool("app") {
		order, err := client.CreateAppOrder(command.Context(), req)
		if err != nil {
			return err
		}
		logger.Info().Str("orderId", req.OrderID).Str("tn", order.TN).Msg("app order created")
		fmt.Printf("orderId: %s\ntn: %s\n", req.OrderID, order.TN)
		return nil
	}

	order, err := client.CreateWebOrder(command.Context(), req)
	if err != nil {
		return err
	}
	logger.Info().Str("orderId", req.OrderID).Msg("web order created")
	fmt.Printf("orderId: %s\nredirect: %s\n", req.OrderID, order.Redirect)
	return nil
}

func queryOrder(command *cobra.Command, args []string) error {
	client, err := newGatewayClient(command)
	if err != nil {
		return err
	}

	orderID, _ := command.Flags().GetString("order-id")
	rawTime, _ := command.Flags().GetString("txn-time")
	txnTime, err := time.ParseInLocation("20060102150405", rawTime, time.Local)
	if err != nil {
		return fmt.Errorf("malformed txn-time %q: %w", rawTime, err)
	}

	out, err := client.QueryOrder(command.Context(), &unionpay.QueryOrderRequest{
		OrderID: orderID,
		TxnTime: txnTime,
	})
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func cancelOrder(command *cobra.Command, args []string) error {
	return backTransaction(command, "cancel")
}

func refundOrder(command *cobra.Command, args []string) error {
	return backTransaction(command, "refund")
}

func backTransaction(command *cobra.Command, kind string) error {
	client, err := newGatewayClient(command)
	if err != nil {
		return err
	}

	amount, err := flagAmount(command)
	if err != nil {
		return err
	}
	origQueryID, _ := command.Flags().GetString("orig-query-id")
	req := &unionpay.BackTransactionRequest{
		OrderID:     flagOrderID(command),
		OrigQueryID: origQueryID,
		Amount:      amount,
	}

	var out *unionpay.Outcome
	if kind == "cancel" {
		out, err = client.CancelOrder(command.Context(), req)
	} else {
		out, err = client.RefundOrder(command.Context(), req)
	}
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func printOutcome(out *unionpay.Outcome) {
	fmt.Printf("status: %s\nqueryId: %s\ncode: %s\nmessage: %s\n",
		out.Status, out.QueryID, out.Code, out.Message,
	)
}
