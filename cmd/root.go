package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/unionpay-go/unionpay/clients"
	"github.com/unionpay-go/unionpay/closers"
	appctx "github.com/unionpay-go/unionpay/context"
	errorutils "github.com/unionpay-go/unionpay/errors"
	"github.com/unionpay-go/unionpay/logging"
)

var (
	// RootCmd is the base command (what the binary is called)
	RootCmd = &cobra.Command{
		Use:   "unionpay",
		Short: "unionpay drives the card gateway transaction lifecycle",
	}
	ctx = context.Background()
)

// Must helper to make sure there is no errors
func Must(err error) {
	if err != nil {
		log.Printf("failed to initialize: %s\n", err.Error())
		// exit with failure
		os.Exit(1)
	}
}

// Execute - the main entrypoint for all subcommands
func Execute(version, commit, buildTime string) {
	// setup context with logging, but first we need to setup the environment
	var logger *zerolog.Logger
	ctx = context.WithValue(ctx, appctx.EnvironmentCTXKey, viper.GetString("environment"))
	if viper.GetBool("debug") {
		ctx = context.WithValue(ctx, appctx.DebugLoggingCTXKey, true)
		ctx, logger = logging.SetupLoggerWithLevel(ctx, zerolog.DebugLevel)
	} else {
		ctx, logger = logging.SetupLogger(ctx)
	}

	ctx, logger = logging.UpdateContext(ctx, logger.With().
		Str("version", version).
		Str("commit", commit).
		Logger())

	ctx = context.WithValue(ctx, appctx.VersionCTXKey, version)
	ctx = context.WithValue(ctx, appctx.CommitCTXKey, commit)
	ctx = context.WithValue(ctx, appctx.BuildTimeCTXKey, buildTime)

	// execute the root cmd
	err := RootCmd.ExecuteContext(ctx)
	closers.Log(ctx, logging.Writer)
	if err != nil {
		logger.Error().Err(err).Msg("./unionpay command encountered an error")
		os.Exit(1)
	}
}

func init() {
	viper.AutomaticEnv()

	// env - defaults to local
	RootCmd.PersistentFlags().String("environment", "local",
		"the default environment")
	Must(viper.BindPFlag("environment", RootCmd.PersistentFlags().Lookup("environment")))
	Must(viper.BindEnv("environment", "ENV"))

	// debug logging - defaults to off
	RootCmd.PersistentFlags().Bool("debug", false, "turn on debug logging")
	Must(viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug")))
	Must(viper.BindEnv("debug", "DEBUG"))

	// sandbox - target the acquirer test gateway
	RootCmd.PersistentFlags().Bool("sandbox", true, "target the gateway test environment")
	Must(viper.BindPFlag("sandbox", RootCmd.PersistentFlags().Lookup("sandbox")))
	Must(viper.BindEnv("sandbox", "UNIONPAY_SANDBOX"))

	// merchant-id (required by all transaction commands)
	RootCmd.PersistentFlags().String("merchant-id", "",
		"the gateway assigned merchant identifier")
	Must(viper.BindPFlag("merchant-id", RootCmd.PersistentFlags().Lookup("merchant-id")))
	Must(viper.BindEnv("merchant-id", "UNIONPAY_MERCHANT_ID"))

	// certificate - pkcs12 container with the merchant signing identity
	RootCmd.PersistentFlags().String("certificate", "",
		"path to the merchant pkcs12 signing certificate container")
	Must(viper.BindPFlag("certificate", RootCmd.PersistentFlags().Lookup("certificate")))
	Must(viper.BindEnv("certificate", "UNIONPAY_CERTIFICATE"))

	RootCmd.PersistentFlags().String("certificate-password", "",
		"passphrase of the pkcs12 signing certificate container")
	Must(viper.BindPFlag("certificate-password", RootCmd.PersistentFlags().Lookup("certificate-password")))
	Must(viper.BindEnv("certificate-password", "UNIONPAY_CERTIFICATE_PASSWORD"))

	// trust anchors for gateway response certificates
	RootCmd.PersistentFlags().String("root-ca", "",
		"path to the acquirer root CA certificate")
	Must(viper.BindPFlag("root-ca", RootCmd.PersistentFlags().Lookup("root-ca")))
	Must(viper.BindEnv("root-ca", "UNIONPAY_ROOT_CA"))

	RootCmd.PersistentFlags().String("middle-ca", "",
		"path to the acquirer intermediate CA certificate")
	Must(viper.BindPFlag("middle-ca", RootCmd.PersistentFlags().Lookup("middle-ca")))
	Must(viper.BindEnv("middle-ca", "UNIONPAY_MIDDLE_CA"))

	// openssl - shell out to openssl instead of the native toolchain
	RootCmd.PersistentFlags().Bool("openssl", false,
		"use the openssl binary for key extraction and chain verification")
	Must(viper.BindPFlag("openssl", RootCmd.PersistentFlags().Lookup("openssl")))
	Must(viper.BindEnv("openssl", "UNIONPAY_OPENSSL"))

	// callback urls
	RootCmd.PersistentFlags().String("front-url", "",
		"url the cardholder browser returns to after payment")
	Must(viper.BindPFlag("front-url", RootCmd.PersistentFlags().Lookup("front-url")))
	Must(viper.BindEnv("front-url", "UNIONPAY_FRONT_URL"))

	RootCmd.PersistentFlags().String("back-url", "",
		"url receiving asynchronous gateway notifications")
	Must(viper.BindPFlag("back-url", RootCmd.PersistentFlags().Lookup("back-url")))
	Must(viper.BindEnv("back-url", "UNIONPAY_BACK_URL"))

	RootCmd.PersistentFlags().String("cancel-back-url", "",
		"notification url for cancellations, defaults to back-url")
	Must(viper.BindPFlag("cancel-back-url", RootCmd.PersistentFlags().Lookup("cancel-back-url")))
	Must(viper.BindEnv("cancel-back-url", "UNIONPAY_CANCEL_BACK_URL"))

	RootCmd.PersistentFlags().String("refund-back-url", "",
		"notification url for refunds, defaults to back-url")
	Must(viper.BindPFlag("refund-back-url", RootCmd.PersistentFlags().Lookup("refund-back-url")))
	Must(viper.BindEnv("refund-back-url", "UNIONPAY_REFUND_BACK_URL"))

	// gateway-url - override the gateway origin, used against stubs
	RootCmd.PersistentFlags().String("gateway-url", "",
		"override the gateway origin")
	Must(viper.BindPFlag("gateway-url", RootCmd.PersistentFlags().Lookup("gateway-url")))
	Must(viper.BindEnv("gateway-url", "UNIONPAY_GATEWAY_URL"))

	RootCmd.AddCommand(VersionCmd)
}

// VersionCmd is the command to get the code's version information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "get the version of this binary",
	Run:   versionRun,
}

func versionRun(command *cobra.Command, args []string) {
	version := command.Context().Value(appctx.VersionCTXKey).(string)
	commit := command.Context().Value(appctx.CommitCTXKey).(string)
	buildTime := command.Context().Value(appctx.BuildTimeCTXKey).(string)
	fmt.Printf("version: %s\ncommit: %s\nbuild time: %s\n",
		version, commit, buildTime,
	)
}

// Perform performs a run
func Perform(action string, fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		// bound the transaction while inheriting the command context values
		deadlined, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		cmd.SetContext(appctx.Wrap(cmd.Context(), deadlined))

		err := fn(cmd, args)
		if err != nil {
			logger := logging.FromContext(cmd.Context())

			log := logger.Err(err).Str("action", action)
			httpError, ok := err.(*errorutils.ErrorBundle)
			if ok {
				state, ok := httpError.Data().(clients.HTTPState)
				if ok {
					log = log.Int("status", state.Status).
						Str("path", state.Path).
						Interface("data", state.Body)
				}
			}
			log.Msg("failed")
		}
		<-time.After(10 * time.Millisecond)
		if err != nil {
			os.Exit(1)
		}
	}
}
