// Package unionpay implements the transaction orchestrator for the
// UnionPay card payment gateway: it builds signed transaction forms,
// submits them over the form transport and normalizes verified gateway
// responses into domain outcomes.
package unionpay

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/unionpay-go/unionpay/clients"
	"github.com/unionpay-go/unionpay/cryptography"
	errorutils "github.com/unionpay-go/unionpay/errors"
	"github.com/unionpay-go/unionpay/form"
	"github.com/unionpay-go/unionpay/logging"
	"github.com/unionpay-go/unionpay/pki"
)

// gateway origins and endpoint paths
const (
	productionOrigin = "https://gateway.95516.com"
	sandboxOrigin    = "https://gateway.test.95516.com"

	frontTransPath = "/gateway/api/frontTransReq.do"
	appTransPath   = "/gateway/api/appTransReq.do"
	queryTransPath = "/gateway/api/queryTrans.do"
	backTransPath  = "/gateway/api/backTransReq.do"
)

// protocol defaults
const (
	// DefaultVersion of the gateway protocol
	DefaultVersion = "5.1.0"
	// DefaultEncoding declared on every form
	DefaultEncoding = "UTF-8"
)

var (
	// ErrInvalidRequest - the caller supplied request fails validation
	ErrInvalidRequest = errors.New("invalid transaction request")
	// ErrInvalidConfig - the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid client configuration")
)

// Config is the immutable client configuration, constructed once. Key
// material extraction happens before this point, in pki, never lazily on
// first use.
type Config struct {
	Sandbox  bool
	Version  string
	Encoding string

	Identity  *pki.Identity
	Anchors   *pki.TrustAnchors
	Toolchain pki.Toolchain

	// FrontURL receives the cardholder browser after a web order
	FrontURL string
	// BackURL receives asynchronous consume notifications
	BackURL string
	// CancelBackURL and RefundBackURL default to BackURL when empty
	CancelBackURL string
	RefundBackURL string

	// ServerURL overrides the gateway origin, used by tests
	ServerURL string
}

func (c *Config) origin() string {
	if c.ServerURL != "" {
		return c.ServerURL
	}
	if c.Sandbox {
		return sandboxOrigin
	}
	return productionOrigin
}

// WebOrder is the result of a front channel order creation
type WebOrder struct {
	// Redirect is where the cardholder browser must be sent
	Redirect string
}

// AppOrder is the result of an app channel order creation
type AppOrder struct {
	// TN is the transaction token handed to the mobile SDK
	TN     string
	Fields form.Form
}

// Client abstracts over the underlying gateway client
type Client interface {
	// CreateWebOrder opens a consumption order on the front channel
	CreateWebOrder(ctx context.Context, req *CreateOrderRequest) (*WebOrder, error)
	// CreateAppOrder opens a consumption order on the app channel
	CreateAppOrder(ctx context.Context, req *CreateOrderRequest) (*AppOrder, error)
	// QueryOrder looks up the disposition of an order
	QueryOrder(ctx context.Context, req *QueryOrderRequest) (*Outcome, error)
	// CancelOrder voids an unsettled original transaction
	CancelOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error)
	// RefundOrder returns funds for a settled original transaction
	RefundOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error)
	// VerifyNotification authenticates an asynchronous gateway callback body
	VerifyNotification(ctx context.Context, body string) (form.Form, error)
}

// HTTPClient wraps the form transport for the gateway
type HTTPClient struct {
	client *clients.SimpleHTTPClient
	config Config
}

// New returns a new instrumented gateway Client
func New(config Config) (Client, error) {
	if config.Identity == nil || config.Identity.PrivateKey == nil {
		return nil, errorutils.Wrap(ErrInvalidConfig, "merchant identity is required")
	}
	if config.Anchors == nil {
		return nil, errorutils.Wrap(ErrInvalidConfig, "trust anchors are required")
	}
	if config.Version == "" {
		config.Version = DefaultVersion
	}
	if config.Encoding == "" {
		config.Encoding = DefaultEncoding
	}
	if config.Toolchain == nil {
		config.Toolchain = pki.NativeToolchain{}
	}

	client, err := clients.New(config.origin())
	if err != nil {
		return nil, err
	}
	return newInstrumentedClient("unionpay_client", &HTTPClient{
		client: client,
		config: config,
	}), nil
}

// baseForm builds the signed envelope shared by every transaction type
func (c *HTTPClient) baseForm(txnType, txnSubType, bizType string, txnTime time.Time) form.Form {
	id := c.config.Identity

	f := form.New()
	f.Set("version", c.config.Version)
	f.Set("encoding", c.config.Encoding)
	f.Set("certId", id.CertID)
	f.Set("merId", id.MerchantID)
	f.Set("accessType", id.AccessType)
	f.Set("channelType", id.ChannelType)
	f.Set("txnType", txnType)
	f.Set("txnSubType", txnSubType)
	f.Set("bizType", bizType)
	f.Set("txnTime", orTime(txnTime).Format(txnTimeFormat))
	return f
}

// submit signs the form and posts it to the gateway path. Signing is the
// last mutation of the form before transmission.
func (c *HTTPClient) submit(ctx context.Context, path string, f form.Form) (*clients.Response, error) {
	if err := cryptography.SignForm(f, c.config.Identity.PrivateKey); err != nil {
		return nil, errorutils.Wrap(err, "failed to sign transaction form")
	}

	values := url.Values{}
	for k, v := range f {
		values.Set(k, v)
	}

	req, err := c.client.NewFormRequest(ctx, path, values)
	if err != nil {
		return nil, err
	}
	return c.client.Do(ctx, req)
}

// verifiedForm parses a flat response body and authenticates it against
// the configured identity and trust anchors
func (c *HTTPClient) verifiedForm(ctx context.Context, body []byte) (form.Form, error) {
	f := form.Parse(string(body))
	if len(f) == 0 {
		return nil, errorutils.New(ErrGatewayProtocol, "empty gateway response", string(body))
	}
	if err := pki.VerifyResponse(f, c.config.Identity.MerchantID, c.config.Anchors, c.config.Toolchain); err != nil {
		logging.Logger(ctx, "unionpay.verifiedForm").Error().Err(err).
			Str("merId", f.Get("merId")).
			Msg("gateway response failed verification")
		return nil, err
	}
	return f, nil
}

// CreateWebOrder opens a consumption order whose payment page is reached
// by redirecting the cardholder browser
func (c *HTTPClient) CreateWebOrder(ctx context.Context, req *CreateOrderRequest) (*WebOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	f := c.baseForm(txnTypeConsume, txnSubTypeConsume, bizTypeConsume, req.TxnTime)
	f.Set("currencyCode", c.config.Identity.CurrencyCode)
	f.Set("frontUrl", c.config.FrontURL)
	f.Set("backUrl", c.config.BackURL)
	if err := buildOrderFields(f, req); err != nil {
		return nil, err
	}

	resp, err := c.submit(ctx, frontTransPath, f)
	if err != nil {
		return nil, err
	}

	location := resp.Location()
	if location != "" && len(bytes.TrimSpace(resp.Body)) == 0 {
		return &WebOrder{Redirect: location}, nil
	}

	// no clean redirect: surface an embedded gateway message when one
	// is present in the body
	ef := form.Parse(string(resp.Body))
	if msg := ef.Get("respMsg"); msg != "" {
		return nil, &BusinessError{Code: ef.Get("respCode"), Message: msg, Fields: ef}
	}
	return nil, logging.LogAndError(
		logging.Logger(ctx, "unionpay.CreateWebOrder"), "gateway returned no redirect location",
		errorutils.New(ErrGatewayProtocol, "gateway returned no redirect location", string(resp.Body)))
}

// CreateAppOrder opens a consumption order on the app channel and returns
// the transaction token for the mobile SDK
func (c *HTTPClient) CreateAppOrder(ctx context.Context, req *CreateOrderRequest) (*AppOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	f := c.baseForm(txnTypeConsume, txnSubTypeConsume, bizTypeConsume, req.TxnTime)
	f.Set("currencyCode", c.config.Identity.CurrencyCode)
	f.Set("backUrl", c.config.BackURL)
	if err := buildOrderFields(f, req); err != nil {
		return nil, err
	}

	resp, err := c.submit(ctx, appTransPath, f)
	if err != nil {
		return nil, err
	}

	vf, err := c.verifiedForm(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	if vf.Get("respCode") != respCodeSuccess {
		return nil, businessError(vf)
	}
	tn := vf.Get("tn")
	if tn == "" {
		return nil, errorutils.New(ErrGatewayProtocol, "gateway returned no transaction token", vf)
	}
	return &AppOrder{TN: tn, Fields: vf}, nil
}

// QueryOrder looks up an order and maps the gateway codes onto the
// normalized status set. An order the gateway has no record of is an
// explicit not-found outcome, never an error.
func (c *HTTPClient) QueryOrder(ctx context.Context, req *QueryOrderRequest) (*Outcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	f := c.baseForm(txnTypeQuery, txnSubTypeDefault, bizTypeQuery, req.TxnTime)
	if err := mergeQueryFields(f, req); err != nil {
		return nil, err
	}
	if err := mergeExtra(f, req.Extra); err != nil {
		return nil, err
	}

	resp, err := c.submit(ctx, queryTransPath, f)
	if err != nil {
		return nil, err
	}

	vf, err := c.verifiedForm(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	switch code := vf.Get("respCode"); code {
	case respCodeNotFound:
		return &Outcome{
			Status:  StatusNotFound,
			Code:    code,
			Message: vf.Get("respMsg"),
			Fields:  vf,
		}, nil
	case respCodeSuccess:
		return queryOutcome(vf), nil
	default:
		return nil, businessError(vf)
	}
}

// queryOutcome maps the original transaction code of a successful query
func queryOutcome(f form.Form) *Outcome {
	out := &Outcome{
		QueryID: f.Get("queryId"),
		Code:    f.Get("origRespCode"),
		Message: f.Get("origRespMsg"),
		Fields:  f,
	}

	switch {
	case out.Code == respCodeSuccess:
		out.Status = StatusSuccess
	case inFlightCodes[out.Code]:
		out.Status = StatusPending
	default:
		out.Status = StatusFail
	}
	return out
}

// CancelOrder voids an unsettled original transaction
func (c *HTTPClient) CancelOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error) {
	return c.backTransaction(ctx, txnTypeCancel, c.cancelBackURL(), req)
}

// RefundOrder returns funds for a settled original transaction
func (c *HTTPClient) RefundOrder(ctx context.Context, req *BackTransactionRequest) (*Outcome, error) {
	return c.backTransaction(ctx, txnTypeRefund, c.refundBackURL(), req)
}

func (c *HTTPClient) cancelBackURL() string {
	if c.config.CancelBackURL != "" {
		return c.config.CancelBackURL
	}
	return c.config.BackURL
}

func (c *HTTPClient) refundBackURL() string {
	if c.config.RefundBackURL != "" {
		return c.config.RefundBackURL
	}
	return c.config.BackURL
}

// backTransaction is the shared operate-on-original flow behind cancel
// and refund
func (c *HTTPClient) backTransaction(ctx context.Context, txnType, backURL string, req *BackTransactionRequest) (*Outcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	f := c.baseForm(txnType, txnSubTypeDefault, bizTypeConsume, req.TxnTime)
	f.Set("currencyCode", c.config.Identity.CurrencyCode)
	f.Set("backUrl", backURL)
	if err := mergeQueryFields(f, req); err != nil {
		return nil, err
	}
	attach, err := attachField(req.Attach)
	if err != nil {
		return nil, err
	}
	f.Set("reqReserved", attach)
	if err := mergeExtra(f, req.Extra); err != nil {
		return nil, err
	}

	resp, err := c.submit(ctx, backTransPath, f)
	if err != nil {
		return nil, err
	}

	vf, err := c.verifiedForm(ctx, resp.Body)
	if err != nil {
		return nil, err
	}

	code := vf.Get("respCode")
	if code != respCodeSuccess && !inFlightCodes[code] {
		return nil, businessError(vf)
	}

	status := StatusSuccess
	if code != respCodeSuccess {
		status = StatusPending
	}
	return &Outcome{
		Status:  status,
		QueryID: vf.Get("queryId"),
		Code:    code,
		Message: vf.Get("respMsg"),
		Fields:  vf,
	}, nil
}

// VerifyNotification authenticates the body of an asynchronous gateway
// callback and returns its fields. Callers must discard notifications
// that fail here.
func (c *HTTPClient) VerifyNotification(ctx context.Context, body string) (form.Form, error) {
	return c.verifiedForm(ctx, []byte(body))
}

// buildOrderFields merges the order request fields and attachment into
// the consume form
func buildOrderFields(f form.Form, req *CreateOrderRequest) error {
	if err := mergeQueryFields(f, req); err != nil {
		return err
	}
	attach, err := attachField(req.Attach)
	if err != nil {
		return err
	}
	f.Set("reqReserved", attach)
	return mergeExtra(f, req.Extra)
}
