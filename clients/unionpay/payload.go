package unionpay

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	uuid "github.com/satori/go.uuid"

	"github.com/unionpay-go/unionpay/form"
)

// gateway transaction type codes
const (
	txnTypeQuery   = "00"
	txnTypeConsume = "01"
	txnTypeCancel  = "31"
	txnTypeRefund  = "04"

	txnSubTypeConsume = "01"
	txnSubTypeDefault = "00"

	bizTypeConsume = "000201"
	bizTypeQuery   = "000000"
)

// txnTimeFormat is the gateway timestamp layout, local time
const txnTimeFormat = "20060102150405"

// reservedFields may not be overridden through the extra field mapping,
// the signed field set must stay auditable
var reservedFields = map[string]bool{
	"version":    true,
	"encoding":   true,
	"certId":     true,
	"merId":      true,
	"accessType": true,
	"txnType":    true,
	"txnSubType": true,
	"bizType":    true,
	"txnTime":    true,
	"signMethod": true,
	"signature":  true,
}

// CreateOrderRequest describes a new consumption order
type CreateOrderRequest struct {
	OrderID string `url:"orderId"`
	// Amount is in minor currency units
	Amount      int64  `url:"txnAmt"`
	Description string `url:"orderDesc,omitempty"`

	// TxnTime defaults to now; retries must supply a fresh value
	TxnTime time.Time `url:"-"`
	// Attach is carried verbatim when a string, otherwise JSON encoded
	Attach interface{} `url:"-"`
	// Extra fields are merged into the signed form after validation
	Extra map[string]string `url:"-"`
}

func (r *CreateOrderRequest) validate() error {
	if r.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	return nil
}

// QueryOrderRequest identifies an order to look up
type QueryOrderRequest struct {
	OrderID string `url:"orderId"`

	// TxnTime is the original transaction time, required by the gateway
	TxnTime time.Time         `url:"-"`
	Extra   map[string]string `url:"-"`
}

func (r *QueryOrderRequest) validate() error {
	if r.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidRequest)
	}
	if r.TxnTime.IsZero() {
		return fmt.Errorf("%w: original transaction time is required", ErrInvalidRequest)
	}
	return nil
}

// BackTransactionRequest operates on an original transaction, shared by
// cancel and refund
type BackTransactionRequest struct {
	// OrderID is the new order id for this back transaction
	OrderID string `url:"orderId"`
	// OrigQueryID is the gateway query id of the original transaction
	OrigQueryID string `url:"origQryId"`
	// Amount is the original amount in minor currency units
	Amount int64 `url:"txnAmt"`

	TxnTime time.Time         `url:"-"`
	Attach  interface{}       `url:"-"`
	Extra   map[string]string `url:"-"`
}

func (r *BackTransactionRequest) validate() error {
	if r.OrderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidRequest)
	}
	if r.OrigQueryID == "" {
		return fmt.Errorf("%w: original query id is required", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	return nil
}

// GenerateOrderID returns a fresh 32 character order identifier
func GenerateOrderID() string {
	return strings.ReplaceAll(uuid.NewV4().String(), "-", "")
}

// mergeQueryFields projects a tagged request struct onto the form
func mergeQueryFields(f form.Form, req interface{}) error {
	values, err := query.Values(req)
	if err != nil {
		return fmt.Errorf("failed to project request fields: %w", err)
	}
	for k := range values {
		f.Set(k, values.Get(k))
	}
	return nil
}

// mergeExtra merges caller supplied additional fields deterministically,
// refusing overrides of the reserved envelope fields
func mergeExtra(f form.Form, extra map[string]string) error {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("%w: empty extra field name", ErrInvalidRequest)
		}
		if reservedFields[k] {
			return fmt.Errorf("%w: extra field %q overrides a reserved field", ErrInvalidRequest, k)
		}
		f.Set(k, extra[k])
	}
	return nil
}

// attachField renders the caller attachment: strings pass verbatim, any
// other value is serialized to JSON as the gateway has no structured
// field support
func attachField(attach interface{}) (string, error) {
	switch v := attach.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to serialize attachment: %w", err)
		}
		return string(b), nil
	}
}

func orTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
