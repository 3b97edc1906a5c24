package unionpay

import (
	"errors"
	"fmt"

	"github.com/unionpay-go/unionpay/form"
)

// Status is the normalized disposition of a transaction
type Status string

const (
	// StatusSuccess - the gateway settled the transaction
	StatusSuccess Status = "SUCCESS"
	// StatusPending - the transaction is still in flight at the gateway
	StatusPending Status = "PENDING"
	// StatusFail - the gateway recorded the transaction as failed
	StatusFail Status = "FAIL"
	// StatusNotFound - the gateway has no record of the order
	StatusNotFound Status = "NOT_FOUND"
)

// response codes of the gateway protocol
const (
	respCodeSuccess  = "00"
	respCodeNotFound = "34"
)

// inFlightCodes are the original-response codes meaning the transaction
// is still being processed by the settlement system
var inFlightCodes = map[string]bool{
	"03": true,
	"04": true,
	"05": true,
}

// Outcome is the normalized result of a lifecycle operation. Fields keeps
// every raw response field for audit; this package never persists it.
type Outcome struct {
	Status Status
	// QueryID is the gateway's opaque transaction identifier
	QueryID string
	Code    string
	Message string
	Fields  form.Form
}

// ErrGatewayProtocol - the response shape was malformed or unexpected,
// e.g. a front channel create without a redirect location
var ErrGatewayProtocol = errors.New("unexpected gateway response")

// BusinessError is a well formed but unsuccessful gateway response,
// carrying the gateway provided code and message. Distinct from trust
// failures so callers can alert on tampering separately from declines.
type BusinessError struct {
	Code    string
	Message string
	Fields  form.Form
}

// Error implements the error interface
func (e *BusinessError) Error() string {
	return fmt.Sprintf("gateway declined with code %s: %s", e.Code, e.Message)
}

// BusinessDecline marks this error for decline classification
func (e *BusinessError) BusinessDecline() bool {
	return true
}

func businessError(f form.Form) error {
	msg := f.Get("respMsg")
	if msg == "" {
		msg = f.Get("origRespMsg")
	}
	return &BusinessError{
		Code:    f.Get("respCode"),
		Message: msg,
		Fields:  f,
	}
}
