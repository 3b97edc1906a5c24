package pki

import (
	"errors"

	"github.com/unionpay-go/unionpay/cryptography"
	"github.com/unionpay-go/unionpay/form"
)

// response fields involved in trust verification
const (
	// MerchantIDField carries the merchant the response is addressed to
	MerchantIDField = "merId"
	// CertificateField carries the gateway signing certificate
	CertificateField = "signPubKeyCert"
)

// ErrTrustChain - a response failed authentication. Callers must treat
// this as fatal for the response and trust none of its fields; it is
// never a business decline.
var ErrTrustChain = errors.New("response failed trust verification")

// TrustError wraps the cause of a response authentication failure
type TrustError struct {
	message string
	cause   error
}

func newTrustError(message string, cause error) *TrustError {
	return &TrustError{message: message, cause: cause}
}

// Error implements the error interface
func (e *TrustError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the underlying cause
func (e *TrustError) Unwrap() error {
	return e.cause
}

// Is matches the ErrTrustChain sentinel
func (e *TrustError) Is(target error) bool {
	return target == ErrTrustChain
}

// InvalidSignature marks this error for signature-failure classification
func (e *TrustError) InvalidSignature() bool {
	return true
}

// VerifyResponse authenticates a gateway response form: the merchant id
// must match the configured identity, the embedded certificate must
// verify the form signature, and that certificate must chain to the
// trust anchors. Either check failing is an authentication failure, not
// a business error.
func VerifyResponse(f form.Form, merchantID string, anchors *TrustAnchors, tc Toolchain) error {
	if f.Get(MerchantIDField) != merchantID {
		return newTrustError("response merchant id mismatch", nil)
	}

	certPEM := f.Get(CertificateField)
	if certPEM == "" {
		return newTrustError("response carries no signing certificate", nil)
	}

	if err := cryptography.Verify(f, []byte(certPEM)); err != nil {
		return newTrustError("response signature invalid", err)
	}

	if err := tc.VerifyChain([]byte(certPEM), anchors); err != nil {
		return newTrustError("signing certificate not issued by trust anchors", err)
	}
	return nil
}
