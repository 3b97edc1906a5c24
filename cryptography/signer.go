// Package cryptography implements the signing scheme of the gateway
// protocol: a SHA-256 digest of the canonical form, hex encoded, signed
// with SHA-256-with-RSA and transmitted base64 encoded in the signature
// field.
package cryptography

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/unionpay-go/unionpay/form"
)

const (
	// SignMethodField marks the signing scheme on outbound forms
	SignMethodField = "signMethod"
	// SignMethodRSA is the gateway code for SHA-256-with-RSA
	SignMethodRSA = "01"
)

// ErrInvalidSignature - the form signature did not verify
var ErrInvalidSignature = errors.New("invalid form signature")

// Sign produces the base64 RSA signature over the form digest. The hex
// digest string, not the raw digest bytes, is the signed message.
func Sign(f form.Form, key *rsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(f.HexDigest()))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// SignForm strips empty fields, sets the signature method marker, signs
// the form and attaches the signature. The form is mutated in place and
// must not gain fields afterwards or the signature is invalid on arrival.
func SignForm(f form.Form, key *rsa.PrivateKey) error {
	f.StripEmpty()
	f.Set(SignMethodField, SignMethodRSA)

	sig, err := Sign(f, key)
	if err != nil {
		return err
	}
	f.Set(form.SignatureField, sig)
	return nil
}

// Verify checks the base64 signature field of the form against the
// supplied PEM encoded public key or certificate.
func Verify(f form.Form, publicKeyPEM []byte) error {
	key, err := ParseRSAPublicKey(publicKeyPEM)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(f.Get(form.SignatureField))
	if err != nil {
		return ErrInvalidSignature
	}

	digest := sha256.Sum256([]byte(f.HexDigest()))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
