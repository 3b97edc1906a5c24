package pki

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyExtraction - the toolchain could not produce usable key material,
	// fatal until the merchant configuration is fixed
	ErrKeyExtraction = errors.New("unable to extract key material")
	// ErrChainVerification - path validation of a certificate failed
	ErrChainVerification = errors.New("certificate chain verification failed")
)

// KeyMaterial is the result of unwrapping a merchant key container
type KeyMaterial struct {
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
	// SerialNumber is hexadecimal as reported by the toolchain
	SerialNumber string
}

// Toolchain is the cryptographic toolchain collaborator. Every primitive
// returns a typed result or error, never free text requiring pattern
// matching on output streams.
type Toolchain interface {
	// ExtractCertificate decrypts a password-protected key container and
	// returns a PEM bundle holding the certificate and private key
	ExtractCertificate(container []byte, passphrase string) ([]byte, error)
	// ExtractKeys derives the private and public key PEM from a bundle
	ExtractKeys(bundlePEM []byte) (privateKeyPEM []byte, publicKeyPEM []byte, err error)
	// SerialNumber reads the certificate serial number in hexadecimal
	SerialNumber(certPEM []byte) (string, error)
	// VerifyChain validates the leaf certificate against the trust anchors
	VerifyChain(leafPEM []byte, anchors *TrustAnchors) error
}

// ExtractKeyMaterial unwraps a key container into key material using the
// supplied toolchain: certificate bundle first, then keys and serial
// number derived from it.
func ExtractKeyMaterial(tc Toolchain, container []byte, passphrase string) (*KeyMaterial, error) {
	bundle, err := tc.ExtractCertificate(container, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExtraction, err)
	}

	priv, pub, err := tc.ExtractKeys(bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExtraction, err)
	}

	serial, err := tc.SerialNumber(bundle)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExtraction, err)
	}

	return &KeyMaterial{
		PrivateKeyPEM: priv,
		PublicKeyPEM:  pub,
		SerialNumber:  serial,
	}, nil
}
