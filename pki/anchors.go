// Package pki manages the merchant key material and the gateway chain of
// trust: identity construction from PEM pairs or password-protected key
// containers, and path validation of the certificates the gateway embeds
// in signed responses.
package pki

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrNotACertificate - the supplied bytes did not decode to an x509 certificate
var ErrNotACertificate = errors.New("not a pem encoded certificate")

// TrustAnchors is the ordered chain used to validate gateway signing
// certificates: one root authority plus zero or more intermediates that
// are untrusted on their own but permitted in the path. Loaded once at
// configuration time and treated as read-only.
type TrustAnchors struct {
	Root          *x509.Certificate
	Intermediates []*x509.Certificate

	rootPEM          []byte
	intermediatePEMs [][]byte
}

// NewTrustAnchors parses the root certificate and intermediates
func NewTrustAnchors(rootPEM []byte, intermediatePEMs ...[]byte) (*TrustAnchors, error) {
	root, err := ParseCertificatePEM(rootPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root anchor: %w", err)
	}

	anchors := &TrustAnchors{
		Root:    root,
		rootPEM: rootPEM,
	}
	for i, p := range intermediatePEMs {
		cert, err := ParseCertificatePEM(p)
		if err != nil {
			return nil, fmt.Errorf("failed to parse intermediate anchor %d: %w", i, err)
		}
		anchors.Intermediates = append(anchors.Intermediates, cert)
		anchors.intermediatePEMs = append(anchors.intermediatePEMs, p)
	}
	return anchors, nil
}

// RootPEM returns the raw root certificate bytes
func (a *TrustAnchors) RootPEM() []byte {
	return a.rootPEM
}

// IntermediatePEMs returns the raw intermediate certificate bytes in order
func (a *TrustAnchors) IntermediatePEMs() [][]byte {
	return a.intermediatePEMs
}

// RootPool returns a certificate pool holding only the root anchor
func (a *TrustAnchors) RootPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(a.Root)
	return pool
}

// IntermediatePool returns a certificate pool of the permitted intermediates
func (a *TrustAnchors) IntermediatePool() *x509.CertPool {
	pool := x509.NewCertPool()
	for _, cert := range a.Intermediates {
		pool.AddCert(cert)
	}
	return pool
}

// ParseCertificatePEM decodes the first certificate block of the pem bytes
func ParseCertificatePEM(pemBytes []byte) (*x509.Certificate, error) {
	for block, rest := pem.Decode(pemBytes); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != "CERTIFICATE" {
			continue
		}
		return x509.ParseCertificate(block.Bytes)
	}
	return nil, ErrNotACertificate
}
