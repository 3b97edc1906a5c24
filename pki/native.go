package pki

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"

	"golang.org/x/crypto/pkcs12"
)

// NativeToolchain implements Toolchain in process with crypto/x509 and
// golang.org/x/crypto/pkcs12. It is the default: no subprocess, no
// scratch files, structured errors throughout.
type NativeToolchain struct{}

var _ Toolchain = NativeToolchain{}

// ExtractCertificate decodes the pkcs12 container into a PEM bundle of
// certificate and private key blocks
func (NativeToolchain) ExtractCertificate(container []byte, passphrase string) ([]byte, error) {
	blocks, err := pkcs12.ToPEM(container, passphrase)
	if err != nil {
		return nil, fmt.Errorf("pkcs12 decode: %w", err)
	}

	var bundle []byte
	for _, block := range blocks {
		bundle = append(bundle, pem.EncodeToMemory(block)...)
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("pkcs12 container holds no key material")
	}
	return bundle, nil
}

// ExtractKeys splits a PEM bundle into private key PEM and the public key
// PEM derived from the bundled certificate
func (NativeToolchain) ExtractKeys(bundlePEM []byte) ([]byte, []byte, error) {
	var (
		privPEM []byte
		cert    *x509.Certificate
	)

	for block, rest := pem.Decode(bundlePEM); block != nil; block, rest = pem.Decode(rest) {
		switch {
		case strings.HasSuffix(block.Type, "PRIVATE KEY"):
			privPEM = pem.EncodeToMemory(block)
		case block.Type == "CERTIFICATE" && cert == nil:
			parsed, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, nil, fmt.Errorf("parse bundled certificate: %w", err)
			}
			cert = parsed
		}
	}

	if privPEM == nil {
		return nil, nil, fmt.Errorf("bundle holds no private key")
	}
	if cert == nil {
		return nil, nil, fmt.Errorf("bundle holds no certificate")
	}

	rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("bundled certificate key is not rsa")
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(rsaKey),
	})

	return privPEM, pubPEM, nil
}

// SerialNumber reads the bundled certificate serial number in hexadecimal
func (NativeToolchain) SerialNumber(certPEM []byte) (string, error) {
	cert, err := ParseCertificatePEM(certPEM)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(cert.SerialNumber.Text(16)), nil
}

// VerifyChain validates the leaf against the anchors with the
// intermediates permitted in the path but not trusted on their own
func (NativeToolchain) VerifyChain(leafPEM []byte, anchors *TrustAnchors) error {
	leaf, err := ParseCertificatePEM(leafPEM)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrChainVerification, err)
	}

	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:         anchors.RootPool(),
		Intermediates: anchors.IntermediatePool(),
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrChainVerification, err)
	}
	return nil
}
