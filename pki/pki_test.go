package pki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	must "github.com/stretchr/testify/require"
)

// testChain is a freshly generated root -> intermediate -> leaf chain
type testChain struct {
	rootPEM  []byte
	interPEM []byte
	leafPEM  []byte

	leafKey  *rsa.PrivateKey
	leafCert *x509.Certificate
}

func certPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()

	now := time.Now()
	newCA := func(cn string, serial int64, parent *x509.Certificate, parentKey *rsa.PrivateKey) (*x509.Certificate, *rsa.PrivateKey, []byte) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		must.NoError(t, err)

		tmpl := &x509.Certificate{
			SerialNumber:          big.NewInt(serial),
			Subject:               pkix.Name{CommonName: cn},
			NotBefore:             now.Add(-time.Hour),
			NotAfter:              now.Add(24 * time.Hour),
			IsCA:                  true,
			KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
			BasicConstraintsValid: true,
		}
		if parent == nil {
			parent, parentKey = tmpl, key
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
		must.NoError(t, err)
		cert, err := x509.ParseCertificate(der)
		must.NoError(t, err)
		return cert, key, certPEM(der)
	}

	root, rootKey, rootPEM := newCA("acquirer test root", 1, nil, nil)
	inter, interKey, interPEM := newCA("acquirer test intermediate", 2, root, rootKey)

	leafKey, err := rsa.GenerateKey(rand.Reader, 2048)
	must.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(0x69F539A5), // 1777678757 decimal
		Subject:      pkix.Name{CommonName: "gateway signing"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, inter, &leafKey.PublicKey, interKey)
	must.NoError(t, err)
	leafCert, err := x509.ParseCertificate(leafDER)
	must.NoError(t, err)

	return &testChain{
		rootPEM:  rootPEM,
		interPEM: interPEM,
		leafPEM:  certPEM(leafDER),
		leafKey:  leafKey,
		leafCert: leafCert,
	}
}

func (c *testChain) anchors(t *testing.T) *TrustAnchors {
	t.Helper()
	anchors, err := NewTrustAnchors(c.rootPEM, c.interPEM)
	must.NoError(t, err)
	return anchors
}

func privateKeyPEM(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
}
