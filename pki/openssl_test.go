package pki

import (
	"os/exec"
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestPKCS12ArgsAlwaysCarryPassin(t *testing.T) {
	args := pkcs12Args("in.pfx", "out.pem", "secret")
	should.Contains(t, args, "-passin")
	should.Contains(t, args, "pass:secret")

	// an empty passphrase still yields an explicit pass: argument so
	// openssl cannot fall back to prompting on the terminal
	args = pkcs12Args("in.pfx", "out.pem", "")
	should.Contains(t, args, "-passin")
	should.Contains(t, args, "pass:")
	should.Equal(t, "pass:", args[len(args)-1])
}

func needsOpenSSL(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("openssl"); err != nil {
		t.Skip("openssl binary not on PATH")
	}
}

func TestOpenSSLSerialNumber(t *testing.T) {
	needsOpenSSL(t)
	chain := newTestChain(t)

	serial, err := NewOpenSSLToolchain().SerialNumber(chain.leafPEM)
	must.NoError(t, err)
	should.Equal(t, "69F539A5", serial)
}

func TestOpenSSLExtractKeys(t *testing.T) {
	needsOpenSSL(t)
	chain := newTestChain(t)

	bundle := append([]byte{}, chain.leafPEM...)
	bundle = append(bundle, privateKeyPEM(t, chain.leafKey)...)

	priv, pub, err := NewOpenSSLToolchain().ExtractKeys(bundle)
	must.NoError(t, err)
	should.Contains(t, string(priv), "PRIVATE KEY")
	should.Contains(t, string(pub), "PUBLIC KEY")
}

func TestOpenSSLVerifyChain(t *testing.T) {
	needsOpenSSL(t)
	chain := newTestChain(t)
	tc := NewOpenSSLToolchain()

	should.NoError(t, tc.VerifyChain(chain.leafPEM, chain.anchors(t)))

	foreign := newTestChain(t)
	should.ErrorIs(t, tc.VerifyChain(foreign.leafPEM, chain.anchors(t)), ErrChainVerification)
}
