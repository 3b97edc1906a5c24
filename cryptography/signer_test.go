package cryptography

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"

	"github.com/unionpay-go/unionpay/form"
)

func testKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	must.NoError(t, err)

	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	must.NoError(t, err)

	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key, pubPEM := testKey(t)

	f := form.Form{
		"merId":   "777290058110048",
		"orderId": "ORD123",
		"txnAmt":  "100",
	}
	must.NoError(t, SignForm(f, key))

	should.Equal(t, SignMethodRSA, f.Get(SignMethodField))
	should.True(t, f.Has(form.SignatureField))
	should.NoError(t, Verify(f, pubPEM))
}

func TestVerifyFailsOnTamper(t *testing.T) {
	key, pubPEM := testKey(t)

	f := form.Form{
		"merId":   "777290058110048",
		"orderId": "ORD123",
		"txnAmt":  "100",
	}
	must.NoError(t, SignForm(f, key))

	f.Set("txnAmt", "10000")
	should.ErrorIs(t, Verify(f, pubPEM), ErrInvalidSignature)
}

func TestVerifyFailsOnAddedField(t *testing.T) {
	key, pubPEM := testKey(t)

	f := form.Form{"orderId": "ORD123"}
	must.NoError(t, SignForm(f, key))

	f.Set("respCode", "00")
	should.ErrorIs(t, Verify(f, pubPEM), ErrInvalidSignature)
}

func TestSignFormStripsEmptyFields(t *testing.T) {
	key, pubPEM := testKey(t)

	f := form.Form{
		"orderId":     "ORD123",
		"orderDesc":   "",
		"reqReserved": "",
	}
	must.NoError(t, SignForm(f, key))

	_, hasDesc := f["orderDesc"]
	should.False(t, hasDesc)
	should.NoError(t, Verify(f, pubPEM))
}

func TestVerifyWrongKey(t *testing.T) {
	key, _ := testKey(t)
	_, otherPubPEM := testKey(t)

	f := form.Form{"orderId": "ORD123"}
	must.NoError(t, SignForm(f, key))

	should.ErrorIs(t, Verify(f, otherPubPEM), ErrInvalidSignature)
}

func TestVerifyGarbageSignature(t *testing.T) {
	_, pubPEM := testKey(t)

	f := form.Form{"orderId": "ORD123", "signature": "!!not-base64!!"}
	should.ErrorIs(t, Verify(f, pubPEM), ErrInvalidSignature)
}

func TestParseRSAPrivateKeyPKCS8(t *testing.T) {
	key, _ := testKey(t)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	must.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	parsed, err := ParseRSAPrivateKey(pemBytes)
	must.NoError(t, err)
	should.Equal(t, key.D, parsed.D)
}

func TestParseRSAPublicKeyBadInput(t *testing.T) {
	_, err := ParseRSAPublicKey([]byte("not a pem"))
	should.ErrorIs(t, err, ErrNoPEMData)
}
