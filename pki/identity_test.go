package pki

import (
	"testing"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"

	errorutils "github.com/unionpay-go/unionpay/errors"
)

func TestNormalizeSerial(t *testing.T) {
	type testCase struct {
		name    string
		given   string
		exp     string
		wantErr bool
	}

	tests := []testCase{
		{
			name:  "plain_hex",
			given: "69F539A5",
			exp:   "1777678757",
		},

		{
			name:  "openssl_prefixed",
			given: "serial=69F539A5",
			exp:   "1777678757",
		},

		{
			name:  "lower_case",
			given: "69f539a5",
			exp:   "1777678757",
		},

		{
			name:    "empty",
			given:   "",
			wantErr: true,
		},

		{
			name:    "not_hex",
			given:   "zzzz",
			wantErr: true,
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			act, err := NormalizeSerial(tc.given)
			if tc.wantErr {
				should.ErrorIs(t, err, ErrKeyExtraction)
				return
			}
			must.NoError(t, err)
			should.Equal(t, tc.exp, act)
		})
	}
}

func TestNewIdentity(t *testing.T) {
	chain := newTestChain(t)

	id, err := NewIdentity("777290058110048", privateKeyPEM(t, chain.leafKey), chain.leafPEM, "69F539A5")
	must.NoError(t, err)

	should.Equal(t, "777290058110048", id.MerchantID)
	should.Equal(t, "1777678757", id.CertID)
	should.Equal(t, DefaultAccessType, id.AccessType)
	should.Equal(t, DefaultChannelType, id.ChannelType)
	should.Equal(t, DefaultCurrencyCode, id.CurrencyCode)
	should.NotNil(t, id.PrivateKey)
}

func TestNewIdentityBadKey(t *testing.T) {
	_, err := NewIdentity("777290058110048", []byte("garbage"), nil, "01")
	should.ErrorIs(t, err, ErrKeyExtraction)
}

func TestNewIdentityMissingMerchant(t *testing.T) {
	chain := newTestChain(t)

	_, err := NewIdentity("", privateKeyPEM(t, chain.leafKey), chain.leafPEM, "01")
	should.ErrorIs(t, err, ErrKeyExtraction)
}

type fakeToolchain struct {
	bundle []byte
	fail   bool
}

func (f *fakeToolchain) ExtractCertificate(container []byte, passphrase string) ([]byte, error) {
	if f.fail {
		return nil, errorutils.Wrap(ErrKeyExtraction, "bad container")
	}
	return f.bundle, nil
}

func (f *fakeToolchain) ExtractKeys(bundlePEM []byte) ([]byte, []byte, error) {
	return NativeToolchain{}.ExtractKeys(bundlePEM)
}

func (f *fakeToolchain) SerialNumber(certPEM []byte) (string, error) {
	return NativeToolchain{}.SerialNumber(certPEM)
}

func (f *fakeToolchain) VerifyChain(leafPEM []byte, anchors *TrustAnchors) error {
	return NativeToolchain{}.VerifyChain(leafPEM, anchors)
}

func TestNewIdentityFromContainer(t *testing.T) {
	chain := newTestChain(t)

	bundle := append([]byte{}, chain.leafPEM...)
	bundle = append(bundle, privateKeyPEM(t, chain.leafKey)...)

	id, err := NewIdentityFromContainer("777290058110048", []byte("container"), "secret", &fakeToolchain{bundle: bundle})
	must.NoError(t, err)
	should.Equal(t, "1777678757", id.CertID)
	should.NotNil(t, id.PrivateKey)
}

func TestNewIdentityFromContainerExtractionFails(t *testing.T) {
	_, err := NewIdentityFromContainer("777290058110048", []byte("container"), "wrong", &fakeToolchain{fail: true})
	should.ErrorIs(t, err, ErrKeyExtraction)
}
