package pki

import (
	"crypto/rsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/unionpay-go/unionpay/cryptography"
)

// default merchant codes per the gateway protocol
const (
	// DefaultAccessType 0 is a directly connected merchant
	DefaultAccessType = "0"
	// DefaultChannelType 08 is the mobile/web channel
	DefaultChannelType = "08"
	// DefaultCurrencyCode 156 is CNY
	DefaultCurrencyCode = "156"
)

// Identity is the merchant signing identity. All fields are populated at
// construction and must be treated as read-only for the lifetime of a
// client; every outbound signature uses PrivateKey and CertID.
type Identity struct {
	MerchantID   string
	AccessType   string
	ChannelType  string
	CurrencyCode string

	// CertID is the certificate serial number as a decimal string
	CertID string

	PrivateKey   *rsa.PrivateKey
	PublicKeyPEM []byte
}

// NewIdentity builds an identity from already-extracted key material: a
// PEM private/public key pair and the hexadecimal certificate serial.
func NewIdentity(merchantID string, privateKeyPEM, publicKeyPEM []byte, serialHex string) (*Identity, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("%w: merchant id is required", ErrKeyExtraction)
	}

	key, err := cryptography.ParseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExtraction, err)
	}

	certID, err := NormalizeSerial(serialHex)
	if err != nil {
		return nil, err
	}

	return &Identity{
		MerchantID:   merchantID,
		AccessType:   DefaultAccessType,
		ChannelType:  DefaultChannelType,
		CurrencyCode: DefaultCurrencyCode,
		CertID:       certID,
		PrivateKey:   key,
		PublicKeyPEM: publicKeyPEM,
	}, nil
}

// NewIdentityFromContainer builds an identity by unwrapping a
// password-protected key container with the toolchain. Extraction is
// eager: a bad container or passphrase fails here, at construction, not
// on first use.
func NewIdentityFromContainer(merchantID string, container []byte, passphrase string, tc Toolchain) (*Identity, error) {
	km, err := ExtractKeyMaterial(tc, container, passphrase)
	if err != nil {
		return nil, err
	}
	return NewIdentity(merchantID, km.PrivateKeyPEM, km.PublicKeyPEM, km.SerialNumber)
}

// NormalizeSerial converts the hexadecimal serial reported by the
// toolchain to the decimal string the gateway expects as certId
func NormalizeSerial(serialHex string) (string, error) {
	s := strings.TrimSpace(strings.TrimPrefix(serialHex, "serial="))
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return "", fmt.Errorf("%w: malformed serial number %q", ErrKeyExtraction, serialHex)
	}
	return n.String(), nil
}
