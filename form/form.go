// Package form implements the canonical field-mapping representation used
// for every UnionPay gateway request and response. The canonical string is
// the sole input to request signing and response verification, so its shape
// is load bearing: keys sorted by byte order, empty values dropped, the
// signature field excluded, values joined as name=value with &.
package form

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// SignatureField never participates in its own digest
const SignatureField = "signature"

// Form holds the fields of one gateway request or response payload.
// Instances are call-local and must not be shared across transactions.
type Form map[string]string

// New returns an empty form
func New() Form {
	return Form{}
}

// Set assigns a string field value
func (f Form) Set(key, value string) {
	f[key] = value
}

// SetInt64 assigns a numeric field value
func (f Form) SetInt64(key string, value int64) {
	f[key] = strconv.FormatInt(value, 10)
}

// Get returns the field value, empty string when absent
func (f Form) Get(key string) string {
	return f[key]
}

// Has reports whether the field is present with a non-empty value
func (f Form) Has(key string) bool {
	return f[key] != ""
}

// Clone returns a shallow copy of the form
func (f Form) Clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge copies every field of other into f, overwriting on collision
func (f Form) Merge(other map[string]string) {
	for k, v := range other {
		f[k] = v
	}
}

// StripEmpty removes fields whose value is the empty string. A
// present-but-empty field has no meaning to the gateway and must not
// enter the signed digest.
func (f Form) StripEmpty() {
	for k, v := range f {
		if v == "" {
			delete(f, k)
		}
	}
}

// escapeValue percent-escapes the field separator (and the escape
// character itself) so that a value containing & cannot shift field
// boundaries inside the canonical string.
func escapeValue(v string) string {
	if !strings.ContainsAny(v, "%&") {
		return v
	}
	v = strings.ReplaceAll(v, "%", "%25")
	return strings.ReplaceAll(v, "&", "%26")
}

func unescapeValue(v string) string {
	if !strings.Contains(v, "%") {
		return v
	}
	v = strings.ReplaceAll(v, "%26", "&")
	return strings.ReplaceAll(v, "%25", "%")
}

// Canonicalize projects the form onto its deterministic string
// representation. Field names are compared byte-wise, never by locale
// collation, so the output is stable across environments.
func (f Form) Canonicalize() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		if k == SignatureField || f[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]string, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, k+"="+escapeValue(f[k]))
	}
	return strings.Join(kvs, "&")
}

// Digest returns the SHA-256 digest of the UTF-8 canonical string
func (f Form) Digest() [sha256.Size]byte {
	return sha256.Sum256([]byte(f.Canonicalize()))
}

// HexDigest returns the lowercase hex encoding of Digest. The hex string
// itself is the message handed to the RSA signer; changing this encoding
// invalidates every signature.
func (f Form) HexDigest() string {
	d := f.Digest()
	return hex.EncodeToString(d[:])
}

// Parse decodes a flat key=value&key=value response body into a form.
// Values are split on the first = only, as base64 signature values carry
// trailing padding.
func Parse(flat string) Form {
	f := New()
	if flat == "" {
		return f
	}
	for _, kv := range strings.Split(flat, "&") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		f[parts[0]] = unescapeValue(parts[1])
	}
	return f
}

// Encode renders the form as a flat key=value&key=value string in
// canonical order, including the signature field last. Used for
// wire-format fidelity in tests and notification fixtures.
func (f Form) Encode() string {
	s := f.Canonicalize()
	if sig := f[SignatureField]; sig != "" {
		if s == "" {
			return SignatureField + "=" + sig
		}
		s += "&" + SignatureField + "=" + sig
	}
	return s
}
