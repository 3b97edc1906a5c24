package form

import (
	"testing"

	should "github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	type testCase struct {
		name  string
		given Form
		exp   string
	}

	tests := []testCase{
		{
			name: "empty",
		},

		{
			name: "single_field",
			given: Form{
				"merId": "777290058110048",
			},
			exp: "merId=777290058110048",
		},

		{
			name: "byte_order_sorting",
			given: Form{
				"txnAmt":  "100",
				"orderId": "ORD123",
				"merId":   "777290058110048",
				"bizType": "000201",
			},
			exp: "bizType=000201&merId=777290058110048&orderId=ORD123&txnAmt=100",
		},

		{
			name: "empty_values_dropped",
			given: Form{
				"orderId":     "ORD123",
				"orderDesc":   "",
				"reqReserved": "",
			},
			exp: "orderId=ORD123",
		},

		{
			name: "signature_excluded_even_when_set",
			given: Form{
				"orderId":   "ORD123",
				"signature": "c2lnbmF0dXJl",
			},
			exp: "orderId=ORD123",
		},

		{
			name: "separator_escaped_in_values",
			given: Form{
				"orderDesc": "tea & cakes",
				"orderId":   "ORD123",
			},
			exp: "orderDesc=tea %26 cakes&orderId=ORD123",
		},

		{
			name: "escape_char_escaped_first",
			given: Form{
				"orderDesc": "100%&done",
			},
			exp: "orderDesc=100%25%26done",
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			should.Equal(t, tc.exp, tc.given.Canonicalize())
		})
	}
}

func TestCanonicalizeOrderIndependent(t *testing.T) {
	a := New()
	a.Set("orderId", "ORD123")
	a.SetInt64("txnAmt", 100)
	a.Set("merId", "777290058110048")

	b := New()
	b.Set("merId", "777290058110048")
	b.Set("txnAmt", "100")
	b.Set("orderId", "ORD123")

	should.Equal(t, a.Canonicalize(), b.Canonicalize())
	should.Equal(t, a.HexDigest(), b.HexDigest())
}

func TestHexDigestStable(t *testing.T) {
	f := Form{"orderId": "ORD123", "txnAmt": "100"}

	// sha256 of "orderId=ORD123&txnAmt=100" must never drift
	should.Equal(t, f.HexDigest(), f.HexDigest())
	should.Len(t, f.HexDigest(), 64)
}

func TestStripEmpty(t *testing.T) {
	f := Form{
		"orderId":     "ORD123",
		"orderDesc":   "",
		"reqReserved": "",
		"txnAmt":      "100",
	}
	f.StripEmpty()

	should.Equal(t, Form{"orderId": "ORD123", "txnAmt": "100"}, f)
}

func TestParse(t *testing.T) {
	type testCase struct {
		name  string
		given string
		exp   Form
	}

	tests := []testCase{
		{
			name: "empty",
			exp:  Form{},
		},

		{
			name:  "flat_response",
			given: "respCode=00&queryId=Q1&origRespCode=03",
			exp: Form{
				"respCode":     "00",
				"queryId":      "Q1",
				"origRespCode": "03",
			},
		},

		{
			name:  "value_with_equals_kept_whole",
			given: "signature=YWJjZA==&respCode=00",
			exp: Form{
				"signature": "YWJjZA==",
				"respCode":  "00",
			},
		},

		{
			name:  "escaped_separator_restored",
			given: "orderDesc=tea %26 cakes&respCode=00",
			exp: Form{
				"orderDesc": "tea & cakes",
				"respCode":  "00",
			},
		},

		{
			name:  "dangling_pairs_skipped",
			given: "respCode=00&&novalue",
			exp: Form{
				"respCode": "00",
			},
		},
	}

	for i := range tests {
		tc := tests[i]

		t.Run(tc.name, func(t *testing.T) {
			should.Equal(t, tc.exp, Parse(tc.given))
		})
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	f := Form{
		"respCode":  "00",
		"queryId":   "Q1",
		"orderDesc": "tea & cakes",
		"signature": "YWJjZA==",
	}

	should.Equal(t, f, Parse(f.Encode()))
}
