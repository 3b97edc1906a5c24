package unionpay

import (
	"testing"

	"github.com/shopspring/decimal"
	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		fen    int64
		err    error
	}{
		{"whole yuan", "12", 1200, nil},
		{"yuan and fen", "12.50", 1250, nil},
		{"single fen", "0.01", 1, nil},
		{"large", "100000000", 10000000000, nil},
		{"sub fen precision", "0.005", 0, ErrAmountPrecision},
		{"zero", "0", 0, ErrAmountNotPositive},
		{"negative", "-1", 0, ErrAmountNotPositive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := decimal.NewFromString(tc.amount)
			must.NoError(t, err)

			fen, err := MinorUnits(amount)
			if tc.err != nil {
				should.ErrorIs(t, err, tc.err)
				return
			}
			must.NoError(t, err)
			should.Equal(t, tc.fen, fen)
		})
	}
}

func TestMajorUnits(t *testing.T) {
	should.True(t, MajorUnits(1250).Equal(decimal.RequireFromString("12.5")))
	should.True(t, MajorUnits(1).Equal(decimal.RequireFromString("0.01")))
}

func TestMinorUnitsRoundTrip(t *testing.T) {
	fen, err := MinorUnits(MajorUnits(98765))
	must.NoError(t, err)
	should.Equal(t, int64(98765), fen)
}
