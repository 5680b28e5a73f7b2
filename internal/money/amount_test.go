package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestValid(t *testing.T) {
	cases := []struct {
		amount string
		want   bool
	}{
		{"10", true},
		{"10.25", true},
		{"0.01", true},
		{"0", false},
		{"-5.00", false},
		{"0.001", false},
		{"10.255", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Valid(dec(t, tc.amount)), "amount %s", tc.amount)
	}
}

func TestExactAllowsZero(t *testing.T) {
	require.True(t, Exact(decimal.Zero))
	require.True(t, Exact(dec(t, "0.00")))
	require.False(t, Exact(dec(t, "0.005")))
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	require.True(t, Round(dec(t, "10.005")).Equal(dec(t, "10.01")))
	require.True(t, Round(dec(t, "-10.005")).Equal(dec(t, "-10.01")))
	require.True(t, Round(dec(t, "10.004")).Equal(dec(t, "10.00")))
}
