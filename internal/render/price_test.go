package render

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGroupIndian(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":          "",
		"0":         "0",
		"199":       "199",
		"1234":      "1,234",
		"12345":     "12,345",
		"123456":    "1,23,456",
		"1234567":   "12,34,567",
		"123456789": "12,34,56,789",
		"-1234567":  "-12,34,567",
	}
	for in, want := range tests {
		require.Equal(t, want, GroupIndian(in), "GroupIndian(%q)", in)
	}
}

func TestFormatPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount string
		want   string
	}{
		{"0", "₹0"},
		{"199", "₹199"},
		{"199.00", "₹199"},
		{"199.5", "₹199.50"},
		{"123456", "₹1,23,456"},
		{"1234567.891", "₹12,34,567.89"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatPrice(decimal.RequireFromString(tt.amount), "₹"), tt.amount)
	}
}

func TestPriceAmount(t *testing.T) {
	t.Parallel()

	require.Equal(t, "199", PriceAmount(decimal.NewFromInt(199)))
	require.Equal(t, "199", PriceAmount(decimal.RequireFromString("199.000")))
	require.Equal(t, "199.50", PriceAmount(decimal.RequireFromString("199.5")))
	require.Equal(t, "0", PriceAmount(decimal.Zero))
}
