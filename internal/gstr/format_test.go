package gstr

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatINR(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"7", "₹7.00"},
		{"99.5", "₹99.50"},
		{"999", "₹999.00"},
		{"1000", "₹1,000.00"},
		{"99999", "₹99,999.00"},
		{"100000", "₹1,00,000.00"},
		{"1234567.5", "₹12,34,567.50"},
		{"123456789.01", "₹12,34,56,789.01"},
		{"-98.7", "-₹98.70"},
		{"-1234567.5", "-₹12,34,567.50"},
		{"0.005", "₹0.01"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad case input %q: %v", tc.in, err)
		}
		if got := FormatINR(d); got != tc.want {
			t.Errorf("FormatINR(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGroupIndian(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"1":         "1",
		"123":       "123",
		"1234":      "1,234",
		"12345":     "12,345",
		"123456":    "1,23,456",
		"1234567":   "12,34,567",
		"123456789": "12,34,56,789",
	}
	for in, want := range cases {
		if got := groupIndian(in); got != want {
			t.Errorf("groupIndian(%q) = %q, want %q", in, got, want)
		}
	}
}
