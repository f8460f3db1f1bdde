package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"116", "$116.00"},
		{"1234.56", "$1,234.56"},
		{"1234567.891", "$1,234,567.89"},
		{"0.005", "$0.01"},
		{"-58.5", "-$58.50"},
		{"-0.001", "$0.00"},
		{"999.999", "$1,000.00"},
		{"99999999999999999.99", "$99,999,999,999,999,999.99"},
		{"-12345678901234567890123.456", "-$12,345,678,901,234,567,890,123.46"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Format(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
