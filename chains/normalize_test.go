package chains

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeHexAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips 0x", in: "0xAbC123", want: "abc123"},
		{name: "trims leading zeros", in: "0x000abc", want: "abc"},
		{name: "bare zero", in: "0x0000", want: "0"},
		{name: "empty", in: "", want: "0"},
		{name: "no prefix", in: "ABC123", want: "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeHexAddress(tt.in); got != tt.want {
				t.Fatalf("normalizeHexAddress(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHexAddressesEqual(t *testing.T) {
	// Starknet pads addresses differently per source; comparison must not
	// care about case, prefix or leading zeros.
	if !hexAddressesEqual("0x0000123ABC", "0x123abc") {
		t.Fatal("padded and unpadded forms of one address must compare equal")
	}
	if hexAddressesEqual("0x123abc", "0x123abd") {
		t.Fatal("different addresses must not compare equal")
	}
}

func TestInBand(t *testing.T) {
	min := decimal.RequireFromString("99")
	max := decimal.RequireFromString("101")

	tests := []struct {
		name   string
		amount string
		want   bool
	}{
		{name: "inside", amount: "100", want: true},
		{name: "lower edge inclusive", amount: "99", want: true},
		{name: "upper edge inclusive", amount: "101", want: true},
		{name: "just below", amount: "98.9", want: false},
		{name: "just above", amount: "101.1", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inBand(decimal.RequireFromString(tt.amount), min, max)
			if got != tt.want {
				t.Fatalf("inBand(%s) = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}
