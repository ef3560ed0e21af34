package chains

import "strings"

// normalizeHexAddress lowercases a hex address and strips both the 0x prefix
// and any leading zero padding. Starknet in particular emits addresses with
// and without left-padding depending on the endpoint.
func normalizeHexAddress(addr string) string {
	s := strings.ToLower(strings.TrimSpace(addr))
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}

// hexAddressesEqual compares two hex-format addresses case-insensitively and
// ignoring leading-zero padding.
func hexAddressesEqual(a, b string) bool {
	return normalizeHexAddress(a) == normalizeHexAddress(b)
}
