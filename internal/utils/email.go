package utils

import (
	"net/mail"
	"strings"
)

// ExtractEmailAddress returns the bare address from a From header value such
// as `Jane Doe <jane@example.com>`. Unparseable input is returned as-is.
func ExtractEmailAddress(header string) string {
	addr, err := mail.ParseAddress(header)
	if err != nil {
		return strings.TrimSpace(header)
	}
	return addr.Address
}
