package models

import (
	"strings"
	"unicode"
)

// maxAddressLen bounds caller identities; Stellar account and contract
// addresses are 56 characters, muxed accounts 69.
const maxAddressLen = 128

// Address is a caller identity: the principal on whose behalf an operation runs.
type Address string

// ParseAddress trims s and rejects empty, oversized or whitespace-bearing values.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", InvalidInput("address cannot be empty")
	}
	if len(s) > maxAddressLen {
		return "", InvalidInput("address must be %d characters or less", maxAddressLen)
	}
	if strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return "", InvalidInput("address cannot contain whitespace")
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}
