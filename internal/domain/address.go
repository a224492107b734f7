package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ZeroAddress is the EVM zero address in lowercase hex.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ErrInvalidAddress is returned when an address is not 0x-prefixed 40-char hex.
var ErrInvalidAddress = errors.New("invalid address")

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s is a well-formed EVM address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// NormalizeAddress lowercases a well-formed address for use as a storage key.
func NormalizeAddress(s string) string {
	return strings.ToLower(s)
}
