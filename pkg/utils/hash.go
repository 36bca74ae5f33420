package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// HashString generates a SHA1 hash of a string
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// HashFields hashes the fields in order, separated so that ("ab","c") and ("a","bc") differ
func HashFields(fields ...string) string {
	return HashString(strings.Join(fields, "\x1f"))
}
