// Package mfa generates and verifies one-time SMS codes.
package mfa

import (
	"crypto/rand"
	"crypto/subtle"
)

const otpDigits = 6

// GenerateOTP returns a 6-digit numeric code (e.g. "123456") drawn from crypto/rand.
func GenerateOTP() (string, error) {
	b := make([]byte, otpDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, otpDigits)
	for i := 0; i < otpDigits; i++ {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

// CodeEqual reports whether provided matches the pending code exactly. The comparison is case-sensitive
// and constant-time with respect to the contents. An empty pending code never matches.
func CodeEqual(provided, pending string) bool {
	if pending == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(pending)) == 1
}
