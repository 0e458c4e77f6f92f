// Package id mints and checks the 32-hex record ids used for loans,
// wallets, fundings, repayments and ledger entries.
package id

import (
	"crypto/rand"
	"encoding/hex"
)

const size = 16

// NewID32 returns 32 lowercase hex characters from 16 random bytes.
func NewID32() string {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic("id: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// Valid reports whether s has the NewID32 shape.
func Valid(s string) bool {
	if len(s) != 2*size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
