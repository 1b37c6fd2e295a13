package utils

import (
	"crypto/rand"
	"math/big"
)

// confirmationAlphabet excludes ambiguous characters (0/O, 1/I/L) so codes
// survive being read over the phone at the dock.
const confirmationAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ConfirmationCodeLength is the fixed length of public booking codes.
const ConfirmationCodeLength = 8

// NewConfirmationCode returns a random booking code.  Uniqueness is enforced
// by the database; callers regenerate on a duplicate-key error.
func NewConfirmationCode() (string, error) {
	buf := make([]byte, ConfirmationCodeLength)
	max := big.NewInt(int64(len(confirmationAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = confirmationAlphabet[n.Int64()]
	}
	return string(buf), nil
}
