// Package random generates the printable secrets used for order keys
// and OAuth state parameters.
package random

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// StringSecure returns a string of the given length drawn from a
// cryptographically secure source. Each character is picked with
// crypto/rand.Int, so the distribution over the alphabet is uniform.
func StringSecure(length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
