package generator

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	codeLength = 6
)

// GenerateShortCode returns a random 6-character alphanumeric code. No
// uniqueness check is performed here; collisions surface as a unique
// constraint violation at insert time and the caller retries.
func GenerateShortCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}

	return string(b), nil
}
