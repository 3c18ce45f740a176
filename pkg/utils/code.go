package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomCode returns n uniformly random upper-case base-36 characters from crypto/rand.
func RandomCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", n)
	}
	max := big.NewInt(int64(len(base36)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random code: %w", err)
		}
		b[i] = base36[v.Int64()]
	}
	return string(b), nil
}
