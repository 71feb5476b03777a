package utils

import (
	crand "crypto/rand"
	"math/big"
	"math/rand/v2"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRandomID generates a random string of length n, used to tag
// quiz sessions in logs.
func GenerateRandomID(n int) string {
	b := make([]byte, n)
	for i := range b {
		num, err := crand.Int(crand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return ""
		}
		b[i] = charset[num.Int64()]
	}
	return string(b)
}

// NewRand returns a PCG-backed generator. A zero seed picks a random seed;
// tests pass a fixed seed for reproducible shuffles.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
