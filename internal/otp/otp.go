package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeLength = 6

// Generator produces one-time verification codes.
type Generator interface {
	Generate() (string, error)
}

// RandomGenerator emits numeric codes from crypto/rand.
type RandomGenerator struct{}

// NewRandomGenerator builds the production code generator.
func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

// Generate returns a zero-padded numeric code of fixed length.
func (g *RandomGenerator) Generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n), nil
}

// Static always returns the same code. Useful for tests.
type Static struct {
	Code string
}

func (s Static) Generate() (string, error) {
	return s.Code, nil
}
