package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const referenceDigits = 8

// ReferenceGenerator produces human-readable reference numbers for entities
// that are looked up externally (bookings, payments). Randomness alone does
// not guarantee uniqueness; callers must check the generated reference
// against the target table and regenerate on collision.
type ReferenceGenerator interface {
	// Generate returns prefix followed by a fixed-length random digit string,
	// e.g. Generate("BK") -> "BK48210397".
	Generate(prefix string) (string, error)
}

// CryptoReferenceGenerator draws reference digits from crypto/rand.
type CryptoReferenceGenerator struct{}

// NewCryptoReferenceGenerator creates a new CryptoReferenceGenerator.
func NewCryptoReferenceGenerator() *CryptoReferenceGenerator {
	return &CryptoReferenceGenerator{}
}

// Generate returns prefix concatenated with 8 random decimal digits.
func (g *CryptoReferenceGenerator) Generate(prefix string) (string, error) {
	digits := make([]byte, referenceDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate reference number: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return prefix + string(digits), nil
}
