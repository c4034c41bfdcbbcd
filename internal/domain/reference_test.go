package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoReferenceGenerator_Format(t *testing.T) {
	gen := NewCryptoReferenceGenerator()

	bookingRef, err := gen.Generate("BK")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^BK\d{8}$`), bookingRef)

	paymentRef, err := gen.Generate("PAY")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^PAY\d{8}$`), paymentRef)
}

func TestCryptoReferenceGenerator_Varies(t *testing.T) {
	gen := NewCryptoReferenceGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ref, err := gen.Generate("BK")
		require.NoError(t, err)
		seen[ref] = true
	}
	// 50 draws from a 10^8 space colliding down to a handful would mean the
	// generator is broken.
	assert.Greater(t, len(seen), 45)
}
