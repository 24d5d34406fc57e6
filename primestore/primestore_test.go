package primestore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func TestFromBitmapS1(t *testing.T) {
	bm, err := sieve.Sieve(100, 0)
	require.NoError(t, err)
	s := primestore.FromBitmap(bm)
	require.Equal(t, 25, s.Len())
	assert.Equal(t, uint64(2), s.At(0))
	assert.Equal(t, uint64(3), s.At(1))
	assert.Equal(t, uint64(97), s.At(24))

	// Strictly increasing.
	for i := 1; i < s.Len(); i++ {
		assert.Greater(t, s.At(i), s.At(i-1))
	}
}
