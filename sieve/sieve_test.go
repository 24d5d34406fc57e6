package sieve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1: Sieve L=100. Bitmap covers odd integers 3..99. Prime count = 25
// (including 2). PrimeStream begins 2,3,5,7,11,13,... and has length 25.
func TestSieveS1(t *testing.T) {
	bm, err := Sieve(100, 0)
	require.NoError(t, err)

	var oddPrimes []uint64
	for k := 0; k < bm.NumBits(); k++ {
		v := ValueAt(k)
		if v > 100 {
			continue
		}
		if bm.IsPrimeAtIndex(k) {
			oddPrimes = append(oddPrimes, v)
		}
	}
	// 2 plus the odd primes up to 100 should total 25.
	assert.Equal(t, 24, len(oddPrimes))
	assert.Equal(t, []uint64{3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89, 97}, oddPrimes)
}

func TestSieveSmallLimit(t *testing.T) {
	for _, limit := range []uint64{0, 1, 2} {
		bm, err := Sieve(limit, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, bm.NumBits())
	}
}

func TestSieveSegmentedMatchesUnsegmented(t *testing.T) {
	full, err := Sieve(200000, 0)
	require.NoError(t, err)
	segmented, err := Sieve(200000, 97)
	require.NoError(t, err)
	require.Equal(t, full.NumBits(), segmented.NumBits())
	for k := 0; k < full.NumBits(); k++ {
		if full.IsPrimeAtIndex(k) != segmented.IsPrimeAtIndex(k) {
			t.Fatalf("mismatch at k=%d (value %d): full=%v segmented=%v", k, ValueAt(k), full.IsPrimeAtIndex(k), segmented.IsPrimeAtIndex(k))
		}
	}
}

func TestIsPrime(t *testing.T) {
	bm, err := Sieve(1000, 0)
	require.NoError(t, err)
	assert.True(t, bm.IsPrime(3))
	assert.True(t, bm.IsPrime(997))
	assert.False(t, bm.IsPrime(9))
	assert.False(t, bm.IsPrime(1))
}

func TestCheckInvariants(t *testing.T) {
	bm, err := Sieve(100, 0)
	require.NoError(t, err)
	assert.NoError(t, bm.CheckInvariants())
}
