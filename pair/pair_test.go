package pair_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func stream(t *testing.T, limit uint64) *primestore.Stream {
	t.Helper()
	bm, err := sieve.Sieve(limit, 0)
	require.NoError(t, err)
	return primestore.FromBitmap(bm)
}

// S2: 2N=10. The pairs (3,7),(5,5),(7,3) are valid; the ordered count with
// trivial excluded is 2.
func TestCountRangedPairsS2(t *testing.T) {
	s := stream(t, 1000)
	c := pair.NewCursor(s)
	count, err := c.CountRangedPairs(5, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

// S3: 2N=100. Ordered Goldbach pairs p+q=100 with 3<=p<=97: (3,97),(11,89),
// (17,83),(29,71),(41,59),(47,53) and their reversals -> 12 ordered pairs.
func TestCountRangedPairsS3(t *testing.T) {
	s := stream(t, 1000)
	c := pair.NewCursor(s)
	count, err := c.CountRangedPairs(50, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), count)
}

// Monotone cursor: re-running with the same (n, delta) regardless of the
// cursor's prior state produces the same count, provided the stream
// covers 2n.
func TestCountRangedPairsMonotone(t *testing.T) {
	s := stream(t, 2000)
	fresh := pair.NewCursor(s)
	want, err := fresh.CountRangedPairs(500, 400)
	require.NoError(t, err)

	// Drive a cursor through a long increasing sequence of n's first, then
	// ask it for the same (n, n_min) query; the cursor's seek position
	// should not change the result.
	warm := pair.NewCursor(s)
	for n := uint64(10); n < 500; n += 7 {
		_, _ = warm.CountRangedPairs(n, 0)
	}
	got, err := warm.CountRangedPairs(500, 400)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCountRangedPairsInsufficientPrimes(t *testing.T) {
	s := stream(t, 40)
	c := pair.NewCursor(s)
	_, err := c.CountRangedPairs(1000, 0)
	require.Error(t, err)
}

func TestCountRangedPairsAcrossIncreasingN(t *testing.T) {
	s := stream(t, 5000)
	c := pair.NewCursor(s)
	prev := uint64(0)
	for n := uint64(4); n < 2000; n++ {
		count, err := c.CountRangedPairs(n, 0)
		require.NoError(t, err)
		_ = prev
		prev = count
	}
}
