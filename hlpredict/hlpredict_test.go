package hlpredict_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/hlpredict"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func stream(t *testing.T, limit uint64) *primestore.Stream {
	t.Helper()
	bm, err := sieve.Sieve(limit, 0)
	require.NoError(t, err)
	return primestore.FromBitmap(bm)
}

// S4: HL-A at 2n=30 (n=15=3*5, odd part 15):
// 4*C2*(3-1)/(3-2)*(5-1)/(5-2) = 4*0.660161815...*2*4/3 ~= 7.0417274.
func TestPredictS4(t *testing.T) {
	s := stream(t, 1000)
	got := hlpredict.Predict(15, s)
	assert.InDelta(t, 7.0417274, got, 1e-6)
}

// HL-A sanity: 2S_GB(2n) >= 2S_GB(2)=4C2; it equals 4C2 iff n is a power
// of 2.
func TestPredictSanity(t *testing.T) {
	s := stream(t, 100000)
	base := 4 * hlpredict.TwinPrimeConstant
	for n := uint64(1); n < 5000; n++ {
		got := hlpredict.Predict(n, s)
		assert.GreaterOrEqual(t, got, base-1e-9, "n=%d", n)
		isPow2 := n&(n-1) == 0
		if isPow2 {
			assert.InDelta(t, base, got, 1e-9, "n=%d", n)
		} else {
			assert.Greater(t, got, base+1e-9, "n=%d", n)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	s := stream(t, 10000)
	a := hlpredict.Predict(9699690, s) // 2*3*5*7*11*13*17*19
	b := hlpredict.Predict(9699690, s)
	assert.True(t, math.IsNaN(a) == false && a == b)
}
