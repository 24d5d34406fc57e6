package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/envelope"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func stream(t *testing.T, limit uint64) *primestore.Stream {
	t.Helper()
	bm, err := sieve.Sieve(limit, 0)
	require.NoError(t, err)
	return primestore.FromBitmap(bm)
}

func TestComputeDeterministic(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 2, Flavor: envelope.FlavorAlign}
	a := envelope.Compute(123456, 5000, opts, s)
	b := envelope.Compute(123456, 5000, opts, s)
	assert.Equal(t, a, b)
}

func TestMemoAgreesWithCompute(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 2, Flavor: envelope.FlavorBoundPositive}
	m := envelope.NewMemo(s)

	for _, delta := range []uint64{10, 100, 500, 500, 2000, 50000} {
		got := m.Compute(987654, delta, opts)
		want := envelope.Compute(987654, delta, opts, s)
		assert.InDelta(t, want, got, 1e-9, "delta=%d", delta)
	}
}

func TestMemoHandlesDecreasingDelta(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 2, Flavor: envelope.FlavorAlign}
	m := envelope.NewMemo(s)

	big := m.Compute(42000, 9000, opts)
	small := m.Compute(42000, 10, opts)
	want := envelope.Compute(42000, 10, opts, s)
	assert.InDelta(t, want, small, 1e-9)
	assert.NotEqual(t, big, small)
}

func TestFencePrimeMonotoneInDelta(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 2, Flavor: envelope.FlavorAlign}
	p1 := envelope.FencePrime(30030, 10, opts, s)
	p2 := envelope.FencePrime(30030, 100000, opts, s)
	assert.GreaterOrEqual(t, p2, p1)
}

func TestShortIntervalAndTentingDontPanic(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 2, Flavor: envelope.FlavorBoundNegative, ShortInterval: true, Tenting: true}
	got := envelope.Compute(7777, 300, opts, s)
	assert.Greater(t, got, 0.0)
}

func TestSimplePrimesResidue(t *testing.T) {
	s := stream(t, 100000)
	opts := envelope.Options{R: 1, Flavor: envelope.FlavorAlign}
	got := envelope.Compute(9999, 400, opts, s)
	assert.Greater(t, got, 0.0)
}
