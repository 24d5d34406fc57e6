package bucket_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/bucket"
)

func TestDecadeScheduleLowRange(t *testing.T) {
	s := bucket.NewDecadeSchedule()
	for n := uint64(4); n < 10; n++ {
		closed := s.Advance(n)
		// Each single-width bucket [n-1, n) closes when n arrives.
		assert.Equal(t, n > 4, closed)
		assert.Equal(t, n, s.Left())
		assert.Equal(t, n+1, s.Right())
	}
}

func TestDecadeScheduleS5GeometricAnchor(t *testing.T) {
	s := bucket.NewDecadeSchedule()
	s.Advance(10)
	assert.Equal(t, uint64(10), s.Left())
	assert.Equal(t, uint64(20), s.Right())
	assert.EqualValues(t, 1, s.Decade())
	assert.EqualValues(t, 1, s.Scale())
	// floor(10*sqrt(1*2)) = 14, OR 1 => 15, per spec section 4.7.
	assert.Equal(t, uint64(15), s.NGeom())
}

func TestDecadeScheduleClosesOnCross(t *testing.T) {
	s := bucket.NewDecadeSchedule()
	require.False(t, s.Advance(10))
	require.False(t, s.Advance(15))
	closed := s.Advance(20)
	assert.True(t, closed)
	assert.Equal(t, uint64(20), s.Left())
	assert.Equal(t, uint64(30), s.Right())
}

func TestDecadeScheduleCrossesPowerOfTen(t *testing.T) {
	s := bucket.NewDecadeSchedule()
	s.Advance(90)
	assert.Equal(t, uint64(90), s.Left())
	assert.Equal(t, uint64(100), s.Right())
	closed := s.Advance(100)
	assert.True(t, closed)
	assert.Equal(t, uint64(100), s.Left())
	assert.Equal(t, uint64(200), s.Right())
	assert.EqualValues(t, 1, s.Decade())
	assert.EqualValues(t, 2, s.Scale())
}

func TestPrimorialScheduleWalksBreaks(t *testing.T) {
	primes := []uint64{2, 3, 5, 7, 11, 13}
	breaks := bucket.GeneratePrimorialBreaks(primes, 100000)
	require.NotEmpty(t, breaks)

	s := bucket.NewPrimorialSchedule(breaks)
	closedAny := false
	for n := uint64(1); n < 50000; n += 97 {
		if s.Advance(n) {
			closedAny = true
			assert.LessOrEqual(t, s.Left(), n)
		}
	}
	assert.True(t, closedAny)
}

func TestPrimorialScheduleEmptyWhenUnreachable(t *testing.T) {
	s := bucket.NewPrimorialSchedule(nil)
	s.Advance(5)
	assert.True(t, s.Empty())
}
