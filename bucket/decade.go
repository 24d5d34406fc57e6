// Package bucket implements C7, the decade and primorial bucket
// schedulers that tell the Window Aggregator when to close and emit a
// Row.
package bucket

import "math"

// Schedule is the common interface both decade and primorial schedules
// implement.
type Schedule interface {
	// Advance updates the schedule for position n, returning true if a
	// previously-open bucket just closed (n moved past its right edge).
	// After Advance returns, Left/Right/Empty describe the bucket n now
	// belongs to.
	Advance(n uint64) (closed bool)
	// Left and Right are the half-open bucket bounds [Left, Right) that n
	// (as of the most recent Advance) belongs to.
	Left() uint64
	Right() uint64
	// Empty reports whether the current bucket is degenerate
	// (Left >= Right), the documented "LARGEF/nonsensical" case that must
	// be treated as empty and never emit a row.
	Empty() bool
}

// DecadeSchedule walks the sequence 4,5,6,7,8,9,10,20,...,100,200,...:
// single-width buckets for n in [4,10), then buckets of width 10^k for
// n in [10^k, 10^(k+1)), per spec section 4.7.
type DecadeSchedule struct {
	left, right uint64
	d           uint64
	k           int
	initialized bool
}

// NewDecadeSchedule creates an empty decade schedule; the first call to
// Advance establishes the initial bucket without reporting a close.
func NewDecadeSchedule() *DecadeSchedule {
	return &DecadeSchedule{}
}

func pow10(k int) uint64 {
	v := uint64(1)
	for i := 0; i < k; i++ {
		v *= 10
	}
	return v
}

// decadeBoundsFor returns the half-open bucket [left,right) that n belongs
// to, along with the decade digit d and scale exponent k used by the
// geometric anchor formula.
func decadeBoundsFor(n uint64) (left, right, d uint64, k int) {
	if n < 10 {
		if n < 4 {
			n = 4
		}
		return n, n + 1, n, 0
	}
	k = 0
	for pow10(k+1) <= n {
		k++
	}
	scale := pow10(k)
	d = n / scale
	left = d * scale
	right = (d + 1) * scale
	return
}

// Advance implements Schedule.
func (s *DecadeSchedule) Advance(n uint64) bool {
	if s.initialized && n < s.right {
		return false
	}
	closed := s.initialized
	s.left, s.right, s.d, s.k = decadeBoundsFor(n)
	s.initialized = true
	return closed
}

// Left implements Schedule.
func (s *DecadeSchedule) Left() uint64 { return s.left }

// Right implements Schedule.
func (s *DecadeSchedule) Right() uint64 { return s.right }

// Empty implements Schedule.
func (s *DecadeSchedule) Empty() bool { return s.left >= s.right }

// NGeom returns the bucket's canonical geometric anchor,
// floor(10^k*sqrt(d*(d+1))), OR'ed with 1 when k>0 (per spec section 4.7;
// see DESIGN.md's Open Question decision: this OR-1 adjustment is treated
// as semantically required, not a legacy artifact).
func (s *DecadeSchedule) NGeom() uint64 {
	scale := pow10(s.k)
	d := float64(s.d)
	v := uint64(math.Floor(float64(scale) * math.Sqrt(d*(d+1))))
	if s.k > 0 {
		v |= 1
	}
	return v
}

// Decade and Scale expose the raw digit/exponent for callers (e.g. the
// certifier) that want to recompute NGeom independently.
func (s *DecadeSchedule) Decade() uint64 { return s.d }
func (s *DecadeSchedule) Scale() int     { return s.k }
