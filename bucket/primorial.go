package bucket

import (
	"sort"

	farm "github.com/dgryski/go-farm"
)

// GeneratePrimorialBreaks builds the sorted breakpoint list a
// PrimorialSchedule walks: the primorial values p#(k) = product of the
// first k primes for k=1..m (while p#(k) <= maxBreak), plus the geometric
// midpoint between each consecutive pair, giving the scheduler a finer
// checkpoint inside each primorial-to-primorial span. primes must be
// ascending, as primestore.Stream yields them.
func GeneratePrimorialBreaks(primes []uint64, maxBreak uint64) []uint64 {
	var primorials []uint64
	prod := uint64(1)
	for _, p := range primes {
		if prod > maxBreak/p {
			break
		}
		prod *= p
		primorials = append(primorials, prod)
	}
	breaks := make([]uint64, 0, len(primorials)*2)
	for i, v := range primorials {
		breaks = append(breaks, v)
		if i+1 < len(primorials) {
			next := primorials[i+1]
			mid := v + (next-v)/2
			if mid > v && mid < next {
				breaks = append(breaks, mid)
			}
		}
	}
	sort.Slice(breaks, func(i, j int) bool { return breaks[i] < breaks[j] })
	return breaks
}

// PrimorialSchedule walks a precomputed sorted list of breakpoints,
// closing a bucket whenever n crosses the next one. A farm-hash shard
// index seeds lookups for out-of-order queries (e.g. the certifier asking
// "what bucket is n in" without having walked there sequentially) so they
// don't pay a full binary search every time, following the same
// hash-then-narrow access pattern fusion/kmer_index.go uses for its
// kmer->genelist shards.
type PrimorialSchedule struct {
	breaks []uint64
	idx    int
	left   uint64

	initialized bool

	shardShift uint
	shard      map[uint64]int
}

// NewPrimorialSchedule creates a schedule over breaks, which must already
// be sorted ascending (GeneratePrimorialBreaks returns such a slice).
func NewPrimorialSchedule(breaks []uint64) *PrimorialSchedule {
	s := &PrimorialSchedule{breaks: breaks, shardShift: 16, shard: make(map[uint64]int)}
	for i, b := range breaks {
		key := farm.Hash64WithSeed(shardKeyBytes(b>>s.shardShift), 0)
		if _, ok := s.shard[key]; !ok {
			s.shard[key] = i
		}
	}
	return s
}

func shardKeyBytes(v uint64) []byte {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return buf[:]
}

// FindIndex returns the index of the first breakpoint strictly greater
// than n, seeding the search from the shard map before narrowing with a
// linear scan bounded by shard granularity.
func (s *PrimorialSchedule) FindIndex(n uint64) int {
	key := farm.Hash64WithSeed(shardKeyBytes(n>>s.shardShift), 0)
	start := 0
	if i, ok := s.shard[key]; ok {
		start = i
	}
	i := sort.Search(len(s.breaks)-start, func(j int) bool { return s.breaks[start+j] > n })
	return start + i
}

// Advance implements Schedule.
func (s *PrimorialSchedule) Advance(n uint64) bool {
	if s.initialized && n < s.currentRight() {
		return false
	}
	closed := s.initialized
	if s.initialized {
		s.left = s.currentRight()
	}
	s.idx = s.FindIndex(n)
	s.initialized = true
	return closed
}

func (s *PrimorialSchedule) currentRight() uint64 {
	if s.idx >= len(s.breaks) {
		return ^uint64(0)
	}
	return s.breaks[s.idx]
}

// Left implements Schedule.
func (s *PrimorialSchedule) Left() uint64 { return s.left }

// Right implements Schedule.
func (s *PrimorialSchedule) Right() uint64 { return s.currentRight() }

// Empty implements Schedule. A schedule with no breakpoints is always
// empty.
func (s *PrimorialSchedule) Empty() bool {
	return len(s.breaks) == 0 || s.left >= s.currentRight()
}
