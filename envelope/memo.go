package envelope

import (
	"encoding/binary"
	"math"
	"sync"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/gbsieve/primestore"
)

// memoKey identifies a single (n, flavor-parameters) walk. Two calls with
// equal memoKeys and non-decreasing delta can share a walk.
type memoKey struct {
	n        uint64
	flavor   Flavor
	r        uint64
	short    bool
	tent     bool
	exposure int
}

func (k memoKey) shardHash() uint64 {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[0:8], k.n)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(k.flavor))
	binary.LittleEndian.PutUint64(buf[16:24], k.r)
	flags := uint64(k.exposure) << 2
	if k.short {
		flags |= 1
	}
	if k.tent {
		flags |= 2
	}
	binary.LittleEndian.PutUint64(buf[24:32], flags)
	return farm.Hash64WithSeed(buf[:], 0)
}

// Memo caches Remainder Envelope walks across repeated calls for the same
// n with monotonically non-decreasing delta, re-walking primes only when
// the fence needs to advance -- the calling pattern spec section 4.5
// documents. It is keyed by a farm hash of the (n, flavor, r, short, tent,
// exposure) tuple sharded the way fusion/kmer_index.go shards its
// kmer->genelist map, with the full key retained alongside each entry to
// resolve the (extremely unlikely) hash collision case by falling back to
// a fresh walk.
type Memo struct {
	mu     sync.Mutex
	stream *primestore.Stream
	shards map[uint64]*memoEntry
}

type memoEntry struct {
	key          memoKey
	w            *walk
	lastEffDelta float64
}

// NewMemo creates a Memo over stream. A Memo is not safe for concurrent
// use by multiple WindowState owners that touch the same n; in this
// pipeline's concurrency model, a Memo is owned by a single WindowState
// decade or primorial sub-accumulator, matching the "no process-wide
// mutable state" design note for HLCorrState-like accumulators.
func NewMemo(stream *primestore.Stream) *Memo {
	return &Memo{stream: stream, shards: make(map[uint64]*memoEntry)}
}

// Compute evaluates R(delta,n) for opts, reusing a cached walk when the
// previous call for the same key had a smaller or equal effective delta.
func (m *Memo) Compute(n, delta uint64, opts Options) float64 {
	key := memoKey{n: n, flavor: opts.Flavor, r: opts.R, short: opts.ShortInterval, tent: opts.Tenting, exposure: exposureCount(opts)}
	effDelta := effectiveDelta(delta, opts)

	m.mu.Lock()
	defer m.mu.Unlock()

	h := key.shardHash()
	entry := m.shards[h]
	if entry == nil || entry.key != key || effDelta < entry.lastEffDelta {
		entry = &memoEntry{key: key, w: newWalk(n, opts, m.stream)}
		m.shards[h] = entry
	}
	entry.w.growFence(effDelta)
	entry.lastEffDelta = effDelta

	base := entry.w.sumLog.sum + entry.w.sumCorrection.sum
	tailVal := entry.w.tail()
	return math.Exp(base + float64(delta)*tailVal)
}

// Reset drops all cached walk state, e.g. on bucket close when a fresh
// accumulator begins.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shards = make(map[uint64]*memoEntry)
}
