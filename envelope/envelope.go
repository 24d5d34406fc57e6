// Package envelope implements C5, the CRT-inspired analytic Remainder
// Envelope R(delta,n) = exp(base(delta,n) + delta*tail(delta,n)), used to
// derive the Cpred_align / Cpred_bound / CPS lower-bound columns.
package envelope

import (
	"math"

	"github.com/grailbio/gbsieve/primestore"
)

// Flavor selects which of the three documented variants to compute. The
// three flavors share the same base/tail machinery; they differ only in
// the residue and tenting/short-interval choices a caller supplies via
// Options, so Flavor itself is informational (used by Memo's cache key
// and by callers picking Options per flavor) rather than branching logic
// inside Compute.
type Flavor int

const (
	// FlavorBoundPositive computes the positive-bound variant.
	FlavorBoundPositive Flavor = iota
	// FlavorBoundNegative computes the negative-bound variant.
	FlavorBoundNegative
	// FlavorAlign computes the alignment variant.
	FlavorAlign
)

// Options parameterizes the envelope computation.
type Options struct {
	// R is the residue parameter: 2 for Goldbach, 1 for simple primes.
	R uint64
	// Flavor selects which cache bucket a Memo keys this call under.
	Flavor Flavor
	// ShortInterval substitutes sqrt(delta) for delta in the fence/product
	// computation.
	ShortInterval bool
	// Tenting replaces log(p-r) with log(min(p-r, t+1)) where
	// t = (n+r) mod p, the cap-tent rule.
	Tenting bool
	// ExposureCount bounds how many tail terms beyond the fence are summed.
	// <=0 selects DefaultExposureCount.
	ExposureCount int
}

// DefaultExposureCount is the default tail truncation length.
const DefaultExposureCount = 32

// hardCapPrimorial is the largest odd primorial (3*5*7*...*53) that fits in
// 64 bits; above this, no further primes are committed to the fence
// product and every further prime contributes its full (non-dividing) log
// term with no further primes considered, per the documented hard cap.
const hardCapPrimorial = 16294579238595022365

// startPrime returns s=3 if 3 divides n, else s=5.
func startPrime(n uint64) uint64 {
	if n%3 == 0 {
		return 3
	}
	return 5
}

func effectiveDelta(delta uint64, opts Options) float64 {
	d := float64(delta)
	if opts.ShortInterval {
		return math.Sqrt(d)
	}
	return d
}

func exposureCount(opts Options) int {
	if opts.ExposureCount > 0 {
		return opts.ExposureCount
	}
	return DefaultExposureCount
}

// logTerm returns log(p-r), or the cap-tented variant log(min(p-r, t+1))
// where t = (n+r) mod p, when tenting is enabled.
func logTerm(p, r, n uint64, tenting bool) float64 {
	val := float64(p - r)
	if tenting {
		t := (n + r) % p
		tented := float64(t + 1)
		if tented < val {
			val = tented
		}
	}
	return math.Log(val)
}

// walk accumulates the fence-product state (R_k^(s)) for a single n,
// growing one prime at a time with Kahan-compensated summation of the log
// terms -- the portable substitute for 80-bit long double precision this
// module relies on (see SPEC_FULL.md section 4.5's extended-precision
// design note: platforms without long double use Kahan-compensated
// float64 summation, which is the reason TAINTED exists).
type walk struct {
	n      uint64
	s      uint64
	stream *primestore.Stream
	opts   Options

	primeIdx int // index into stream of the next unconsidered prime

	sumLog        kahanSum // base sum over committed primes, pre-correction
	sumCorrection kahanSum // divisibility correction, accumulated incrementally
	runProdMinus1 float64  // R_k^(s): running product of (p-1)
	runPrimorial  float64  // running product of p itself, for the hard cap
	fencePrime    uint64   // p*, the largest committed prime; 0 if none yet
	capped        bool
}

func newWalk(n uint64, opts Options, stream *primestore.Stream) *walk {
	s := startPrime(n)
	idx := 0
	for idx < stream.Len() && stream.At(idx) < s {
		idx++
	}
	return &walk{n: n, s: s, stream: stream, opts: opts, primeIdx: idx, runProdMinus1: 1, runPrimorial: 1}
}

// growFence advances the committed fence while (R_k)^2 <= effDelta and the
// hard cap has not been hit.
func (w *walk) growFence(effDelta float64) {
	if w.capped {
		return
	}
	for w.primeIdx < w.stream.Len() {
		p := w.stream.At(w.primeIdx)
		candidateProd := w.runProdMinus1 * float64(p-1)
		candidatePrimorial := w.runPrimorial * float64(p)
		if candidatePrimorial > hardCapPrimorial {
			w.capped = true
			return
		}
		if candidateProd*candidateProd > effDelta {
			return
		}
		w.runProdMinus1 = candidateProd
		w.runPrimorial = candidatePrimorial
		w.fencePrime = p
		w.sumLog.add(logTerm(p, w.opts.R, w.n, w.opts.Tenting))
		if w.n%p == 0 {
			w.sumCorrection.add(math.Log(float64(p-1)) - logTerm(p, w.opts.R, w.n, false))
		}
		w.primeIdx++
	}
}

// tail implements tail(delta,n): sum_{i>k*} log(p_i - r)/(R_i^(s))^2,
// truncated after ExposureCount terms. It never mutates the committed
// fence; it continues the product forward in a scratch copy only far
// enough to compute the requested number of terms (or until the hard cap
// or stream exhaustion stops it, per the documented hard-cap behavior of
// "no further primes are considered" beyond the cap).
func (w *walk) tail() float64 {
	if w.capped {
		return 0
	}
	var t kahanSum
	runProdMinus1 := w.runProdMinus1
	runPrimorial := w.runPrimorial
	idx := w.primeIdx
	for count := 0; count < exposureCount(w.opts) && idx < w.stream.Len(); count++ {
		p := w.stream.At(idx)
		runProdMinus1 *= float64(p - 1)
		runPrimorial *= float64(p)
		if runPrimorial > hardCapPrimorial {
			break
		}
		t.add(logTerm(p, w.opts.R, w.n, w.opts.Tenting) / (runProdMinus1 * runProdMinus1))
		idx++
	}
	return t.sum
}

// Compute evaluates R(delta,n) from scratch (no memoization). It is the
// ground-truth implementation that Memo's cached fast path must always
// agree with.
func Compute(n, delta uint64, opts Options, stream *primestore.Stream) float64 {
	w := newWalk(n, opts, stream)
	w.growFence(effectiveDelta(delta, opts))
	base := w.sumLog.sum + w.sumCorrection.sum
	tailVal := w.tail()
	return math.Exp(base + float64(delta)*tailVal)
}

// FencePrime returns p*, the largest prime committed to the fence product
// for the given (n, delta, opts). Exposed for the certifier and for tests
// that need to verify the documented fence-selection rule directly.
func FencePrime(n, delta uint64, opts Options, stream *primestore.Stream) uint64 {
	w := newWalk(n, opts, stream)
	w.growFence(effectiveDelta(delta, opts))
	return w.fencePrime
}
