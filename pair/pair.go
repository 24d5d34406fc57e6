// Package pair implements C3, the streaming two-pointer Goldbach pair
// counter.
//
// A Cursor borrows a primestore.Stream and exposes CountRangedPairs, which
// counts ordered pairs (p,q) with p+q=2n, p>n_min, q>n (i.e. p<n<q), for a
// single n. Per the documented concurrency model, a Cursor chooses option
// (ii) from the design notes: it preserves its internal scan position at
// "the first prime greater than n" across calls (so that monotonically
// increasing n amortizes to linear total work), and recomputes lo/hi fresh
// on every call so that distinct alphas (distinct n_min) at the same n are
// always correct regardless of calling order.
package pair

import (
	"math"

	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/primestore"
)

// Cursor is a streaming Goldbach-pair counter over a single prime stream.
// Its internal index is exclusive to one analysis pass and moves
// monotonically forward (in amortized terms) as n increases; never expose
// its raw indices across a package boundary.
type Cursor struct {
	stream *primestore.Stream
	idx    int // index of the first prime > the last-seen n; 0 before first use
}

// NewCursor creates a Cursor over stream, starting with the scan position
// unset.
func NewCursor(stream *primestore.Stream) *Cursor {
	return &Cursor{stream: stream, idx: 0}
}

// seek advances idx (forward or backward, as needed) until
// stream.At(idx-1) <= n < stream.At(idx), i.e. idx is the index of the
// smallest prime strictly greater than n.
func (c *Cursor) seek(n uint64) {
	L := c.stream.Len()
	for c.idx < L && c.stream.At(c.idx) <= n {
		c.idx++
	}
	for c.idx > 0 && c.stream.At(c.idx-1) > n {
		c.idx--
	}
}

// ErrInsufficientPrimes-flavored errors are returned (via gberrors, kind
// Invariant) whenever hi walks off the end of the stream: the caller's
// prime stream does not cover far enough past 2n to complete the count,
// which the driver must treat as a fatal precondition violation.

// CountRangedPairs counts ordered Goldbach pairs (p,q), p+q=2n, with
// p > n_min and q implied by p (q=2n-p), per spec section 4.3. It does not
// include the trivial pair (n,n); callers add that externally when n is
// itself prime and the aggregator is configured to include it.
func (c *Cursor) CountRangedPairs(n, nMin uint64) (uint64, error) {
	if n > math.MaxUint64/2 {
		return 0, gberrors.New(gberrors.Argument, "n=%d overflows 2n in uint64", n)
	}
	c.seek(n)
	lo := c.idx - 1
	hi := c.idx
	L := c.stream.Len()
	twoN := 2 * n

	var count uint64
	for lo >= 0 && c.stream.At(lo) > nMin {
		if hi >= L {
			return 0, gberrors.New(gberrors.Invariant, "insufficient primes: stream exhausted scanning pairs for n=%d", n)
		}
		need := twoN - c.stream.At(lo)
		hiVal := c.stream.At(hi)
		switch {
		case hiVal > need:
			lo--
		case hiVal < need:
			hi++
			if hi >= L {
				return 0, gberrors.New(gberrors.Invariant, "insufficient primes: stream exhausted scanning pairs for n=%d", n)
			}
		default:
			count += 2
			lo--
			hi++
			if hi >= L {
				return 0, gberrors.New(gberrors.Invariant, "insufficient primes: stream exhausted scanning pairs for n=%d", n)
			}
		}
	}
	return count, nil
}
