package certify

import (
	"context"
	"fmt"

	"github.com/grailbio/gbsieve/gbio"
	"github.com/grailbio/gbsieve/sieve"
)

// Stream re-generates primes from 2 segmented over [2, limit] and
// compares each value against the *.raw file at path in order,
// maintaining a running FNV-1a-64 digest of each value's little-endian
// 8-byte form as it goes.
func Stream(ctx context.Context, path string, limit uint64) (string, error) {
	view, err := gbio.OpenUint64s(ctx, path)
	if err != nil {
		return "", err
	}
	defer view.Close()

	if view.Len() == 0 {
		return "", mismatch("certify.Stream: %s is empty, expected leading value 2", path)
	}
	if view.At(0) != 2 {
		return "", mismatch("certify.Stream: %s: first value is %d, want 2", path, view.At(0))
	}

	bm, err := sieve.Sieve(limit, 0)
	if err != nil {
		return "", err
	}

	digest := newRunningFNV1a64()
	digest.writeUint64LE(2)

	idx := 1
	prev := uint64(2)
	for k := 0; k < bm.NumBits(); k++ {
		if !bm.IsPrimeAtIndex(k) {
			continue
		}
		p := sieve.ValueAt(k)
		if p > limit {
			break
		}
		if idx >= view.Len() {
			return "", mismatch("certify.Stream: %s: missing prime %d (stream ends after %d values)", path, p, view.Len())
		}
		got := view.At(idx)
		if got != p {
			return "", mismatch("certify.Stream: %s: value at index %d is %d, want %d", path, idx, got, p)
		}
		if got <= prev {
			return "", mismatch("certify.Stream: %s: value at index %d (%d) is not strictly increasing after %d", path, idx, got, prev)
		}
		prev = got
		digest.writeUint64LE(got)
		idx++
	}
	if idx != view.Len() {
		return "", mismatch("certify.Stream: %s: has %d values, re-generation produced only %d", path, view.Len(), idx)
	}

	return fmt.Sprintf("OK: stream %s matches re-generation for limit=%d (%d values), fnv1a64=%016x",
		path, limit, view.Len(), digest.Sum64()), nil
}
