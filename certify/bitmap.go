package certify

import (
	"context"
	"fmt"

	"github.com/grailbio/base/simd"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/gbsieve/gbio"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/sieve"
)

// Bitmap re-sieves [3, limit] segmented and byte-compares the result
// against the bitmap at path, using traverse.Each to re-sieve independent
// segments concurrently via sieve.SieveSegmentInto, following
// pileup/snp/pileup.go's shard-per-goroutine fan-out. It also reports the
// FNV-1a-64 and seahash digests of the bitmap bytes under test.
func Bitmap(ctx context.Context, path string, limit uint64, segmentSize int, parallelism int) (string, error) {
	view, err := gbio.OpenBytes(ctx, path)
	if err != nil {
		return "", err
	}
	defer view.Close()

	numBits := sieve.NumBitsForLimit(limit)
	wantLen := (numBits + 7) / 8
	got := view.Bytes()
	if len(got) != wantLen {
		return "", mismatch("certify.Bitmap: %s has %d bytes, want %d for limit=%d", path, len(got), wantLen, limit)
	}

	basePrimes, err := sieve.BasePrimes(limit)
	if err != nil {
		return "", err
	}

	if segmentSize <= 0 {
		segmentSize = sieve.DefaultSegmentSize
	}
	if parallelism <= 0 {
		parallelism = 1
	}

	numSegments := (numBits + segmentSize - 1) / segmentSize
	if numSegments == 0 {
		digest := fnv1a64(got)
		return fmt.Sprintf("OK: bitmap %s empty (limit=%d < 3), fnv1a64=%016x", path, limit, digest), nil
	}

	mismatches := make([]string, numSegments)
	err = traverse.Each(min(parallelism, numSegments), func(shard int) error {
		for seg := shard; seg < numSegments; seg += parallelism {
			segStart := seg * segmentSize
			segEnd := segStart + segmentSize
			if segEnd > numBits {
				segEnd = numBits
			}
			// SieveSegmentInto indexes out[k>>3] with the absolute bit
			// index k, so the buffer must span the full bitmap even
			// though only [segStart,segEnd) gets written.
			want := make([]byte, len(got))
			sieve.SieveSegmentInto(want, segStart, segEnd, basePrimes)

			if m := compareSegmentBits(got, want, segStart, segEnd); m != "" {
				mismatches[seg] = m
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	for _, m := range mismatches {
		if m != "" {
			return "", mismatch("certify.Bitmap: %s: %s", path, m)
		}
	}

	return fmt.Sprintf("OK: bitmap %s matches re-sieve for limit=%d, fnv1a64=%016x, seahash=%016x",
		path, limit, fnv1a64(got), seahashDigest(got)), nil
}

// compareSegmentBits reports a mismatch description for the first differing
// bit in [segStart,segEnd), or "" if got and want agree throughout. The
// byte-aligned interior of the range is diffed a byte at a time and scanned
// with simd.FirstGreater8Unsafe for the first nonzero (i.e. differing) byte,
// following circular/bitmap.go's find-next-nonzero-byte pattern; only the
// unaligned leading/trailing bits (at most one partial byte on each edge)
// fall back to a per-bit loop.
func compareSegmentBits(got, want []byte, segStart, segEnd int) string {
	if segStart >= segEnd {
		return ""
	}
	byteStart := (segStart + 7) / 8
	byteEnd := segEnd / 8

	leadEnd := min(segEnd, byteStart*8)
	if m := compareBitRange(got, want, segStart, leadEnd); m != "" {
		return m
	}
	if byteStart < byteEnd {
		diff := make([]byte, byteEnd-byteStart)
		for i := range diff {
			diff[i] = got[byteStart+i] ^ want[byteStart+i]
		}
		if at := simd.FirstGreater8Unsafe(diff, 0, 0); at < len(diff) {
			byteIdx := byteStart + at
			if m := compareBitRange(got, want, byteIdx*8, byteIdx*8+8); m != "" {
				return m
			}
		}
	}
	if m := compareBitRange(got, want, max(byteEnd*8, leadEnd), segEnd); m != "" {
		return m
	}
	return ""
}

func compareBitRange(got, want []byte, start, end int) string {
	for k := start; k < end; k++ {
		gotBit := got[k>>3]&(1<<uint(k&7)) != 0
		wantBit := want[k>>3]&(1<<uint(k&7)) != 0
		if gotBit != wantBit {
			return fmt.Sprintf("bit %d (value %d): bitmap has %v, re-sieve has %v", k, sieve.ValueAt(k), gotBit, wantBit)
		}
	}
	return ""
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
