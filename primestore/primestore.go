// Package primestore implements C2: converting a sieve.Bitmap into the
// canonical ascending uint64 prime stream (the *.raw wire format), and
// reading that stream back as a read-only, mmap-friendly view.
package primestore

import (
	"bufio"
	"context"
	"encoding/binary"

	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/gbio"
	"github.com/grailbio/gbsieve/sieve"
)

// Stream is the ordered, read-only sequence of primes 2, 3, 5, 7, ...
// covering at least [2, L]. It is produced once at driver init and shared
// read-only by every downstream analysis.
type Stream struct {
	view   *gbio.Uint64View
	inline []uint64
	n      int
}

// Open opens a *.raw file as a Stream.
func Open(ctx context.Context, path string) (*Stream, error) {
	view, err := gbio.OpenUint64s(ctx, path)
	if err != nil {
		return nil, err
	}
	return wrap(view), nil
}

func wrap(view *gbio.Uint64View) *Stream {
	return &Stream{view: view, n: view.Len()}
}

// FromBitmap materializes a Stream directly from a bitmap already held in
// memory, without a round-trip through disk. Like Write, it stops at the
// bitmap's limit.
func FromBitmap(bm *sieve.Bitmap) *Stream {
	values := []uint64{2}
	for k := 0; k < bm.NumBits(); k++ {
		if sieve.ValueAt(k) > bm.Limit() {
			break
		}
		if bm.IsPrimeAtIndex(k) {
			values = append(values, sieve.ValueAt(k))
		}
	}
	return &Stream{view: nil, n: len(values), inline: values}
}

// Len returns the number of primes in the stream.
func (s *Stream) Len() int { return s.n }

// At returns the i'th prime (0-indexed, ascending; At(0) == 2).
func (s *Stream) At(i int) uint64 {
	if s.inline != nil {
		return s.inline[i]
	}
	return s.view.At(i)
}

// Close releases the underlying file view, if any.
func (s *Stream) Close() error {
	if s.view == nil {
		return nil
	}
	return s.view.Close()
}

// Write writes the given bitmap out as a *.raw prime stream: the literal 2,
// followed by every odd prime <= limit in ascending order, little-endian.
// File size is therefore 8*pi(limit), matching the documented invariant.
func Write(ctx context.Context, path string, bm *sieve.Bitmap, gzipped bool) (int64, error) {
	w, err := gbio.CreateWriter(ctx, path, gzipped)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriterSize(w, 1<<20)
	var buf [8]byte
	var count int64
	writeOne := func(v uint64) error {
		binary.LittleEndian.PutUint64(buf[:], v)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
		count++
		return nil
	}
	if err := writeOne(2); err != nil {
		w.Close()
		return 0, gberrors.Wrap(gberrors.IO, err, "primestore.Write")
	}
	for k := 0; k < bm.NumBits(); k++ {
		v := sieve.ValueAt(k)
		if v > bm.Limit() {
			break
		}
		if bm.IsPrimeAtIndex(k) {
			if err := writeOne(v); err != nil {
				w.Close()
				return 0, gberrors.Wrap(gberrors.IO, err, "primestore.Write")
			}
		}
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return 0, gberrors.Wrap(gberrors.IO, err, "primestore.Write")
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return count * 8, nil
}
