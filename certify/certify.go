// Package certify implements C9, the three independent verifiers of
// spec.md section 4.9: the bitmap certifier, the stream certifier, and
// the pair-summary certifier. Each certifier returns a human-readable
// "OK: ..." string on success or a gberrors-typed Invariant error that a
// caller formats as "ERROR: ...", per the documented all-or-nothing
// output contract.
package certify

import (
	"encoding/binary"
	"hash/fnv"

	"blainsmith.com/go/seahash"

	"github.com/grailbio/gbsieve/gberrors"
)

// fnv1a64 returns the FNV-1a-64 digest of data, offset basis
// 1469598103934665603 and prime 1099511628211 per spec.md section 9's
// glossary entry -- hash/fnv's Sum64a implements exactly this variant.
func fnv1a64(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data) // nolint: errcheck -- hash.Hash64.Write never errors
	return h.Sum64()
}

// runningFNV1a64 accumulates an FNV-1a-64 digest across many successive
// Write calls, used by the stream certifier to hash "each value's
// little-endian 8-byte form" without re-concatenating the whole stream in
// memory first.
type runningFNV1a64 struct {
	h uint64
}

func newRunningFNV1a64() *runningFNV1a64 {
	return &runningFNV1a64{h: 1469598103934665603}
}

func (r *runningFNV1a64) writeUint64LE(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	for _, b := range buf {
		r.h ^= uint64(b)
		r.h *= 1099511628211
	}
}

func (r *runningFNV1a64) Sum64() uint64 { return r.h }

// seahashDigest returns the seahash digest of data, the certifier's
// secondary checksum alongside FNV-1a, grounded on
// cmd/bio-pamtool/checksum.go's seahash-based refChecksum.
func seahashDigest(data []byte) uint64 {
	h := seahash.New()
	h.Write(data) // nolint: errcheck
	return h.Sum64()
}

// mismatch constructs the Invariant-kind error every certifier returns on
// any detected divergence, so callers can render a single "ERROR: ..."
// line regardless of which verifier failed.
func mismatch(format string, args ...interface{}) error {
	return gberrors.New(gberrors.Invariant, format, args...)
}
