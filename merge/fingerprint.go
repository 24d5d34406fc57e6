package merge

import (
	"encoding/binary"
	"math"

	"github.com/minio/highwayhash"

	"github.com/grailbio/gbsieve/aggregate"
)

// RowFingerprint is a HighwayHash digest over a Row's numeric fields,
// following the hash-the-fixed-width-fields-into-a-buffer pattern
// fusion/postprocess.go's groupCandidatesByGenePair uses for fusion
// candidates.
type RowFingerprint = [highwayhash.Size]uint8

var fingerprintKey RowFingerprint

// Fingerprint returns row's digest, used as an O(1) duplicate-row
// short-circuit ahead of MergeAlpha's full overlap check.
func Fingerprint(row aggregate.Row) RowFingerprint {
	buf := make([]byte, 0, 23*8)
	putU := func(v uint64) {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		buf = append(buf, b[:]...)
	}
	putF := func(v float64) { putU(math.Float64bits(v)) }

	putU(row.First)
	putU(row.Last)
	putU(row.Start)
	putU(row.MinAt)
	putF(row.GpredAtMinAt)
	putU(row.MaxAt)
	putF(row.GpredAtMaxAt)
	putU(row.N0)
	putF(row.CpredMin)
	putU(row.N1)
	putF(row.CpredMax)
	putU(row.NGeom)
	putF(row.Count)
	putF(row.CpredAvg)
	putU(row.Nv)
	putF(row.CalignMin)
	putU(row.Nu)
	putF(row.CalignMax)
	putU(row.Na)
	putF(row.CboundMin)
	putU(row.Nb)
	putF(row.CboundMax)
	putF(row.Jitter)

	return highwayhash.Sum(buf, fingerprintKey[:])
}

// dedupByFingerprint drops rows whose fingerprint has already been seen,
// preserving the first occurrence's position.
func dedupByFingerprint(rows []aggregate.Row) []aggregate.Row {
	seen := make(map[RowFingerprint]bool, len(rows))
	out := make([]aggregate.Row, 0, len(rows))
	for _, r := range rows {
		fp := Fingerprint(r)
		if seen[fp] {
			continue
		}
		seen[fp] = true
		out = append(out, r)
	}
	return out
}
