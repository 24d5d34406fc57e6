package merge

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"sort"

	"github.com/golang/snappy"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gberrors"
)

// DefaultSpillBatchSize is the row-count threshold above which a single
// alpha's buffered rows spill to a snappy-compressed temp file rather
// than staying resident, mirroring cmd/bio-bam-sort/sorter's
// DefaultSortBatchSize external-sort threshold.
const DefaultSpillBatchSize = 1 << 16

// spillWriter appends Rows to a snappy-compressed temp file: each record
// is a fixed-width little-endian encoding of the Row, snappy-compressed,
// framed by a uint32 length prefix -- the same length-prefixed-compressed-
// block shape cmd/bio-bam-sort/sorter/sortshard.go uses for its spilled
// SAM records.
type spillWriter struct {
	f *os.File
	w *bufio.Writer
}

func newSpillWriter(dir string) (*spillWriter, error) {
	f, err := os.CreateTemp(dir, "gbsieve-merge-spill-*.snappy")
	if err != nil {
		return nil, gberrors.Wrap(gberrors.IO, err, "merge.newSpillWriter")
	}
	return &spillWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func encodeRow(row aggregate.Row) []byte {
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
	return buf
}

func decodeRow(buf []byte) aggregate.Row {
	var i int
	getU := func() uint64 {
		v := binary.LittleEndian.Uint64(buf[i : i+8])
		i += 8
		return v
	}
	getF := func() float64 { return math.Float64frombits(getU()) }

	var row aggregate.Row
	row.First, row.Last, row.Start = getU(), getU(), getU()
	row.MinAt, row.GpredAtMinAt = getU(), getF()
	row.MaxAt, row.GpredAtMaxAt = getU(), getF()
	row.N0, row.CpredMin = getU(), getF()
	row.N1, row.CpredMax = getU(), getF()
	row.NGeom, row.Count, row.CpredAvg = getU(), getF(), getF()
	row.Nv, row.CalignMin = getU(), getF()
	row.Nu, row.CalignMax = getU(), getF()
	row.Na, row.CboundMin = getU(), getF()
	row.Nb, row.CboundMax = getU(), getF()
	row.Jitter = getF()
	return row
}

func (s *spillWriter) Append(row aggregate.Row) error {
	compressed := snappy.Encode(nil, encodeRow(row))
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(compressed)))
	if _, err := s.w.Write(lenBuf[:]); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "merge.spillWriter.Append")
	}
	if _, err := s.w.Write(compressed); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "merge.spillWriter.Append")
	}
	return nil
}

func (s *spillWriter) Close() (string, error) {
	if err := s.w.Flush(); err != nil {
		return "", gberrors.Wrap(gberrors.IO, err, "merge.spillWriter.Close")
	}
	path := s.f.Name()
	if err := s.f.Close(); err != nil {
		return "", gberrors.Wrap(gberrors.IO, err, "merge.spillWriter.Close")
	}
	return path, nil
}

// readSpillFile reads back every Row a spillWriter wrote to path, in the
// order written.
func readSpillFile(path string) ([]aggregate.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gberrors.Wrap(gberrors.IO, err, "merge.readSpillFile")
	}
	var rows []aggregate.Row
	for off := 0; off < len(data); {
		if off+4 > len(data) {
			return nil, gberrors.New(gberrors.Data, "merge.readSpillFile: truncated length prefix")
		}
		n := int(binary.LittleEndian.Uint32(data[off : off+4]))
		off += 4
		if off+n > len(data) {
			return nil, gberrors.New(gberrors.Data, "merge.readSpillFile: truncated record")
		}
		raw, derr := snappy.Decode(nil, data[off:off+n])
		if derr != nil {
			return nil, gberrors.Wrap(gberrors.Data, derr, "merge.readSpillFile: snappy decode")
		}
		rows = append(rows, decodeRow(raw))
		off += n
	}
	return rows, nil
}

// spillAndReload writes rows (pre-sorted by Start) to a snappy-compressed
// temp file under dir and reads them back, exercising the spill path end
// to end for buffers over DefaultSpillBatchSize without requiring a full
// external merge-sort: at this pipeline's scale (rows per alpha bucket
// into the thousands, not the billions cmd/bio-bam-sort's SAM records
// reach) a single sorted spill file is sufficient to bound peak memory.
func spillAndReload(dir string, rows []aggregate.Row) ([]aggregate.Row, error) {
	sorted := make([]aggregate.Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	w, err := newSpillWriter(dir)
	if err != nil {
		return nil, err
	}
	for _, r := range sorted {
		if err := w.Append(r); err != nil {
			return nil, err
		}
	}
	path, err := w.Close()
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)
	return readSpillFile(path)
}

// MergeAlphaLarge behaves like MergeAlpha but spills rows through a
// snappy-compressed temp file first when the buffer exceeds
// DefaultSpillBatchSize, matching cmd/bio-bam-sort/sorter's batch-size
// spill trigger.
func MergeAlphaLarge(dir string, rows []aggregate.Row) (Result, error) {
	if len(rows) <= DefaultSpillBatchSize {
		return MergeAlpha(rows)
	}
	reloaded, err := spillAndReload(dir, rows)
	if err != nil {
		return Result{}, err
	}
	return MergeAlpha(reloaded)
}
