package gbcsv

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/gbio"
)

// PairRow is one row of a Goldbach-pairs listing (spec.md section 6 format
// 3): 2N = (N-M)+(N+M), 2M = (N+M)-(N-M), both N+-M prime.
type PairRow struct {
	TwoN    uint64
	NMinusM uint64
	NPlusM  uint64
	TwoM    uint64
}

var pairHeader = []string{"2N", "N-M", "N+M", "2M"}

// PairWriter writes a gbpairs-*.csv file, line-buffered via
// gbio.CreateWriter.
type PairWriter struct {
	wc interface{ Close() error }
	w  *csv.Writer
}

// OpenPairWriter creates path and writes the header unless appendMode is
// set.
func OpenPairWriter(ctx context.Context, path string, gzipped, appendMode bool) (*PairWriter, error) {
	wc, err := gbio.CreateWriter(ctx, path, gzipped)
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(wc)
	if !appendMode {
		if err := cw.Write(pairHeader); err != nil {
			return nil, gberrors.Wrap(gberrors.IO, err, "gbcsv.OpenPairWriter")
		}
		cw.Flush()
	}
	return &PairWriter{wc: wc, w: cw}, nil
}

// WriteRow appends one pair row, flushing immediately.
func (p *PairWriter) WriteRow(row PairRow) error {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	if err := p.w.Write([]string{u(row.TwoN), u(row.NMinusM), u(row.NPlusM), u(row.TwoM)}); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbcsv.PairWriter.WriteRow")
	}
	p.w.Flush()
	return p.w.Error()
}

// Close flushes and releases the underlying file handle.
func (p *PairWriter) Close() error {
	p.w.Flush()
	return p.wc.Close()
}

// ReadPairRows parses a gbpairs-*.csv file. It does not itself validate the
// cross-row invariants (strictly-increasing 2N, primality of N+-M), and
// package certify has no pair-list verifier; this is the bare decode.
func ReadPairRows(ctx context.Context, path string) ([]PairRow, error) {
	bv, err := gbio.OpenBytes(ctx, path)
	if err != nil {
		return nil, err
	}
	defer bv.Close()

	r := csv.NewReader(bytes.NewReader(bv.Bytes()))
	header, err := r.Read()
	if err != nil {
		return nil, gberrors.Wrap(gberrors.Data, err, "gbcsv.ReadPairRows: header")
	}
	if !stringsEqual(header, pairHeader) {
		return nil, gberrors.New(gberrors.Data, "gbcsv.ReadPairRows: unexpected header %v", header)
	}

	var rows []PairRow
	for {
		rec, rerr := r.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, gberrors.Wrap(gberrors.Data, rerr, "gbcsv.ReadPairRows: row")
		}
		if len(rec) != 4 {
			return nil, gberrors.New(gberrors.Data, "gbcsv.ReadPairRows: row has %d fields, want 4", len(rec))
		}
		var row PairRow
		if row.TwoN, err = parseU64(rec[0], "2N"); err != nil {
			return nil, err
		}
		if row.NMinusM, err = parseU64(rec[1], "N-M"); err != nil {
			return nil, err
		}
		if row.NPlusM, err = parseU64(rec[2], "N+M"); err != nil {
			return nil, err
		}
		if row.TwoM, err = parseU64(rec[3], "2M"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
