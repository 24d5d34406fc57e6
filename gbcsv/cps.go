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

// CPSRow is one row of a CPS CSV (spec.md section 6 format 5). The
// n_5precent field name preserves the historical misspelling verbatim, per
// the documented compatibility requirement.
type CPSRow struct {
	First, Last       uint64
	Alpha             float64
	PreMertens        float64
	Mertens           float64
	DeltaMertens      float64
	N5Precent         uint64
	NzeroStat         float64
	EtaStat           float64
	MertensAsymp      float64
	DeltaMertensAsymp float64
	NzeroStatAsymp    float64
	EtaStatAsymp      float64
}

var cpsHeader = []string{
	"FIRST", "LAST", "Alpha", "PreMertens", "Mertens", "DeltaMertens",
	"n_5precent", "NzeroStat", "EtaStat",
	"MertensAsymp", "DeltaMertensAsymp", "NzeroStatAsymp", "EtaStatAsymp",
}

// CPSWriter writes a CPS CSV, line-buffered via gbio.CreateWriter.
type CPSWriter struct {
	wc interface{ Close() error }
	w  *csv.Writer
}

// OpenCPSWriter creates path and writes the header unless appendMode is set.
func OpenCPSWriter(ctx context.Context, path string, gzipped, appendMode bool) (*CPSWriter, error) {
	wc, err := gbio.CreateWriter(ctx, path, gzipped)
	if err != nil {
		return nil, err
	}
	cw := csv.NewWriter(wc)
	if !appendMode {
		if err := cw.Write(cpsHeader); err != nil {
			return nil, gberrors.Wrap(gberrors.IO, err, "gbcsv.OpenCPSWriter")
		}
		cw.Flush()
	}
	return &CPSWriter{wc: wc, w: cw}, nil
}

// WriteRow appends one CPS row, flushing immediately.
func (c *CPSWriter) WriteRow(row CPSRow) error {
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }
	f := formatFloat
	rec := []string{
		u(row.First), u(row.Last), f(row.Alpha), f(row.PreMertens), f(row.Mertens), f(row.DeltaMertens),
		u(row.N5Precent), f(row.NzeroStat), f(row.EtaStat),
		f(row.MertensAsymp), f(row.DeltaMertensAsymp), f(row.NzeroStatAsymp), f(row.EtaStatAsymp),
	}
	if err := c.w.Write(rec); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbcsv.CPSWriter.WriteRow")
	}
	c.w.Flush()
	return c.w.Error()
}

// Close flushes and releases the underlying file handle.
func (c *CPSWriter) Close() error {
	c.w.Flush()
	return c.wc.Close()
}

// ReadCPSRows parses a CPS CSV.
func ReadCPSRows(ctx context.Context, path string) ([]CPSRow, error) {
	bv, err := gbio.OpenBytes(ctx, path)
	if err != nil {
		return nil, err
	}
	defer bv.Close()

	r := csv.NewReader(bytes.NewReader(bv.Bytes()))
	header, err := r.Read()
	if err != nil {
		return nil, gberrors.Wrap(gberrors.Data, err, "gbcsv.ReadCPSRows: header")
	}
	if !stringsEqual(header, cpsHeader) {
		return nil, gberrors.New(gberrors.Data, "gbcsv.ReadCPSRows: unexpected header %v", header)
	}

	var rows []CPSRow
	for {
		rec, rerr := r.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, gberrors.Wrap(gberrors.Data, rerr, "gbcsv.ReadCPSRows: row")
		}
		if len(rec) != len(cpsHeader) {
			return nil, gberrors.New(gberrors.Data, "gbcsv.ReadCPSRows: row has %d fields, want %d", len(rec), len(cpsHeader))
		}
		var row CPSRow
		if row.First, err = parseU64(rec[0], "FIRST"); err != nil {
			return nil, err
		}
		if row.Last, err = parseU64(rec[1], "LAST"); err != nil {
			return nil, err
		}
		if row.Alpha, err = parseF64(rec[2], "Alpha"); err != nil {
			return nil, err
		}
		if row.PreMertens, err = parseF64(rec[3], "PreMertens"); err != nil {
			return nil, err
		}
		if row.Mertens, err = parseF64(rec[4], "Mertens"); err != nil {
			return nil, err
		}
		if row.DeltaMertens, err = parseF64(rec[5], "DeltaMertens"); err != nil {
			return nil, err
		}
		if row.N5Precent, err = parseU64(rec[6], "n_5precent"); err != nil {
			return nil, err
		}
		if row.NzeroStat, err = parseF64(rec[7], "NzeroStat"); err != nil {
			return nil, err
		}
		if row.EtaStat, err = parseF64(rec[8], "EtaStat"); err != nil {
			return nil, err
		}
		if row.MertensAsymp, err = parseF64(rec[9], "MertensAsymp"); err != nil {
			return nil, err
		}
		if row.DeltaMertensAsymp, err = parseF64(rec[10], "DeltaMertensAsymp"); err != nil {
			return nil, err
		}
		if row.NzeroStatAsymp, err = parseF64(rec[11], "NzeroStatAsymp"); err != nil {
			return nil, err
		}
		if row.EtaStatAsymp, err = parseF64(rec[12], "EtaStatAsymp"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
