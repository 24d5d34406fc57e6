// Command gbsieve-merge runs C8: it merges per-chunk summary or CPS CSVs
// for one alpha into contiguous output rows, detecting overlaps (fatal)
// and gaps (reported but non-fatal).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/merge"
)

var (
	cps     = flag.Bool("cps", false, "merge CPS CSVs instead of summary CSVs")
	outPath = flag.String("out", "", "output path for the merged CSV (required)")
	gzipped = flag.Bool("gzip", false, "gzip-frame the output file")
)

func mergeSummary(ctx context.Context, paths []string) error {
	var rows []aggregate.Row
	var model gbcsv.Model
	var variant gbcsv.Variant
	for i, path := range paths {
		chunk, m, v, err := gbcsv.ReadSummaryRows(ctx, path)
		if err != nil {
			return err
		}
		if i == 0 {
			model, variant = m, v
		}
		rows = append(rows, chunk...)
	}

	result, err := merge.MergeAlpha(rows)
	if err != nil {
		return err
	}
	for _, gap := range result.Gaps {
		log.Printf("gbsieve-merge: %s", gap)
	}

	w, err := gbcsv.OpenSummaryWriter(ctx, *outPath, model, variant, *gzipped, false)
	if err != nil {
		return err
	}
	for _, row := range result.Rows {
		if err := w.WriteRow(row); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Printf("gbsieve-merge: merged %d input rows into %d output rows (%d gaps) -> %s",
		len(rows), len(result.Rows), len(result.Gaps), *outPath)
	return nil
}

func mergeCPS(ctx context.Context, paths []string) error {
	var rows []gbcsv.CPSRow
	for _, path := range paths {
		chunk, err := gbcsv.ReadCPSRows(ctx, path)
		if err != nil {
			return err
		}
		rows = append(rows, chunk...)
	}

	merged, gaps, err := merge.MergeCPSAlpha(rows)
	if err != nil {
		return err
	}
	for _, gap := range gaps {
		log.Printf("gbsieve-merge: %s", gap)
	}

	w, err := gbcsv.OpenCPSWriter(ctx, *outPath, *gzipped, false)
	if err != nil {
		return err
	}
	if err := w.WriteRow(merged); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Printf("gbsieve-merge: merged %d CPS rows (%d gaps) -> %s", len(rows), len(gaps), *outPath)
	return nil
}

func run() error {
	flag.Parse()
	if flag.NArg() == 0 {
		return gberrors.New(gberrors.Argument, "gbsieve-merge takes one or more input CSV paths")
	}
	if *outPath == "" {
		return gberrors.New(gberrors.Argument, "--out is required")
	}

	ctx := vcontext.Background()
	if *cps {
		return mergeCPS(ctx, flag.Args())
	}
	return mergeSummary(ctx, flag.Args())
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gbsieve-merge: %s\n", err)
		os.Exit(gberrors.KindOf(err).ExitCode())
	}
}
