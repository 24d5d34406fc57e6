package merge

import (
	"context"
	"sort"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
)

// AlphaResult pairs one alpha with its merge Result.
type AlphaResult struct {
	Alpha  float64
	Result Result
}

// AlphaFiles is one alpha's set of per-chunk summary CSV paths, the shape
// the driver's -=ALPHA=- path template naturally groups files into: one
// summary file per (alpha, chunk), never mixing alphas within a file.
type AlphaFiles struct {
	Alpha float64
	Paths []string
}

// MergeFiles reads every AlphaFiles group's summary CSVs and merges each
// alpha's combined rows concurrently via traverse.Each, the same
// per-shard-independent-work fan-out encoding/converter/convert.go uses
// to convert BAM shards in parallel. Per-alpha merges share no state, so
// the concurrency is embarrassingly parallel.
func MergeFiles(ctx context.Context, groups []AlphaFiles) ([]AlphaResult, error) {
	sorted := make([]AlphaFiles, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Alpha < sorted[j].Alpha })

	results := make([]AlphaResult, len(sorted))
	err := traverse.Each(len(sorted), func(i int) error {
		var rows []aggregate.Row
		for _, path := range sorted[i].Paths {
			chunk, _, _, err := gbcsv.ReadSummaryRows(ctx, path)
			if err != nil {
				return err
			}
			rows = append(rows, chunk...)
		}
		res, err := MergeAlpha(rows)
		if err != nil {
			return err
		}
		results[i] = AlphaResult{Alpha: sorted[i].Alpha, Result: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MergeRowsByAlpha groups rows already resident in memory by their
// caller-supplied alpha (aggregate.Row itself carries no Alpha field --
// each WindowState tracks its own alpha out of band) and merges every
// alpha's rows concurrently via traverse.Each.
func MergeRowsByAlpha(grouped map[float64][]aggregate.Row) ([]AlphaResult, error) {
	alphas := make([]float64, 0, len(grouped))
	for a := range grouped {
		alphas = append(alphas, a)
	}
	sort.Float64s(alphas)

	results := make([]AlphaResult, len(alphas))
	err := traverse.Each(len(alphas), func(i int) error {
		res, err := MergeAlpha(grouped[alphas[i]])
		if err != nil {
			return err
		}
		results[i] = AlphaResult{Alpha: alphas[i], Result: res}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MergeCPSFiles reads every AlphaFiles group's CPS CSVs and merges each
// alpha's combined rows concurrently via traverse.Each.
func MergeCPSFiles(ctx context.Context, groups []AlphaFiles) ([]gbcsv.CPSRow, [][]string, error) {
	sorted := make([]AlphaFiles, len(groups))
	copy(sorted, groups)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Alpha < sorted[j].Alpha })

	rowsOut := make([]gbcsv.CPSRow, len(sorted))
	gapsOut := make([][]string, len(sorted))
	err := traverse.Each(len(sorted), func(i int) error {
		var rows []gbcsv.CPSRow
		for _, path := range sorted[i].Paths {
			chunk, err := gbcsv.ReadCPSRows(ctx, path)
			if err != nil {
				return err
			}
			rows = append(rows, chunk...)
		}
		merged, gaps, err := MergeCPSAlpha(rows)
		if err != nil {
			return err
		}
		rowsOut[i], gapsOut[i] = merged, gaps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return rowsOut, gapsOut, nil
}
