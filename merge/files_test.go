package merge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
)

func writeSummaryChunk(t *testing.T, ctx context.Context, dir, name string, rows []aggregate.Row) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := gbcsv.OpenSummaryWriter(ctx, path, gbcsv.ModelEmpirical, gbcsv.VariantFull, false, false)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r))
	}
	require.NoError(t, w.Close())
	return path
}

func TestMergeFilesFansOutAcrossAlphas(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	pathA1 := writeSummaryChunk(t, ctx, dir, "a1.csv", []aggregate.Row{rowRange(1, 100, 1.0)})
	pathA2 := writeSummaryChunk(t, ctx, dir, "a2.csv", []aggregate.Row{rowRange(101, 200, 1.0)})
	pathB1 := writeSummaryChunk(t, ctx, dir, "b1.csv", []aggregate.Row{rowRange(1, 50, 2.0)})

	results, err := MergeFiles(ctx, []AlphaFiles{
		{Alpha: 0.1, Paths: []string{pathA1, pathA2}},
		{Alpha: 0.5, Paths: []string{pathB1}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 0.1, results[0].Alpha)
	require.Len(t, results[0].Result.Rows, 1)
	require.Equal(t, uint64(200), results[0].Result.Rows[0].Last)
	require.Equal(t, 0.5, results[1].Alpha)
	require.Len(t, results[1].Result.Rows, 1)
}

func TestMergeCPSFilesFansOutAcrossAlphas(t *testing.T) {
	ctx := context.Background()
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	path := filepath.Join(dir, "cps.csv")
	w, err := gbcsv.OpenCPSWriter(ctx, path, false, false)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(gbcsv.CPSRow{First: 1, Last: 100, Alpha: 0.5, PreMertens: 5}))
	require.NoError(t, w.WriteRow(gbcsv.CPSRow{First: 101, Last: 200, Alpha: 0.5, Mertens: 7}))
	require.NoError(t, w.Close())

	rows, gaps, err := MergeCPSFiles(ctx, []AlphaFiles{{Alpha: 0.5, Paths: []string{path}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, gaps[0])
	require.Equal(t, uint64(1), rows[0].First)
	require.Equal(t, uint64(200), rows[0].Last)
}
