package certify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/bucket"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/pair"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func buildSummaryRows(t *testing.T, alpha float64, hlMode bool) ([]aggregate.Row, *primestore.Stream) {
	t.Helper()
	return buildSummaryRowsWithConfig(t, alpha, aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, HLMode: hlMode})
}

func buildSummaryRowsWithConfig(t *testing.T, alpha float64, cfg aggregate.Config) ([]aggregate.Row, *primestore.Stream) {
	t.Helper()
	bm, err := sieve.Sieve(20000, 0)
	require.NoError(t, err)
	stream := primestore.FromBitmap(bm)
	cursor := pair.NewCursor(stream)
	ws := aggregate.NewWindowState(alpha, bucket.NewDecadeSchedule(), bucket.NewDecadeSchedule(), stream)

	var rows []aggregate.Row
	for n := uint64(4); n <= 2000; n++ {
		got, err := ws.Update(n, cursor, stream, bm.IsPrime, cfg)
		require.NoError(t, err)
		rows = append(rows, got...)
	}
	require.NotEmpty(t, rows)
	return rows, stream
}

func writeSummary(t *testing.T, rows []aggregate.Row, model gbcsv.Model) string {
	t.Helper()
	dir, cleanup := testutil.TempDir(t, "", "")
	t.Cleanup(cleanup)
	path := filepath.Join(dir, "summary.csv")
	w, err := gbcsv.OpenSummaryWriter(context.Background(), path, model, gbcsv.VariantFull, false, false)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, w.WriteRow(r))
	}
	require.NoError(t, w.Close())
	return path
}

func TestSummaryCertifiesEmpiricalRows(t *testing.T) {
	rows, stream := buildSummaryRows(t, 0.1, false)
	path := writeSummary(t, rows, gbcsv.ModelEmpirical)

	cfg := aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, HLMode: false}
	msg, err := Summary(context.Background(), path, 0.1, stream, cfg, 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}

func TestSummaryCertifiesHLARowsWithinTolerance(t *testing.T) {
	rows, stream := buildSummaryRows(t, 0.1, true)
	path := writeSummary(t, rows, gbcsv.ModelHLA)

	cfg := aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, HLMode: true}
	msg, err := Summary(context.Background(), path, 0.1, stream, cfg, 0.5)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}

func TestSummaryCertifiesIncludeTrivialRows(t *testing.T) {
	cfg := aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, IncludeTrivial: true}
	rows, stream := buildSummaryRowsWithConfig(t, 0.1, cfg)
	path := writeSummary(t, rows, gbcsv.ModelEmpirical)

	msg, err := Summary(context.Background(), path, 0.1, stream, cfg, 0)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}

func TestSummaryDetectsTamperedCMin(t *testing.T) {
	rows, stream := buildSummaryRows(t, 0.1, false)
	rows[0].CpredMin += 1000
	path := writeSummary(t, rows, gbcsv.ModelEmpirical)

	cfg := aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, HLMode: false}
	_, err := Summary(context.Background(), path, 0.1, stream, cfg, 0)
	require.Error(t, err)
}
