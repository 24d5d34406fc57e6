package main_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/gosh"
)

// TestSieveSummaryCertifyRoundTrip builds the gbsieve-sieve, gbsieve-summary,
// and gbsieve-certify binaries and shells out to them in sequence, mirroring
// cmd/bio-pamtool/checksum_test.go's build-then-pipe-through-subcommands
// shape: sieve a small range, summarize it at one alpha, then certify the
// bitmap, the raw prime stream, and the decade-trace summary CSV all
// independently.
func TestSieveSummaryCertifyRoundTrip(t *testing.T) {
	sh := gosh.NewShell(nil)
	defer sh.Cleanup()

	sievePath := sh.BuildGoPkg("github.com/grailbio/gbsieve/cmd/gbsieve-sieve")
	summaryPath := sh.BuildGoPkg("github.com/grailbio/gbsieve/cmd/gbsieve-summary")
	certifyPath := sh.BuildGoPkg("github.com/grailbio/gbsieve/cmd/gbsieve-certify")
	require.NoError(t, sh.Err)

	dir := sh.MakeTempDir()
	bitmapOut := filepath.Join(dir, "test.bitmap")
	rawOut := filepath.Join(dir, "test.raw")
	decOut := filepath.Join(dir, "decade-=ALPHA=--=FORMAT=-.csv")
	summaryOut := filepath.Join(dir, "decade0.5norm.csv")

	sh.Cmd(sievePath, "--limit=4000", "--bitmap-out="+bitmapOut, "--raw-out="+rawOut).Run()
	require.NoError(t, sh.Err)

	sh.Cmd(summaryPath, "--alpha=0.5", "--n-end=2000", "--trace=decade", "--dec-out="+decOut, rawOut).Run()
	require.NoError(t, sh.Err)

	bitmapMsg := sh.Cmd(certifyPath, "--kind=bitmap", "--limit=4000", bitmapOut).Stdout()
	assert.Contains(t, bitmapMsg, "OK:")

	streamMsg := sh.Cmd(certifyPath, "--kind=stream", "--limit=4000", rawOut).Stdout()
	assert.Contains(t, streamMsg, "OK:")

	summaryMsg := sh.Cmd(certifyPath, "--kind=summary", "--alpha=0.5", "--raw="+rawOut, summaryOut).Stdout()
	assert.Contains(t, summaryMsg, "OK:")
}
