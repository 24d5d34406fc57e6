package certify

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func writeRawFile(t *testing.T, limit uint64) string {
	t.Helper()
	bm, err := sieve.Sieve(limit, 0)
	require.NoError(t, err)
	dir, cleanup := testutil.TempDir(t, "", "")
	t.Cleanup(cleanup)
	path := filepath.Join(dir, "test.raw")
	_, err = primestore.Write(context.Background(), path, bm, false)
	require.NoError(t, err)
	return path
}

func TestStreamCertifiesMatchingFile(t *testing.T) {
	path := writeRawFile(t, 10000)
	msg, err := Stream(context.Background(), path, 10000)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}

func TestStreamDetectsTamperedValue(t *testing.T) {
	path := writeRawFile(t, 10000)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Corrupt the third prime (index 2, value 5) to a non-prime value.
	binary.LittleEndian.PutUint64(data[16:24], 9999)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Stream(context.Background(), path, 10000)
	require.Error(t, err)
}

func TestStreamDetectsWrongLeadingValue(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "bad.raw")
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], 3)
	binary.LittleEndian.PutUint64(buf[8:16], 5)
	require.NoError(t, os.WriteFile(path, buf[:], 0644))

	_, err := Stream(context.Background(), path, 100)
	require.Error(t, err)
}

func TestStreamDetectsMissingTrailingPrimes(t *testing.T) {
	path := writeRawFile(t, 10000)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-8], 0644))

	_, err = Stream(context.Background(), path, 10000)
	require.Error(t, err)
}
