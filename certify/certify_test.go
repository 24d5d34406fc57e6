package certify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/gbsieve/sieve"
)

func writeBitmapFile(t *testing.T, limit uint64) string {
	t.Helper()
	bm, err := sieve.Sieve(limit, 0)
	require.NoError(t, err)
	dir, cleanup := testutil.TempDir(t, "", "")
	t.Cleanup(cleanup)
	path := filepath.Join(dir, "test.bitmap")
	require.NoError(t, os.WriteFile(path, bm.Bytes(), 0644))
	return path
}

func TestBitmapCertifiesMatchingFile(t *testing.T) {
	path := writeBitmapFile(t, 10000)
	msg, err := Bitmap(context.Background(), path, 10000, 4096, 4)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}

func TestBitmapDetectsCorruption(t *testing.T) {
	bm, err := sieve.Sieve(10000, 0)
	require.NoError(t, err)
	data := make([]byte, len(bm.Bytes()))
	copy(data, bm.Bytes())
	data[0] ^= 0xFF // corrupt the first byte: flips primality of 3,5,7,9,11,13,15,17
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "corrupt.bitmap")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = Bitmap(context.Background(), path, 10000, 4096, 4)
	require.Error(t, err)
}

func TestBitmapDetectsLengthMismatch(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "short.bitmap")
	require.NoError(t, os.WriteFile(path, []byte{0x01}, 0644))
	_, err := Bitmap(context.Background(), path, 10000, 4096, 4)
	require.Error(t, err)
}

func TestBitmapHandlesEmptyLimit(t *testing.T) {
	path := writeBitmapFile(t, 1)
	msg, err := Bitmap(context.Background(), path, 1, 4096, 1)
	require.NoError(t, err)
	assert.Contains(t, msg, "OK:")
}
