// Package gbio provides the scoped, read-only byte and uint64 views that
// the sieve, prime store, and certifier share over files read into memory.
//
// Mirrors the scoped-acquisition contract of github.com/grailbio/base/file
// (Open/Create return a handle that must be Close()'d on every exit path)
// while adding a typed view over the raw bytes, per the "model mmap as a
// scoped acquisition of a read-only byte region" design note.
package gbio

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/gbsieve/gberrors"
)

// ByteView is a read-only view over a file's contents, acquired once and
// held for the lifetime of a single analysis pass. The bytes are an
// in-memory copy of the whole file (decompressed for gzip paths), for local
// and remote (e.g. s3://) paths alike.
type ByteView struct {
	f    file.File
	data []byte
	ctx  context.Context
}

// OpenBytes opens path and reads its entire contents into a ByteView. The
// caller must call Close when done; Close releases the underlying file
// handle on every exit path.
func OpenBytes(ctx context.Context, path string) (*ByteView, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, gberrors.Wrap(gberrors.IO, errors.Wrapf(err, "open %s", path), "gbio.OpenBytes")
	}
	r := f.Reader(ctx)
	if isGzipPath(path) {
		gr, gzErr := gzip.NewReader(r)
		if gzErr != nil {
			f.Close(ctx)
			return nil, gberrors.Wrap(gberrors.IO, errors.Wrapf(gzErr, "gzip %s", path), "gbio.OpenBytes")
		}
		defer gr.Close()
		r = gr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		f.Close(ctx)
		return nil, gberrors.Wrap(gberrors.IO, errors.Wrapf(err, "read %s", path), "gbio.OpenBytes")
	}
	return &ByteView{f: f, data: data, ctx: ctx}, nil
}

// Bytes returns the underlying byte slice. It is valid only until Close.
func (v *ByteView) Bytes() []byte { return v.data }

// Close releases the view's underlying file handle. Safe to call once.
func (v *ByteView) Close() error {
	if v.f == nil {
		return nil
	}
	err := v.f.Close(v.ctx)
	v.f = nil
	v.data = nil
	if err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbio.ByteView.Close")
	}
	return nil
}

// Uint64View is a read-only view over a little-endian uint64 stream (the
// wire format of *.raw prime-stream files). It decodes lazily, element by
// element, from the underlying byte slice rather than reinterpreting the
// slice in place, so it works identically regardless of host endianness.
type Uint64View struct {
	bytes *ByteView
}

// OpenUint64s opens path as a *.raw-formatted little-endian uint64 stream.
func OpenUint64s(ctx context.Context, path string) (*Uint64View, error) {
	bv, err := OpenBytes(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(bv.Bytes())%8 != 0 {
		bv.Close()
		return nil, gberrors.New(gberrors.Data, "%s: length %d is not a multiple of 8", path, len(bv.Bytes()))
	}
	return &Uint64View{bytes: bv}, nil
}

// Len returns the number of uint64 elements in the view.
func (v *Uint64View) Len() int { return len(v.bytes.data) / 8 }

// At returns the i'th element, panicking if i is out of bounds (an
// out-of-bounds index here is always a programming error within the
// package, never a condition that can arise from untrusted input).
func (v *Uint64View) At(i int) uint64 {
	off := i * 8
	return binary.LittleEndian.Uint64(v.bytes.data[off : off+8])
}

// Close releases the underlying byte view.
func (v *Uint64View) Close() error { return v.bytes.Close() }

// CreateWriter opens path for writing, optionally gzip-framed when gzipped
// is true or the path carries a .gz suffix. The returned writer is
// line-buffered at the bufio layer the caller wraps it with, so a crashed
// process leaves a well-formed prefix, per the synchronous-I/O resource
// model.
func CreateWriter(ctx context.Context, path string, gzipped bool) (io.WriteCloser, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, gberrors.Wrap(gberrors.IO, errors.Wrapf(err, "create %s", path), "gbio.CreateWriter")
	}
	w := f.Writer(ctx)
	if gzipped || isGzipPath(path) {
		return &gzipFileWriter{gz: gzip.NewWriter(w), f: f, ctx: ctx}, nil
	}
	return &fileWriter{w: w, f: f, ctx: ctx}, nil
}

type fileWriter struct {
	w   io.Writer
	f   file.File
	ctx context.Context
}

func (fw *fileWriter) Write(p []byte) (int, error) { return fw.w.Write(p) }

func (fw *fileWriter) Close() error {
	if err := fw.f.Close(fw.ctx); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbio.fileWriter.Close")
	}
	return nil
}

type gzipFileWriter struct {
	gz  *gzip.Writer
	f   file.File
	ctx context.Context
}

func (gw *gzipFileWriter) Write(p []byte) (int, error) { return gw.gz.Write(p) }

func (gw *gzipFileWriter) Close() error {
	if err := gw.gz.Close(); err != nil {
		gw.f.Close(gw.ctx)
		return gberrors.Wrap(gberrors.IO, err, "gbio.gzipFileWriter.Close")
	}
	if err := gw.f.Close(gw.ctx); err != nil {
		return gberrors.Wrap(gberrors.IO, err, "gbio.gzipFileWriter.Close")
	}
	return nil
}

func isGzipPath(path string) bool {
	n := len(path)
	return n > 3 && path[n-3:] == ".gz"
}
