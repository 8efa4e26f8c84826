// Package decompress unpacks gzip, zstd and lz4 (frame) input.
package decompress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression modes.
const (
	Auto = "auto"
	None = "none"
	Gzip = "gzip"
	Zstd = "zstd"
	LZ4  = "lz4"
)

var ErrUnknownCompression = errors.New("unknown compression")

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// ErrMemoryLimit is returned by a zstd reader whose frame needs more memory
// than the limit passed to NewReader.
var ErrMemoryLimit = errors.New("decompression memory limit exceeded")

// Modes lists the accepted mode names.
func Modes() []string { return []string{Auto, None, Gzip, Zstd, LZ4} }

// Valid reports whether mode is known. "" means Auto.
func Valid(mode string) bool {
	if mode == "" {
		return true
	}
	for _, m := range Modes() {
		if strings.EqualFold(mode, m) {
			return true
		}
	}
	return false
}

// Detect picks a codec from the file extension of name, then from the
// leading magic bytes of data. It returns None for plain input.
func Detect(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	}
	switch {
	case bytes.HasPrefix(data, magicGzip):
		return Gzip
	case bytes.HasPrefix(data, magicZstd):
		return Zstd
	case bytes.HasPrefix(data, magicLZ4):
		return LZ4
	}
	return None
}

// NewReader returns a reader of the decompressed content of r. Auto resolves
// the codec with Detect, peeking at the first bytes of r. A non-zero
// maxMemory caps the zstd decoder's allocations. Closing the returned reader
// does not close r.
func NewReader(r io.Reader, name, mode string, maxMemory uint64) (io.ReadCloser, error) {
	mode = strings.ToLower(mode)
	if mode == "" || mode == Auto {
		br := bufio.NewReader(r)
		// A short or failing peek leaves the error to the first Read.
		head, _ := br.Peek(len(magicZstd))
		mode = Detect(name, head)
		r = br
	}
	switch mode {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip %s: %w", name, err)
		}
		return zr, nil
	case Zstd:
		opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if maxMemory > 0 {
			opts = append(opts, zstd.WithDecoderMaxMemory(maxMemory))
		}
		d, err := zstd.NewReader(r, opts...)
		if err != nil {
			return nil, fmt.Errorf("zstd %s: %w", name, err)
		}
		return &zstdReader{d: d}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownCompression, mode)
}

type zstdReader struct {
	d *zstd.Decoder
}

func (z *zstdReader) Read(p []byte) (int, error) {
	n, err := z.d.Read(p)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		err = fmt.Errorf("%w: %v", ErrMemoryLimit, err)
	}
	return n, err
}

func (z *zstdReader) Close() error {
	z.d.Close()
	return nil
}
