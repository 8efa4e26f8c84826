package decompress

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const payload = `{"items":[{"a":1},{"a":2}]}`

func gzipped(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstded(t *testing.T) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll([]byte(payload), nil)
}

func lz4ed(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decompressed(t *testing.T, data []byte, name, mode string, maxMemory uint64) ([]byte, error) {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), name, mode, maxMemory)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

/*
TestNewReader_AutoDetect verifies each codec is recognised from its magic
bytes alone, and plain input passes through untouched.
*/
func TestNewReader_AutoDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode string
		data []byte
		want string
	}{
		{Gzip, gzipped(t), payload},
		{Zstd, zstded(t), payload},
		{LZ4, lz4ed(t), payload},
		{None, []byte(payload), payload},
		{None, []byte("[]"), "[]"},
	}
	for _, tt := range tests {
		if got := Detect("chunk", tt.data); got != tt.mode {
			t.Errorf("Detect got %q; want %q", got, tt.mode)
		}
		out, err := decompressed(t, tt.data, "chunk", Auto, 0)
		if err != nil {
			t.Fatalf("%s: read error: %v", tt.mode, err)
		}
		if string(out) != tt.want {
			t.Errorf("%s: got %q; want %q", tt.mode, out, tt.want)
		}
	}
}

/*
TestDetect_Extension verifies the file extension wins over content.
*/
func TestDetect_Extension(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]string{
		"a.json.gz":  Gzip,
		"a.JSON.ZST": Zstd,
		"a.lz4":      LZ4,
		"a.json":     None,
	} {
		if got := Detect(name, []byte(payload)); got != want {
			t.Errorf("Detect(%q) got %q; want %q", name, got, want)
		}
	}
}

/*
TestNewReader_ZstdMemoryLimit verifies a zstd frame larger than the memory
cap fails with ErrMemoryLimit instead of being fully allocated.
*/
func TestNewReader_ZstdMemoryLimit(t *testing.T) {
	t.Parallel()

	enc, err := zstd.NewWriter(nil, zstd.WithWindowSize(1<<20))
	if err != nil {
		t.Fatal(err)
	}
	frame := enc.EncodeAll(make([]byte, 4<<20), nil)
	enc.Close()

	if _, err := decompressed(t, frame, "big", Zstd, 64<<10); !errors.Is(err, ErrMemoryLimit) {
		t.Fatalf("got %v; want ErrMemoryLimit", err)
	}
	out, err := decompressed(t, frame, "big", Zstd, 0)
	if err != nil || len(out) != 4<<20 {
		t.Fatalf("unlimited read got %d bytes, %v; want %d", len(out), err, 4<<20)
	}
}

/*
TestNewReader_Errors covers unknown modes and corrupt input.
*/
func TestNewReader_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewReader(bytes.NewReader([]byte(payload)), "x", "brotli", 0); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("got %v; want ErrUnknownCompression", err)
	}
	if _, err := decompressed(t, []byte(payload), "x", Gzip, 0); err == nil {
		t.Fatal("expected gzip error on plain input")
	}
	if !Valid("") || !Valid("GZIP") || Valid("brotli") {
		t.Fatal("Valid gave unexpected result")
	}
}
