package index

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// The codec is chosen by the destination's extension. Inside the codec
// the byte stream is the same NDJSON either way, so readers and writers
// agree by construction.

func newCodecWriter(f *os.File, path string) (io.WriteCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		return zstd.NewWriter(f)
	case ".gz":
		return gzip.NewWriter(f), nil
	case ".br":
		return brotli.NewWriter(f), nil
	}
	return nil, nil
}

func newCodecReader(f *os.File, path string) (io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case ".gz":
		return gzip.NewReader(f)
	case ".br":
		return io.NopCloser(brotli.NewReader(f)), nil
	}
	return nil, nil
}
