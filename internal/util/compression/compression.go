// Package compression provides the codecs used to encode stored records.
package compression

import (
	"bytes"
	"errors"
	"fmt"
)

// MaxRecordSize bounds the decompressed size of a single record.
const MaxRecordSize = 64 << 20

var ErrTooLarge = errors.New("decompressed record exceeds size limit")

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// NoopCompressor stores data as is.
type NoopCompressor struct{}

func (NoopCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (NoopCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Detect returns the codec that produced data, judged by its frame magic.
// Data without a known magic is taken to be uncompressed.
func Detect(data []byte) Compressor {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return ZstdCompressor{}
	case bytes.HasPrefix(data, gzipMagic):
		return GzipCompressor{}
	default:
		return NoopCompressor{}
	}
}

// Decompress decodes data with whichever codec wrote it, so records stay
// readable after the configured compression changes.
func Decompress(data []byte) ([]byte, error) {
	return Detect(data).Decompress(data)
}

// ByName resolves the storage.compression config value.
func ByName(name string) (Compressor, error) {
	switch name {
	case "", "zstd":
		return ZstdCompressor{}, nil
	case "gzip":
		return GzipCompressor{}, nil
	case "none":
		return NoopCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}
