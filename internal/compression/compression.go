// Package compression implements the out-of-scope Compression contract
// from spec §6: an enum with extension-based detection and wrap/unwrap of
// a byte stream. It exists only so in-scope components (the multi-file
// reader's per-file pipe factories) have something concrete to compose
// with; it is not part of the core pipe/shuffle/window/schedule subsystem.
package compression

import (
	"compress/gzip"
	"io"
	"strings"

	kzstd "github.com/klauspost/compress/zstd"

	"github.com/flowshard/core/pipeerr"
)

type Kind int

const (
	NONE Kind = iota
	GZIP
	ZSTD
	LZ4
)

// Detect maps a filename's suffix to a Compression kind: .gz -> GZIP,
// .zst -> ZSTD, .lz4 -> LZ4, anything else -> NONE.
func Detect(filename string) Kind {
	switch {
	case strings.HasSuffix(filename, ".gz"):
		return GZIP
	case strings.HasSuffix(filename, ".zst"):
		return ZSTD
	case strings.HasSuffix(filename, ".lz4"):
		return LZ4
	default:
		return NONE
	}
}

// WithExtension appends the kind's canonical extension to name; NONE
// leaves name unchanged.
func WithExtension(name string, k Kind) string {
	switch k {
	case GZIP:
		return name + ".gz"
	case ZSTD:
		return name + ".zst"
	case LZ4:
		return name + ".lz4"
	default:
		return name
	}
}

// WrapReader decompresses r according to k. compress/gzip's reader is used
// for GZIP since it's a drop-in for the stdlib-covered format; ZSTD uses
// klauspost/compress since the stdlib has no zstd support at all. LZ4 has
// no decoder wired: no LZ4 library was present anywhere in the retrieval
// pack to ground an implementation on, so it returns an error rather than
// fabricating a dependency.
func WrapReader(r io.Reader, k Kind) (io.ReadCloser, error) {
	switch k {
	case NONE:
		return io.NopCloser(r), nil
	case GZIP:
		return gzip.NewReader(r)
	case ZSTD:
		dec, err := kzstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return nil, pipeerr.New(pipeerr.Validation, "lz4 decompression unavailable: no lz4 library in the dependency surface")
	default:
		return nil, pipeerr.New(pipeerr.Validation, "unknown compression kind")
	}
}

// WrapWriter compresses writes to w according to k. Callers must Close the
// returned writer to flush trailing compressed bytes.
func WrapWriter(w io.Writer, k Kind) (io.WriteCloser, error) {
	switch k {
	case NONE:
		return nopWriteCloser{w}, nil
	case GZIP:
		return gzip.NewWriter(w), nil
	case ZSTD:
		return kzstd.NewWriter(w)
	case LZ4:
		return nil, pipeerr.New(pipeerr.Validation, "lz4 compression unavailable: no lz4 library in the dependency surface")
	default:
		return nil, pipeerr.New(pipeerr.Validation, "unknown compression kind")
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
