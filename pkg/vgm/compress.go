package vgm

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Method names a whole-file compression wrapper
type Method string

const (
	MethodGzip Method = "gzip"
	MethodZlib Method = "zlib"
)

// IsGzip reports whether data starts with the gzip member header
func IsGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}

// Decompress unwraps gzip (.vgz) or zlib (.fur) data, trying gzip first
func Decompress(data []byte) ([]byte, Method, error) {
	for _, m := range []Method{MethodGzip, MethodZlib} {
		if out, err := decompress(data, m); err == nil {
			return out, m, nil
		}
	}
	return nil, "", ErrUnknownCompression
}

func decompress(data []byte, m Method) ([]byte, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch m {
	case MethodGzip:
		rc, err = gzip.NewReader(bytes.NewReader(data))
	case MethodZlib:
		rc, err = zlib.NewReader(bytes.NewReader(data))
	default:
		return nil, ErrUnknownCompression
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
