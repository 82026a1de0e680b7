package vgm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Song is a loaded VGM image
type Song struct {
	Header Header
	data   []byte
}

// Load reads a VGM image from r, gunzipping .vgz data transparently
func Load(r io.Reader) (*Song, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read VGM data: %w", err)
	}
	if IsGzip(data) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer func() { _ = zr.Close() }()
		data, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress VGZ data: %w", err)
		}
	}
	return Parse(data)
}

// Parse validates the header of an uncompressed VGM image
func Parse(data []byte) (*Song, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	return &Song{Header: h, data: data}, nil
}

// TotalSamples returns the song length in 44.1 kHz samples
func (s *Song) TotalSamples() int {
	return int(s.Header.SampleCount)
}

// Commands decodes the whole command stream
func (s *Song) Commands() ([]Command, error) {
	r := NewReader(s)
	var cmds []Command
	for {
		cmd, err := r.Next()
		if errors.Is(err, io.EOF) {
			return cmds, nil
		}
		if err != nil {
			return cmds, err
		}
		cmds = append(cmds, cmd)
	}
}

// DataBlocks returns the 0x67 blocks of the stream, in order
func (s *Song) DataBlocks() ([]DataBlock, error) {
	cmds, err := s.Commands()
	if err != nil {
		return nil, err
	}
	var blocks []DataBlock
	for _, c := range cmds {
		if b, ok := c.Block(); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}
