// Package vgm reads VGM sound logs: the fixed header, the command stream
// and the embedded data blocks
package vgm

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VGM timing constants
const (
	SampleRate   = 44100 // VGM wait unit is one sample at 44.1 kHz
	NTSCWait     = 735   // 0x62 shorthand, 1/60 s
	PALWait      = 882   // 0x63 shorthand, 1/50 s
	HeaderSize   = 0x40
	dataOffsetAt = 0x34
)

// Magic is the VGM file identifier
var Magic = [4]byte{'V', 'g', 'm', ' '}

// Header is the fixed 64-byte prefix of a VGM file.
// Only the fields used by the Genesis chip pair are decoded by name;
// clocks of other chips live past 0x40 and are ignored.
type Header struct {
	Ident             [4]byte
	EOFOffset         uint32
	Version           uint32
	ClockSN76489      uint32
	ClockYM2413       uint32
	OffsetGD3         uint32
	SampleCount       uint32
	LoopOffset        uint32
	LoopSampleCount   uint32
	Rate              uint32
	FeedbackSN76489   uint16
	ShiftWidthSN76489 uint8
	FlagsSN76489      uint8
	ClockYM2612       uint32
	ClockYM2151       uint32
	DataOffset        uint32
	_                 [8]byte
}

// ReadHeader decodes the header at the start of data
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < len(Magic) || !bytes.Equal(data[:4], Magic[:]) {
		n := min(len(data), 4)
		return h, &BadFileError{Preamble: append([]byte(nil), data[:n]...)}
	}
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("failed to read VGM header: %w", err)
	}
	return h, nil
}

// DataStart returns the absolute offset of the first command.
// The stored offset is relative to 0x34; zero means the 1.00 layout.
func (h Header) DataStart() int {
	if h.DataOffset == 0 {
		return HeaderSize
	}
	return dataOffsetAt + int(h.DataOffset)
}

// YM2612Clock returns the YM2612 clock; before 1.10 it shared the YM2413 slot
func (h Header) YM2612Clock() uint32 {
	if h.Version < 0x110 {
		return h.ClockYM2413
	}
	return h.ClockYM2612
}

// VersionString formats the BCD version field as "1.71"
func (h Header) VersionString() string {
	return fmt.Sprintf("%x.%02x", h.Version>>8, h.Version&0xFF)
}
