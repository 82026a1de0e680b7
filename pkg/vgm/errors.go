package vgm

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrBadMagic           = errors.New("not a VGM file")
	ErrTruncated          = errors.New("truncated VGM data")
	ErrUnknownCompression = errors.New("unknown compressed file format")
)

// BadFileError reports input that does not start with the VGM magic
type BadFileError struct {
	Preamble []byte
}

func (e *BadFileError) Error() string {
	return fmt.Sprintf("not a VGM file; preamble % x", e.Preamble)
}

// Unwrap lets errors.Is match ErrBadMagic
func (e *BadFileError) Unwrap() error {
	return ErrBadMagic
}

// UnknownCommandError reports an opcode with no known argument length
type UnknownCommandError struct {
	Op     byte
	Offset int
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown VGM command 0x%02X at offset 0x%X", e.Op, e.Offset)
}

// InvalidCompParamsError reports a compressed data block whose
// compression type / sub-type pair is not supported
type InvalidCompParamsError struct {
	Index int
	Type  byte
	TT    byte
	ST    byte
}

func (e *InvalidCompParamsError) Error() string {
	return fmt.Sprintf("invalid compression params on block #%d (type 0x%02X): tt=%d, st=%d", e.Index, e.Type, e.TT, e.ST)
}

// NoDictionaryError reports a compressed block that references a
// decompression table no earlier 0x7F block provided
type NoDictionaryError struct {
	Index int
	Type  byte
	TT    byte
	ST    byte
}

func (e *NoDictionaryError) Error() string {
	return fmt.Sprintf("no dictionary for block #%d (type 0x%02X): tt=%d, st=%d", e.Index, e.Type, e.TT, e.ST)
}

// BlockError reports a data block too malformed to decode
type BlockError struct {
	Index  int
	Type   byte
	Reason string
}

func (e *BlockError) Error() string {
	return fmt.Sprintf("bad data block #%d (type 0x%02X): %s", e.Index, e.Type, e.Reason)
}
