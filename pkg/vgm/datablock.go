package vgm

import (
	"encoding/binary"

	"github.com/james-see/vgm2fur/pkg/bitfield"
)

// Data block type ranges
const (
	BlockYM2612PCM       = 0x00
	blockCompressedFirst = 0x40
	blockCompressedLast  = 0x7E
	BlockDictionary      = 0x7F
)

// Compression types (tt) and sub-types (st) of compressed blocks
const (
	compBitPack = 0
	compDPCM    = 1

	subCopy = 0 // bit-packed, offset added to low bits
	subHigh = 1 // bit-packed, value shifted into the high bits
	subMap  = 2 // dictionary lookup
)

// DataBlock is a typed payload embedded in the command stream
type DataBlock struct {
	Type byte
	Data []byte
}

type dictKey struct{ tt, st byte }

// ResolveBlocks decompresses the compressed blocks (types 0x40-0x7E)
// into their uncompressed types and drops the dictionary blocks (0x7F).
// Blocks that cannot be decoded are reported to warn and skipped.
func ResolveBlocks(blocks []DataBlock, warn func(error)) []DataBlock {
	if warn == nil {
		warn = func(error) {}
	}
	dicts := make(map[dictKey][]int)
	var out []DataBlock
	for n, b := range blocks {
		switch {
		case b.Type >= blockCompressedFirst && b.Type <= blockCompressedLast:
			dec, err := decodeCompressed(n, b, dicts)
			if err != nil {
				warn(err)
				continue
			}
			out = append(out, dec)
		case b.Type == BlockDictionary:
			key, table, err := decodeDictionary(n, b)
			if err != nil {
				warn(err)
				continue
			}
			dicts[key] = table
		default:
			out = append(out, b)
		}
	}
	return out
}

// decodeDictionary reads a 0x7F decompression table
func decodeDictionary(n int, b DataBlock) (dictKey, []int, error) {
	p := b.Data
	if len(p) < 6 {
		return dictKey{}, nil, &BlockError{Index: n, Type: b.Type, Reason: "dictionary header too short"}
	}
	key := dictKey{tt: p[0], st: p[1]}
	bd := int(p[2])
	count := int(binary.LittleEndian.Uint16(p[4:6]))
	size := (bd + 7) / 8
	if size == 0 || 6+count*size > len(p) {
		return dictKey{}, nil, &BlockError{Index: n, Type: b.Type, Reason: "dictionary shorter than its entry count"}
	}
	table := make([]int, count)
	for i := range table {
		table[i] = bitfield.Pack(p[6+i*size : 6+(i+1)*size]...)
	}
	return key, table, nil
}

func decodeCompressed(n int, b DataBlock, dicts map[dictKey][]int) (DataBlock, error) {
	p := b.Data
	if len(p) < 10 {
		return DataBlock{}, &BlockError{Index: n, Type: b.Type, Reason: "compression header too short"}
	}
	tt := p[0]
	bd := uint(p[5])
	bc := uint(p[6])
	st := p[7]
	start := int(binary.LittleEndian.Uint16(p[8:10]))
	enc := p[10:]

	if bc == 0 || bc > 32 || bd > 32 {
		return DataBlock{}, &InvalidCompParamsError{Index: n, Type: b.Type, TT: tt, ST: st}
	}
	values := unpackBits(enc, bc)

	var dec []int
	switch {
	case tt == compBitPack && st == subCopy:
		dec = make([]int, len(values))
		for i, x := range values {
			dec[i] = x + start
		}
	case tt == compBitPack && st == subHigh:
		if bd < bc {
			return DataBlock{}, &InvalidCompParamsError{Index: n, Type: b.Type, TT: tt, ST: st}
		}
		shift := bd - bc
		dec = make([]int, len(values))
		for i, x := range values {
			dec[i] = (x << shift) + start
		}
	case tt == compBitPack && st == subMap:
		table, ok := dicts[dictKey{tt, st}]
		if !ok {
			return DataBlock{}, &NoDictionaryError{Index: n, Type: b.Type, TT: tt, ST: st}
		}
		dec = make([]int, len(values))
		for i, x := range values {
			if x >= len(table) {
				return DataBlock{}, &BlockError{Index: n, Type: b.Type, Reason: "dictionary index out of range"}
			}
			dec[i] = table[x]
		}
	case tt == compDPCM && st == subCopy:
		table, ok := dicts[dictKey{tt, st}]
		if !ok {
			return DataBlock{}, &NoDictionaryError{Index: n, Type: b.Type, TT: tt, ST: st}
		}
		dec = make([]int, len(values))
		acc := start
		for i, dx := range values {
			if dx >= len(table) {
				return DataBlock{}, &BlockError{Index: n, Type: b.Type, Reason: "dictionary index out of range"}
			}
			acc += table[dx]
			dec[i] = acc
		}
	default:
		return DataBlock{}, &InvalidCompParamsError{Index: n, Type: b.Type, TT: tt, ST: st}
	}

	return DataBlock{Type: b.Type - blockCompressedFirst, Data: packValues(dec, int(bd+7)/8)}, nil
}

// unpackBits splits enc into MSB-first values of bc bits each.
// Trailing bits that do not fill a value are dropped.
func unpackBits(enc []byte, bc uint) []int {
	out := make([]int, 0, len(enc)*8/int(bc))
	var acc uint64
	var bits uint
	valueMask := uint64(1)<<bc - 1
	for _, x := range enc {
		acc = acc<<8 | uint64(x)
		bits += 8
		for bits >= bc {
			bits -= bc
			out = append(out, int((acc>>bits)&valueMask))
		}
		acc &= uint64(1)<<bits - 1
	}
	return out
}

// packValues stores each value little-endian in size bytes
func packValues(values []int, size int) []byte {
	if size < 1 {
		size = 1
	}
	out := make([]byte, 0, len(values)*size)
	for _, v := range values {
		for i := 0; i < size; i++ {
			out = append(out, byte(v>>(8*i)))
		}
	}
	return out
}
