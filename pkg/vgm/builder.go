package vgm

import "encoding/binary"

// Builder assembles a VGM image command by command. It keeps the
// sample count in step with the waits it writes.
type Builder struct {
	Version uint32
	Rate    uint32
	cmds    []byte
	samples uint32
}

// NewBuilder creates a Builder for a version 1.71 image
func NewBuilder() *Builder {
	return &Builder{Version: 0x171}
}

// FM appends a YM2612 register write on port 0 or 1
func (b *Builder) FM(port int, addr, data byte) *Builder {
	op := byte(0x52)
	if port != 0 {
		op = 0x53
	}
	b.cmds = append(b.cmds, op, addr, data)
	return b
}

// PSG appends an SN76489 write
func (b *Builder) PSG(data byte) *Builder {
	b.cmds = append(b.cmds, 0x50, data)
	return b
}

// Wait appends the shortest encoding of an n-sample wait
func (b *Builder) Wait(n int) *Builder {
	for n > 0 {
		switch {
		case n == NTSCWait:
			b.cmds = append(b.cmds, 0x62)
			n = 0
			b.samples += NTSCWait
			continue
		case n == PALWait:
			b.cmds = append(b.cmds, 0x63)
			n = 0
			b.samples += PALWait
			continue
		case n <= 16:
			b.cmds = append(b.cmds, 0x70+byte(n-1))
			b.samples += uint32(n)
			n = 0
			continue
		}
		w := min(n, 0xFFFF)
		b.cmds = append(b.cmds, 0x61, byte(w), byte(w>>8))
		b.samples += uint32(w)
		n -= w
	}
	return b
}

// Sample appends a DAC write from the data bank followed by a wait of n (0-15)
func (b *Builder) Sample(n int) *Builder {
	b.cmds = append(b.cmds, 0x80+byte(n&0x0F))
	b.samples += uint32(n & 0x0F)
	return b
}

// Seek appends a data bank seek (0xE0)
func (b *Builder) Seek(ptr uint32) *Builder {
	b.cmds = append(b.cmds, 0xE0)
	b.cmds = binary.LittleEndian.AppendUint32(b.cmds, ptr)
	return b
}

// Block appends a 0x67 data block
func (b *Builder) Block(typ byte, payload []byte) *Builder {
	b.cmds = append(b.cmds, OpDataBlock, OpEnd, typ)
	b.cmds = binary.LittleEndian.AppendUint32(b.cmds, uint32(len(payload)))
	b.cmds = append(b.cmds, payload...)
	return b
}

// Raw appends bytes verbatim
func (b *Builder) Raw(p ...byte) *Builder {
	b.cmds = append(b.cmds, p...)
	return b
}

// Samples returns the total wait written so far
func (b *Builder) Samples() int {
	return int(b.samples)
}

// Bytes returns the image: a 0x40-byte header, the commands and the end marker
func (b *Builder) Bytes() []byte {
	out := make([]byte, HeaderSize, HeaderSize+len(b.cmds)+1)
	copy(out, Magic[:])
	binary.LittleEndian.PutUint32(out[0x08:], b.Version)
	binary.LittleEndian.PutUint32(out[0x0C:], 3579545)
	binary.LittleEndian.PutUint32(out[0x18:], b.samples)
	binary.LittleEndian.PutUint32(out[0x24:], b.Rate)
	binary.LittleEndian.PutUint32(out[0x2C:], 7670453)
	binary.LittleEndian.PutUint32(out[dataOffsetAt:], HeaderSize-dataOffsetAt)
	out = append(out, b.cmds...)
	out = append(out, OpEnd)
	binary.LittleEndian.PutUint32(out[0x04:], uint32(len(out)-0x04))
	return out
}
