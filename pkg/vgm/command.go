package vgm

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Opcodes with special handling in the stream reader
const (
	OpDataBlock = 0x67
	OpEnd       = 0x66
)

// Command is one raw event of the command stream. For data blocks
// (0x67) Args holds the block type and Data the payload.
type Command struct {
	Offset int
	Op     byte
	Args   []byte
	Data   []byte
}

// String formats the command as "000040: 52 28 F0"
func (c Command) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%06X: %02X", c.Offset, c.Op)
	for _, a := range c.Args {
		fmt.Fprintf(&s, " %02X", a)
	}
	if c.Op == OpDataBlock {
		fmt.Fprintf(&s, " [%d bytes]", len(c.Data))
	}
	return s.String()
}

// Block returns the data block carried by a 0x67 command
func (c Command) Block() (DataBlock, bool) {
	if c.Op != OpDataBlock || len(c.Args) < 1 {
		return DataBlock{}, false
	}
	return DataBlock{Type: c.Args[0], Data: c.Data}, true
}

// argCount returns the number of argument bytes following op.
// 0x41-0x4E took one byte before version 1.60.
func argCount(op byte, version uint32) (int, bool) {
	switch {
	case op == 0x62, op == 0x63, op == OpEnd, op >= 0x70 && op <= 0x8F:
		return 0, true
	case op >= 0x30 && op <= 0x3F, op == 0x4F, op == 0x50, op == 0x94:
		return 1, true
	case op >= 0x41 && op <= 0x4E:
		if version >= 0x160 {
			return 2, true
		}
		return 1, true
	case op == 0x40, op >= 0x51 && op <= 0x5F, op == 0x61, op >= 0xA0 && op <= 0xBF:
		return 2, true
	case op >= 0xC0 && op <= 0xDF:
		return 3, true
	case op == 0x90, op == 0x91, op == 0x95, op >= 0xE0:
		return 4, true
	case op == 0x92:
		return 5, true
	case op == 0x93:
		return 10, true
	case op == 0x68:
		return 11, true
	}
	return 0, false
}

// Reader walks the command stream of a VGM image
type Reader struct {
	data    []byte
	pos     int
	version uint32
	done    bool
}

// NewReader creates a Reader positioned at the first command of song
func NewReader(song *Song) *Reader {
	return &Reader{
		data:    song.data,
		pos:     song.Header.DataStart(),
		version: song.Header.Version,
	}
}

// Next returns the next command. It returns io.EOF after the end
// marker, or when the data ends exactly on a command boundary.
func (r *Reader) Next() (Command, error) {
	if r.done || r.pos >= len(r.data) {
		r.done = true
		return Command{}, io.EOF
	}

	cmd := Command{Offset: r.pos, Op: r.data[r.pos]}
	r.pos++

	if cmd.Op == OpEnd {
		r.done = true
		return Command{}, io.EOF
	}

	if cmd.Op == OpDataBlock {
		// 67 66 tt ss ss ss ss data...
		hdr, err := r.take(6)
		if err != nil {
			return Command{}, err
		}
		if hdr[0] != OpEnd {
			return Command{}, fmt.Errorf("malformed data block at offset 0x%X: expected 0x66, got 0x%02X", cmd.Offset, hdr[0])
		}
		size := binary.LittleEndian.Uint32(hdr[2:6])
		payload, err := r.take(int(size))
		if err != nil {
			return Command{}, err
		}
		cmd.Args = hdr[1:2]
		cmd.Data = payload
		return cmd, nil
	}

	n, ok := argCount(cmd.Op, r.version)
	if !ok {
		return Command{}, &UnknownCommandError{Op: cmd.Op, Offset: cmd.Offset}
	}
	if n > 0 {
		args, err := r.take(n)
		if err != nil {
			return Command{}, err
		}
		cmd.Args = args
	}
	return cmd, nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset 0x%X, have %d", ErrTruncated, n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
