package furnace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zlib"
)

// PatternInfo describes one pattern found by Inspect
type PatternInfo struct {
	Ptr     int
	Channel int
	Index   int
	Rows    int
}

// Info is the structure of a module as read back by Inspect
type Info struct {
	Compressed     bool
	Version        int
	TicksPerSecond float64
	PatternLength  int
	Orders         int
	Instruments    []int
	Samples        []int
	Patterns       []PatternInfo
	EffectColumns  [ChannelCount]int
	Name           string
	Author         string
	Comment        string
}

// reader is a bounds-checked little-endian cursor
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: truncated at 0x%X", ErrNotModule, r.pos)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() int {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (r *reader) u16() int {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int(binary.LittleEndian.Uint16(b))
}

func (r *reader) u32() int {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int(binary.LittleEndian.Uint32(b))
}

func (r *reader) f32() float64 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func (r *reader) str() string {
	if r.err != nil {
		return ""
	}
	i := bytes.IndexByte(r.data[r.pos:], 0)
	if i < 0 {
		r.err = fmt.Errorf("%w: unterminated string at 0x%X", ErrNotModule, r.pos)
		return ""
	}
	s := string(r.data[r.pos : r.pos+i])
	r.pos += i + 1
	return s
}

func (r *reader) skip(n int) {
	r.take(n)
}

// Unwrap returns the raw module bytes, inflating a zlib-wrapped file
func Unwrap(data []byte) ([]byte, bool, error) {
	if bytes.HasPrefix(data, []byte(Magic)) {
		return data, false, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrNotModule, err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, false, fmt.Errorf("failed to inflate module: %w", err)
	}
	if !bytes.HasPrefix(raw, []byte(Magic)) {
		return nil, true, ErrNotModule
	}
	return raw, true, nil
}

// Inspect reads the pointer tables of a module and checks that every
// instrument, sample and pattern pointer lands on its chunk
func Inspect(data []byte) (*Info, error) {
	raw, compressed, err := Unwrap(data)
	if err != nil {
		return nil, err
	}
	info := &Info{Compressed: compressed}

	r := &reader{data: raw}
	r.skip(len(Magic))
	info.Version = r.u16()
	r.skip(2)
	r.pos = r.u32()
	if string(r.take(4)) != "INFO" {
		return nil, fmt.Errorf("%w: missing song info", ErrNotModule)
	}
	r.skip(4) // size
	r.skip(4) // time base, speeds, arp
	info.TicksPerSecond = r.f32()
	info.PatternLength = r.u16()
	info.Orders = r.u16()
	r.skip(2)
	insCount := r.u16()
	waveCount := r.u16()
	sampleCount := r.u16()
	patCount := r.u32()
	if system := r.u8(); r.err == nil && system != systemGenesis {
		return nil, fmt.Errorf("%w: unsupported system 0x%02X", ErrNotModule, system)
	}
	r.skip(31 + 32 + 32 + 32*4)
	info.Name = r.str()
	info.Author = r.str()
	r.skip(4 + 20)

	for i := 0; i < insCount; i++ {
		info.Instruments = append(info.Instruments, r.u32())
	}
	r.skip(4 * waveCount)
	for i := 0; i < sampleCount; i++ {
		info.Samples = append(info.Samples, r.u32())
	}
	patPtrs := make([]int, 0, patCount)
	for i := 0; i < patCount && r.err == nil; i++ {
		patPtrs = append(patPtrs, r.u32())
	}
	r.skip(ChannelCount * info.Orders)
	for ch := range info.EffectColumns {
		info.EffectColumns[ch] = r.u8()
	}
	r.skip(2 * ChannelCount)
	for i := 0; i < 2*ChannelCount; i++ {
		r.str()
	}
	info.Comment = r.str()
	if r.err != nil {
		return nil, r.err
	}

	for i, p := range info.Instruments {
		if !hasTag(raw, p, "INS2") {
			return nil, &BrokenPointerError{Kind: "instrument", Idx: i, Ptr: p, Want: "INS2"}
		}
	}
	for i, p := range info.Samples {
		if !hasTag(raw, p, "SMP2") {
			return nil, &BrokenPointerError{Kind: "sample", Idx: i, Ptr: p, Want: "SMP2"}
		}
	}
	for i, p := range patPtrs {
		if !hasTag(raw, p, "PATN") {
			return nil, &BrokenPointerError{Kind: "pattern", Idx: i, Ptr: p, Want: "PATN"}
		}
		pr := &reader{data: raw, pos: p + 4}
		size := pr.u32()
		end := pr.pos + size
		pi := PatternInfo{Ptr: p}
		pr.skip(1) // subsong
		pi.Channel = pr.u8()
		pi.Index = pr.u16()
		pr.str()
		if pr.err != nil || end > len(raw) {
			return nil, fmt.Errorf("pattern %d: %w", i, ErrUnterminatedPattern)
		}
		rows, err := DecodeRows(raw[pr.pos:end])
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", i, err)
		}
		pi.Rows = rows
		info.Patterns = append(info.Patterns, pi)
	}
	return info, nil
}

func hasTag(data []byte, ptr int, tag string) bool {
	return ptr >= 0 && ptr+len(tag) <= len(data) && string(data[ptr:ptr+len(tag)]) == tag
}
