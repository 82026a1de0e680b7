package furnace

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zlib"
)

const (
	// Version is the Furnace file format version written (0.6.8.1)
	Version = 228
	// ChannelCount is the channel count of the Genesis system
	ChannelCount = 10
	// MaxOrders is the largest order list Furnace accepts
	MaxOrders = 256
	// MaxInstruments is the largest instrument list Furnace accepts
	MaxInstruments = 256
	// Magic opens every uncompressed module
	Magic = "-Furnace module-"

	headerSize    = 32
	systemGenesis = 2
)

// Channel indexes a Genesis channel
type Channel int

const (
	FM1 Channel = iota
	FM2
	FM3
	FM4
	FM5
	FM6
	PSG1
	PSG2
	PSG3
	Noise
)

var channelNames = [ChannelCount]string{"fm1", "fm2", "fm3", "fm4", "fm5", "fm6", "psg1", "psg2", "psg3", "noise"}

func (c Channel) String() string {
	if c < 0 || int(c) >= ChannelCount {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel maps a channel name to its index. "psg4" is accepted for noise.
func ParseChannel(name string) (Channel, error) {
	name = strings.ToLower(name)
	if name == "psg4" {
		return Noise, nil
	}
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("invalid channel %q", name)
}

// Module is a Furnace song under construction
type Module struct {
	PatternLength  int
	TicksPerSecond float64
	Name           string
	Author         string
	Comment        string
	FMVolume       float64
	PSGVolume      float64

	instruments [][]byte
	samples     [][]byte
	patterns    [ChannelCount][]Pattern
	effects     [ChannelCount]int
}

// NewModule creates an empty song with 128-row patterns at 60 ticks per second
func NewModule() *Module {
	m := &Module{
		PatternLength:  128,
		TicksPerSecond: 60,
		FMVolume:       1,
		PSGVolume:      1,
	}
	for i := range m.effects {
		m.effects[i] = 1
	}
	return m
}

// AddInstrument appends an instrument chunk and returns its index
func (m *Module) AddInstrument(ins []byte) int {
	m.instruments = append(m.instruments, ins)
	return len(m.instruments) - 1
}

// InstrumentCount returns the number of instruments added
func (m *Module) InstrumentCount() int {
	return len(m.instruments)
}

// AddSample appends a sample chunk and returns its index
func (m *Module) AddSample(smp []byte) int {
	m.samples = append(m.samples, smp)
	return len(m.samples) - 1
}

// SampleCount returns the number of samples added
func (m *Module) SampleCount() int {
	return len(m.samples)
}

// AddPatterns packs the rows of a channel, replacing what it held
func (m *Module) AddPatterns(ch Channel, entries []Entry) {
	patterns, fx := PackPatterns(int(ch), entries, m.PatternLength)
	m.patterns[ch] = patterns
	if fx > 0 {
		m.effects[ch] = fx
	}
}

// Patterns returns the packed patterns of a channel
func (m *Module) Patterns(ch Channel) []Pattern {
	return m.patterns[ch]
}

// OrderCount returns the length of the order list: the pattern count of the longest channel
func (m *Module) OrderCount() int {
	n := 0
	for _, p := range m.patterns {
		n = max(n, len(p))
	}
	return n
}

// EffectColumns returns the effect column count of a channel
func (m *Module) EffectColumns(ch Channel) int {
	return m.effects[ch]
}

// layout holds the absolute offsets written into the song info
type layout struct {
	insDir, waveDir, sampleDir int
	instruments, samples       []int
	patterns                   []int
}

// Build serializes the song. Channels are padded with empty patterns
// up to the order count first, and a song with no patterns gets one
// empty order. With compress set, the file is zlib-wrapped.
func (m *Module) Build(compress bool) ([]byte, error) {
	orders := max(m.OrderCount(), 1)
	if orders > MaxOrders {
		return nil, &TooManyOrdersError{Orders: orders, PatternLength: m.PatternLength}
	}
	if len(m.instruments) > MaxInstruments {
		return nil, &TooManyInstrumentsError{Count: len(m.instruments)}
	}

	var patterns []Pattern
	for ch := range m.patterns {
		for len(m.patterns[ch]) < orders {
			m.patterns[ch] = append(m.patterns[ch], EmptyPattern(ch, len(m.patterns[ch])))
		}
		patterns = append(patterns, m.patterns[ch]...)
	}
	chunks := make([][]byte, len(patterns))
	for i, p := range patterns {
		chunks[i] = p.chunk()
	}

	insDir := assetDir(len(m.instruments))
	waveDir := assetDir(0)
	sampleDir := assetDir(len(m.samples))

	// The info block has a fixed size for a given asset count, so measure it
	// with zero pointers first
	l := layout{
		instruments: make([]int, len(m.instruments)),
		samples:     make([]int, len(m.samples)),
		patterns:    make([]int, len(chunks)),
	}
	ptr := headerSize + len(m.info(orders, l))
	l.insDir = ptr
	ptr += len(insDir)
	l.waveDir = ptr
	ptr += len(waveDir)
	l.sampleDir = ptr
	ptr += len(sampleDir)
	for i, ins := range m.instruments {
		l.instruments[i] = ptr
		ptr += len(ins)
	}
	for i, smp := range m.samples {
		l.samples[i] = ptr
		ptr += len(smp)
	}
	for i, c := range chunks {
		l.patterns[i] = ptr
		ptr += len(c)
	}

	var w writer
	w.bytes([]byte(Magic))
	w.u16(Version)
	w.u16(0)
	w.u32(headerSize) // song info pointer
	w.fill(0, 8)
	w.bytes(m.info(orders, l))
	w.bytes(insDir)
	w.bytes(waveDir)
	w.bytes(sampleDir)
	for _, ins := range m.instruments {
		w.bytes(ins)
	}
	for _, smp := range m.samples {
		w.bytes(smp)
	}
	for _, c := range chunks {
		w.bytes(c)
	}

	if !compress {
		return w.buf, nil
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(w.buf); err != nil {
		return nil, fmt.Errorf("failed to compress module: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress module: %w", err)
	}
	return buf.Bytes(), nil
}

// info returns the INFO chunk
func (m *Module) info(orders int, l layout) []byte {
	var w writer
	end := w.chunk("INFO")
	w.u8(1, 1, 1, 0) // time base, speed 1, speed 2, arp time
	w.f32(m.TicksPerSecond)
	w.u16(m.PatternLength)
	w.u16(orders)
	w.u8(0, 0) // highlights
	w.u16(len(m.instruments))
	w.u16(0) // wavetables
	w.u16(len(m.samples))
	w.u32(len(l.patterns))
	w.u8(systemGenesis)
	w.fill(0, 31)    // end of system list
	w.fill(0x40, 32) // system volumes
	w.fill(0, 32)    // system panning
	w.fill(0, 32*4)  // system flag pointers
	w.str(m.Name)
	w.str(m.Author)
	w.f32(440)    // A-4 tuning
	w.fill(0, 20) // compat flags, linear pitch off
	for _, p := range l.instruments {
		w.u32(p)
	}
	for _, p := range l.samples {
		w.u32(p)
	}
	for _, p := range l.patterns {
		w.u32(p)
	}
	for ch := 0; ch < ChannelCount; ch++ {
		for i := 0; i < orders; i++ {
			w.u8(byte(i))
		}
	}
	for _, n := range m.effects {
		w.u8(byte(n))
	}
	w.fill(1, ChannelCount) // channel shown
	w.fill(0, ChannelCount) // channel collapsed
	for i := 0; i < 2*ChannelCount; i++ {
		w.str("") // channel names and short names
	}
	w.str(m.Comment)
	w.f32(1) // master volume
	w.fill(0, 28)
	w.u16(150) // virtual tempo
	w.u16(150)
	w.str("") // subsong name
	w.str("") // subsong comment
	w.u8(0)   // additional subsongs
	w.fill(0, 3)
	w.str("SEGA Genesis")
	w.str("")
	w.str("")
	w.str("")
	w.str("SEGA MegaDrive")
	w.str("")
	w.f32(m.FMVolume)
	w.f32(0) // panning
	w.f32(0) // front/rear
	w.f32(m.PSGVolume)
	w.f32(0)
	w.f32(0)
	w.u32(0) // patchbay connections
	w.u8(1)  // automatic patchbay
	w.fill(0, 8)
	w.fill(0, 17) // speed pattern
	w.u8(0)       // grooves
	w.u32(l.insDir)
	w.u32(l.waveDir)
	w.u32(l.sampleDir)
	end()
	return w.buf
}

// assetDir returns an ADIR chunk with every asset in one unnamed directory.
// With no assets the directory list is empty.
func assetDir(count int) []byte {
	var w writer
	end := w.chunk("ADIR")
	if count == 0 {
		w.u32(0)
		end()
		return w.buf
	}
	w.u32(1)
	w.str("")
	w.u16(count)
	for i := 0; i < count; i++ {
		w.u8(byte(i))
	}
	end()
	return w.buf
}
