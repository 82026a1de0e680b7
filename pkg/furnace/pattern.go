package furnace

// Pattern is the packed row data of one pattern of one channel
type Pattern struct {
	Channel int
	Index   int
	// Data is the packed rows including the 0xFF terminator
	Data []byte
}

// chunk returns the PATN chunk for the pattern
func (p Pattern) chunk() []byte {
	var w writer
	end := w.chunk("PATN")
	w.u8(0) // subsong
	w.u8(byte(p.Channel))
	w.u16(p.Index)
	w.str("")
	w.bytes(p.Data)
	end()
	return w.buf
}

// EmptyPattern returns a pattern with no rows set
func EmptyPattern(channel, index int) Pattern {
	return Pattern{Channel: channel, Index: index, Data: []byte{0xFF}}
}

// packer cuts an entry stream into patterns of a fixed length
type packer struct {
	channel  int
	length   int
	left     int
	data     []byte
	patterns []Pattern
}

func (p *packer) end() {
	p.patterns = append(p.patterns, Pattern{
		Channel: p.channel,
		Index:   len(p.patterns),
		Data:    append(p.data, 0xFF),
	})
	p.data = nil
	p.left = p.length
}

func (p *packer) emit(b []byte) {
	p.data = append(p.data, b...)
	p.left--
	if p.left == 0 {
		p.end()
	}
}

// skip writes n empty rows, carrying the run over pattern boundaries
func (p *packer) skip(n int) {
	for n > p.left {
		p.data = append(p.data, EncodeSkip(p.left)...)
		n -= p.left
		p.end()
	}
	p.data = append(p.data, EncodeSkip(n)...)
	p.left -= n
	if p.left == 0 {
		p.end()
	}
}

// PackPatterns splits the rows of a channel into patterns of length rows.
// Trailing empty rows are dropped. It also returns the largest effect
// count seen, which sizes the channel's effect columns.
func PackPatterns(channel int, entries []Entry, length int) ([]Pattern, int) {
	p := &packer{channel: channel, length: length, left: length}
	maxFx := 0
	skip := 0
	for _, e := range entries {
		maxFx = max(maxFx, e.FxCount())
		if e.Empty() {
			skip++
			continue
		}
		if skip > 0 {
			p.skip(skip)
			skip = 0
		}
		p.emit(e.Encode())
	}
	if p.left < p.length {
		p.end()
	}
	return p.patterns, maxFx
}
