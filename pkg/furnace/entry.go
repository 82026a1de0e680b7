package furnace

// MaxEffects is the number of effect columns a row can carry
const MaxEffects = 8

// Entry is one row of one channel. Fields left unset are not written.
type Entry struct {
	Note    int
	Ins     int
	Vol     int
	HasNote bool
	HasIns  bool
	HasVol  bool
	Fx      []Effect
}

// WithNote sets the note column
func (e Entry) WithNote(note int) Entry {
	e.Note, e.HasNote = note, true
	return e
}

// WithIns sets the instrument column
func (e Entry) WithIns(ins int) Entry {
	e.Ins, e.HasIns = ins, true
	return e
}

// WithVol sets the volume column
func (e Entry) WithVol(vol int) Entry {
	e.Vol, e.HasVol = vol, true
	return e
}

// WithFx appends effects
func (e Entry) WithFx(fx ...Effect) Entry {
	e.Fx = append(e.Fx, fx...)
	return e
}

// Empty reports whether the row carries nothing
func (e Entry) Empty() bool {
	return !e.HasNote && !e.HasIns && !e.HasVol && len(e.Fx) == 0
}

// FxCount returns the number of effects that will be written
func (e Entry) FxCount() int {
	return min(len(e.Fx), MaxEffects)
}

// Encode returns the packed row: a 1-3 byte mask followed by the present fields
func (e Entry) Encode() []byte {
	mask := 0
	maskLen := 1
	var payload []byte
	if e.HasNote {
		mask |= 1
		payload = append(payload, byte(e.Note))
	}
	if e.HasIns {
		mask |= 2
		payload = append(payload, byte(e.Ins))
	}
	if e.HasVol {
		mask |= 4
		payload = append(payload, byte(e.Vol))
	}

	fx := e.Fx[:e.FxCount()]
	switch {
	case len(fx) == 1:
		mask |= 8 | 16
		payload = append(payload, fx[0].Type, fx[0].Value)
	case len(fx) > 1:
		if len(fx) <= 4 {
			mask |= 8 | 16 | 32
			maskLen = 2
		} else {
			mask |= 8 | 16 | 32 | 64
			maskLen = 3
		}
		bit := 256 | 512
		for _, f := range fx {
			payload = append(payload, f.Type, f.Value)
			mask |= bit
			bit <<= 2
		}
	}

	out := make([]byte, 0, maskLen+len(payload))
	for i := 0; i < maskLen; i++ {
		out = append(out, byte(mask>>(8*i)))
	}
	return append(out, payload...)
}

// EncodeSkip returns the bytes that skip n empty rows.
// Runs longer than 128 rows are split.
func EncodeSkip(n int) []byte {
	var out []byte
	for n > 128 {
		out = append(out, 0xFE)
		n -= 128
	}
	if n >= 2 {
		return append(out, byte(0x80+n-2))
	}
	return append(out, 0x00)
}

// DecodeRows counts the rows of packed pattern data up to the 0xFF terminator.
// Entries are skipped by their mask.
func DecodeRows(data []byte) (rows int, err error) {
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == 0xFF:
			return rows, nil
		case b == 0xFE:
			rows += 128
			i++
		case b == 0x00:
			rows++
			i++
		case b&0x80 != 0:
			rows += int(b) - 0x80 + 2
			i++
		default:
			n, err := entrySize(data[i:])
			if err != nil {
				return rows, err
			}
			rows++
			i += n
		}
	}
	return rows, ErrUnterminatedPattern
}

// entrySize returns the encoded length of the entry at the start of data
func entrySize(data []byte) (int, error) {
	mask := int(data[0])
	maskLen := 1
	if mask&32 != 0 {
		if len(data) < 2 {
			return 0, ErrUnterminatedPattern
		}
		mask |= int(data[1]) << 8
		maskLen = 2
		if mask&64 != 0 {
			if len(data) < 3 {
				return 0, ErrUnterminatedPattern
			}
			mask |= int(data[2]) << 16
			maskLen = 3
		}
	}
	n := maskLen
	for _, bit := range []int{1, 2, 4} {
		if mask&bit != 0 {
			n++
		}
	}
	if mask&32 == 0 {
		// Single effect: bits 3 and 4 are its type and value
		if mask&8 != 0 {
			n++
		}
		if mask&16 != 0 {
			n++
		}
	} else {
		for bit := 256; bit < 1<<24; bit <<= 1 {
			if mask&bit != 0 {
				n++
			}
		}
	}
	if n > len(data) {
		return 0, ErrUnterminatedPattern
	}
	return n, nil
}
