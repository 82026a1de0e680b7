package chips

import "github.com/james-see/vgm2fur/pkg/bitfield"

// Tone is one tonal channel of the PSG
type Tone struct {
	// Freq is the 10-bit period register
	Freq int
	// Vol is the 4-bit attenuation, 15 is silence
	Vol int
}

// Noise is the PSG noise channel
type Noise struct {
	Mode int
	Vol  int
}

// PSGState is a comparable snapshot of the SN76489
type PSGState struct {
	Tone  [3]Tone
	Noise Noise
	// LastCh is the tonal channel addressed by the last frequency latch
	LastCh int
}

// SN76489 is a register-level model of the programmable sound generator
type SN76489 struct {
	state PSGState
}

// NewSN76489 creates a PSG with every channel silenced
func NewSN76489() *SN76489 {
	s := &SN76489{}
	for i := range s.state.Tone {
		s.state.Tone[i].Vol = 15
	}
	s.state.Noise.Vol = 15
	return s
}

// Snapshot returns a copy of the current state
func (s *SN76489) Snapshot() PSGState {
	return s.state
}

// Write applies one byte written to the PSG port.
// Bit 7 set: latch byte, bits 6-5 channel, bit 4 volume flag, bits 3-0 payload.
// Bit 7 clear: frequency bits 9-4 for the last latched tonal channel.
func (s *SN76489) Write(data byte) {
	d := int(data)
	if bitfield.Bit(d, 7) == 0 {
		t := &s.state.Tone[s.state.LastCh]
		t.Freq = bitfield.Set(t.Freq, 9, 4, bitfield.Get(d, 5, 0))
		return
	}

	ch := bitfield.Get(d, 6, 5)
	payload := bitfield.Get(d, 3, 0)
	switch {
	case bitfield.Bit(d, 4) == 1 && ch == 3:
		s.state.Noise.Vol = payload
	case bitfield.Bit(d, 4) == 1:
		s.state.Tone[ch].Vol = payload
	case ch == 3:
		s.state.Noise.Mode = bitfield.Get(d, 2, 0)
	default:
		t := &s.state.Tone[ch]
		t.Freq = bitfield.Set(t.Freq, 3, 0, payload)
		s.state.LastCh = ch
	}
}
