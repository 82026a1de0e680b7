package chips

import "github.com/james-see/vgm2fur/pkg/vgm"

// DACState is the comparable snapshot of the DAC stream.
// Play length is tracked outside the snapshot so a growing
// play does not produce new frames.
type DACState struct {
	KeyID int
	Begin int
}

// Play records one run of PCM bytes streamed from a data bank offset
type Play struct {
	KeyID  int
	Begin  int
	Length int
	// First and Last are the sample times of the first and last byte
	First int
	Last  int
}

// Rate estimates the playback rate in Hz from the byte timing
func (p Play) Rate() float64 {
	if p.Length < 2 || p.Last <= p.First {
		return vgm.SampleRate
	}
	return float64(p.Length-1) * vgm.SampleRate / float64(p.Last-p.First)
}

// Sampler follows the VGM PCM stream commands
type Sampler struct {
	state DACState
	plays []Play
}

// NewSampler creates a sampler pointing at offset 0
func NewSampler() *Sampler {
	return &Sampler{}
}

// Snapshot returns a copy of the current state
func (s *Sampler) Snapshot() DACState {
	return s.state
}

// Seek moves the stream pointer and starts a new play
func (s *Sampler) Seek(ptr int) {
	s.state.KeyID++
	s.state.Begin = ptr
	s.plays = append(s.plays, Play{KeyID: s.state.KeyID, Begin: ptr})
}

// Play streams one byte at sample time t
func (s *Sampler) Play(t int) {
	if len(s.plays) == 0 || s.plays[len(s.plays)-1].KeyID != s.state.KeyID {
		s.plays = append(s.plays, Play{KeyID: s.state.KeyID, Begin: s.state.Begin})
	}
	p := &s.plays[len(s.plays)-1]
	if p.Length == 0 {
		p.First = t
	}
	p.Last = t
	p.Length++
}

// Plays returns the recorded plays in key id order
func (s *Sampler) Plays() []Play {
	out := make([]Play, len(s.plays))
	copy(out, s.plays)
	return out
}

// Lookup returns the play started by the given key id
func (s *Sampler) Lookup(keyID int) (Play, bool) {
	for _, p := range s.plays {
		if p.KeyID == keyID {
			return p, true
		}
	}
	return Play{}, false
}
