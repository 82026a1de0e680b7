// Package chips provides register-level state models of the Genesis
// sound hardware: the YM2612 FM synthesizer, the SN76489 PSG, and the
// DAC stream sampler driven by VGM PCM commands
package chips

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported sound chips
type Kind int

const (
	KindYM2612 Kind = iota
	KindSN76489
)

// Kinds lists every supported chip
var Kinds = []Kind{KindYM2612, KindSN76489}

// String returns the chip name
func (k Kind) String() string {
	switch k {
	case KindYM2612:
		return "ym2612"
	case KindSN76489:
		return "sn76489"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a chip name to its Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ym2612", "fm", "opn2":
		return KindYM2612, nil
	case "sn76489", "psg":
		return KindSN76489, nil
	default:
		return 0, fmt.Errorf("unsupported chip %q", name)
	}
}

// Commands lists the VGM opcodes that drive this chip.
// PCM stream opcodes belong to the YM2612 DAC.
func (k Kind) Commands() []byte {
	switch k {
	case KindYM2612:
		ops := []byte{0x52, 0x53, 0xE0}
		for op := byte(0x80); op <= 0x8F; op++ {
			ops = append(ops, op)
		}
		return ops
	case KindSN76489:
		return []byte{0x50}
	default:
		return nil
	}
}

// Owns reports whether a VGM opcode drives this chip
func (k Kind) Owns(op byte) bool {
	for _, c := range k.Commands() {
		if c == op {
			return true
		}
	}
	return false
}

// Set holds one live model per selected chip; unselected chips are nil
type Set struct {
	FM  *YM2612
	DAC *Sampler
	PSG *SN76489
}

// NewSet creates models for the given chips. With no kinds, every chip is created.
func NewSet(kinds ...Kind) Set {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	var s Set
	for _, k := range kinds {
		switch k {
		case KindYM2612:
			s.FM = NewYM2612()
			s.DAC = NewSampler()
		case KindSN76489:
			s.PSG = NewSN76489()
		}
	}
	return s
}

// Has reports whether the chip was selected
func (s Set) Has(k Kind) bool {
	switch k {
	case KindYM2612:
		return s.FM != nil
	case KindSN76489:
		return s.PSG != nil
	default:
		return false
	}
}
