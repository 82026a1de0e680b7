package furnace

// Effect is one effect column: a command byte and its argument
type Effect struct {
	Type  byte
	Value byte
}

// Effect commands used by the converter
const (
	FxPan       = 0x08
	FxLegato    = 0xEA
	FxPitchUp   = 0xF1
	FxPitchDown = 0xF2
)

// Pitch returns a fine pitch slide for a signed delta.
// It reports false for a zero delta.
func Pitch(delta int) (Effect, bool) {
	switch {
	case delta > 0:
		return Effect{Type: FxPitchUp, Value: clampByte(delta)}, true
	case delta < 0:
		return Effect{Type: FxPitchDown, Value: clampByte(-delta)}, true
	default:
		return Effect{}, false
	}
}

// Pan returns the panning effect for a YM2612 L/R pair.
// Bit 1 is left and bit 0 is right.
func Pan(lr int) Effect {
	var v byte
	if lr&2 != 0 {
		v |= 0x10
	}
	if lr&1 != 0 {
		v |= 0x01
	}
	return Effect{Type: FxPan, Value: v}
}

// Legato turns legato mode on or off
func Legato(on bool) Effect {
	if on {
		return Effect{Type: FxLegato, Value: 1}
	}
	return Effect{Type: FxLegato}
}

func clampByte(v int) byte {
	switch {
	case v < 0:
		return 0
	case v > 0xFF:
		return 0xFF
	default:
		return byte(v)
	}
}
