package bitfield

import "testing"

func TestGet(t *testing.T) {
	tests := []struct {
		name   string
		v      int
		hi, lo uint
		want   int
	}{
		{"low nibble", 0xA5, 3, 0, 0x5},
		{"high nibble", 0xA5, 7, 4, 0xA},
		{"reversed bounds", 0xA5, 4, 7, 0xA},
		{"single bit", 0x80, 7, 7, 1},
		{"block field", 0x2C, 5, 3, 5},
		{"tl field", 0xFF, 6, 0, 0x7F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Get(tt.v, tt.hi, tt.lo); got != tt.want {
				t.Errorf("Get(%#x, %d, %d) = %#x, want %#x", tt.v, tt.hi, tt.lo, got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name   string
		v      int
		hi, lo uint
		field  int
		want   int
	}{
		{"freq low byte", 0x700, 7, 0, 0x34, 0x734},
		{"freq high bits", 0x0FF, 10, 8, 0x5, 0x5FF},
		{"field truncated", 0x00, 3, 0, 0x1F, 0x0F},
		{"clear range", 0xFF, 5, 4, 0, 0xCF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Set(tt.v, tt.hi, tt.lo, tt.field); got != tt.want {
				t.Errorf("Set(%#x, %d, %d, %#x) = %#x, want %#x", tt.v, tt.hi, tt.lo, tt.field, got, tt.want)
			}
		})
	}
}

func TestBit(t *testing.T) {
	if Bit(0x08, 3) != 1 {
		t.Error("Bit(0x08, 3) should be 1")
	}
	if Bit(0x08, 2) != 0 {
		t.Error("Bit(0x08, 2) should be 0")
	}
}

func TestPack(t *testing.T) {
	if got := Pack(0x34, 0x12); got != 0x1234 {
		t.Errorf("Pack(0x34, 0x12) = %#x, want 0x1234", got)
	}
	if got := Pack(); got != 0 {
		t.Errorf("Pack() = %d, want 0", got)
	}
}
