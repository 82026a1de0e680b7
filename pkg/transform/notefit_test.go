package transform

import (
	"testing"

	"github.com/james-see/vgm2fur/pkg/furnace"
)

func TestNoteTableFind(t *testing.T) {
	table := NewNoteTable([]NoteRef{{3, 30}, {1, 10}, {2, 20}})

	tests := []struct {
		name     string
		freq     int
		wantNote int
		wantDisp int
	}{
		{"exact", 20, 2, 0},
		{"nearer above", 18, 2, -2},
		{"nearer below", 12, 1, 2},
		{"tie takes lower", 15, 1, 5},
		{"tie at top", 25, 2, 5},
		{"below table", -5, 1, -15},
		{"above table", 100, 3, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, disp := table.Find(tt.freq)
			if note != tt.wantNote || disp != tt.wantDisp {
				t.Errorf("Find(%d) = (%d, %d), want (%d, %d)", tt.freq, note, disp, tt.wantNote, tt.wantDisp)
			}
		})
	}
}

func TestFitPSGTable(t *testing.T) {
	a0 := furnace.Note(0, 9)
	for i, p := range psgPeriods {
		note, disp := FitPSG(p)
		if note != a0+i || disp != 0 {
			t.Errorf("FitPSG(%#x) = (%d, %d), want (%d, 0)", p, note, disp, a0+i)
		}
	}

	if note, _ := FitPSG(0x06B); note != furnace.C4 {
		t.Errorf("FitPSG(0x06B) = %s, want C-4", furnace.NoteName(note))
	}
	// Periods above the lowest note clamp to A-0
	if note, disp := FitPSG(0x3FF); note != a0 || disp != 6 {
		t.Errorf("FitPSG(0x3FF) = (%d, %d), want (%d, 6)", note, disp, a0)
	}
}

func TestFitFM(t *testing.T) {
	tests := []struct {
		name     string
		freq     int
		block    int
		wantNote int
		wantDisp int
	}{
		{"C4", 0x284, 4, furnace.C4, 0},
		{"C0", 0x284, 0, furnace.C0, 0},
		{"A4 detuned", 0x43B + 3, 4, furnace.C4 + 9, 3},
		{"high freq moves up a block", 0x508, 3, furnace.C4, 0},
		{"low freq moves down a block", 0x142, 5, furnace.C4, 0},
		{"below block 0", 0x142, 0, furnace.C0 - 12, 0},
		{"above block 7", 0x508, 7, furnace.C8, 0},
		{"C7", 0x284, 7, furnace.C8 - 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, disp := FitFM(tt.freq, tt.block)
			if note != tt.wantNote || disp != tt.wantDisp {
				t.Errorf("FitFM(%#x, %d) = (%s, %d), want (%s, %d)", tt.freq, tt.block,
					furnace.NoteName(note), disp, furnace.NoteName(tt.wantNote), tt.wantDisp)
			}
		})
	}
}

func TestFMTablesSorted(t *testing.T) {
	for name, table := range map[string]NoteTable{
		"primary": FMTables.Primary,
		"under":   FMTables.Under,
		"over":    FMTables.Over,
	} {
		for i := 1; i < len(table); i++ {
			if table[i].Ref < table[i-1].Ref {
				t.Errorf("%s table not sorted at %d", name, i)
				break
			}
		}
	}
	if got := FMTables.Over[len(FMTables.Over)-1].Ref; got >= 0x800 {
		t.Errorf("over table ends at %#x, want < 0x800", got)
	}
	if got := FMTables.Under[0].Note; got != furnace.NoteMin {
		t.Errorf("under table starts at %d, want %d", got, furnace.NoteMin)
	}
}
