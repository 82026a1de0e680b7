package transform

import (
	"sort"

	"github.com/james-see/vgm2fur/pkg/furnace"
)

// NoteRef pairs a note with its register value
type NoteRef struct {
	Note int
	Ref  int
}

// NoteTable is a list of notes sorted by ascending register value
type NoteTable []NoteRef

// NewNoteTable returns a sorted copy of refs
func NewNoteTable(refs []NoteRef) NoteTable {
	t := make(NoteTable, len(refs))
	copy(t, refs)
	sort.SliceStable(t, func(i, j int) bool { return t[i].Ref < t[j].Ref })
	return t
}

// Find returns the note closest to freq and the displacement freq-ref.
// The neighbours of the insertion point are compared and the first
// of two equally close candidates wins. Queries outside the table
// are matched against the edge pair.
func (t NoteTable) Find(freq int) (note, disp int) {
	n := len(t)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return t[0].Note, freq - t[0].Ref
	}
	i := sort.Search(n, func(k int) bool { return t[k].Ref > freq })
	var lo, hi int
	switch {
	case i < 1:
		lo, hi = 0, 1
	case i > n-2:
		lo, hi = n-2, n-1
	default:
		lo, hi = i-1, i+1
	}
	best := lo
	for k := lo + 1; k <= hi; k++ {
		if abs(freq-t[k].Ref) < abs(freq-t[best].Ref) {
			best = k
		}
	}
	return t[best].Note, freq - t[best].Ref
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// psgPeriods are the SN76489 tone periods from A0 up to C#8
var psgPeriods = [...]int{
	// A0    A#0    B0     C1     C#1    D1     D#1    E1     F1     F#1
	0x3F9, 0x3C0, 0x38A, 0x357, 0x327, 0x2FA, 0x2CF, 0x2A7, 0x281, 0x25D,
	// G1    G#1    A1     A#1    B1     C2     C#2    D2     D#2    E2
	0x23B, 0x21B, 0x1FC, 0x1E0, 0x1C5, 0x1AC, 0x194, 0x17D, 0x168, 0x153,
	// F2    F#2    G2     G#2    A2     A#2    B2     C3     C#3    D3
	0x140, 0x12E, 0x11D, 0x10D, 0x0FE, 0x0F0, 0x0E2, 0x0D6, 0x0CA, 0x0BE,
	// D#3   E3     F3     F#3    G3     G#3    A3     A#3    B3     C4
	0x0B4, 0x0AA, 0x0A0, 0x097, 0x08F, 0x087, 0x07F, 0x078, 0x071, 0x06B,
	// C#4   D4     D#4    E4     F4     F#4    G4     G#4    A4     A#4
	0x065, 0x05F, 0x05A, 0x055, 0x050, 0x04C, 0x047, 0x043, 0x040, 0x03C,
	// B4    C5     C#5    D5     D#5    E5     F5     F#5    G5     G#5
	0x039, 0x035, 0x032, 0x030, 0x02D, 0x02A, 0x028, 0x026, 0x024, 0x022,
	// A5    A#5    B5     C6     C#6    D6     D#6    E6     F6     F#6
	0x020, 0x01E, 0x01C, 0x01B, 0x019, 0x018, 0x016, 0x015, 0x014, 0x013,
	// G6    G#6    A6     A#6    B6     C7     C#7    D7     D#7    E7
	0x012, 0x011, 0x010, 0x00F, 0x00E, 0x00D, 0x00C, 0x00B, 0x00A, 0x009,
	// F7    F#7    G7     G#7    A7     A#7    B7     C8     C#8
	0x008, 0x007, 0x006, 0x005, 0x004, 0x003, 0x002, 0x001, 0x000,
}

// PSGNotes maps SN76489 periods to notes
var PSGNotes = func() NoteTable {
	a0 := furnace.Note(0, 9)
	refs := make([]NoteRef, len(psgPeriods))
	for i, p := range psgPeriods {
		// Periods fall as notes rise
		refs[len(refs)-1-i] = NoteRef{Note: a0 + i, Ref: p}
	}
	return NoteTable(refs)
}()

// FitPSG returns the note nearest a tone period
func FitPSG(period int) (note, disp int) {
	return PSGNotes.Find(period)
}

// fmOctave holds the YM2612 frequency numbers of B-1 to C+1 around octave 0
var fmOctave = [...]int{
	0x260, // B-
	0x284, 0x2AA, 0x2D2, 0x2FD, 0x32B, 0x35B, // C  C# D  D# E  F
	0x38E, 0x3C4, 0x3FE, 0x43B, 0x47B, 0x4C0, // F# G  G# A  A# B
	0x508, // C+
}

// FMNotes holds the tables used to fit YM2612 frequencies
type FMNotes struct {
	Primary NoteTable
	Under   NoteTable
	Over    NoteTable
	Min     int
	Max     int
}

func newFMNotes() FMNotes {
	c0 := furnace.C0
	primary := make([]NoteRef, 12)
	for i := range primary {
		primary[i] = NoteRef{Note: c0 + i, Ref: fmOctave[i+1]}
	}
	last := len(fmOctave) - 1
	fm := FMNotes{
		Primary: NoteTable(primary),
		Min:     fmOctave[1] - (fmOctave[1]-fmOctave[0])/2,
		Max:     fmOctave[last-1] + (fmOctave[last]-fmOctave[last-1])/2,
	}

	// Above block 7: C8 upward, doubling per octave, while the value fits 11 bits
	var over []NoteRef
	for note, i, shift := furnace.C8, 0, 1; ; note++ {
		freq := primary[i].Ref << shift
		if freq >= 0x800 {
			break
		}
		over = append(over, NoteRef{Note: note, Ref: freq})
		if i == len(primary)-1 {
			i, shift = 0, shift+1
		} else {
			i++
		}
	}
	fm.Over = NoteTable(over)

	// Below block 0: B-1 downward to the lowest note, halving per octave
	var under []NoteRef
	for note, i, shift := c0-1, len(primary)-1, 1; note >= furnace.NoteMin; note-- {
		under = append(under, NoteRef{Note: note, Ref: primary[i].Ref >> shift})
		if i == 0 {
			i, shift = len(primary)-1, shift+1
		} else {
			i--
		}
	}
	for l, r := 0, len(under)-1; l < r; l, r = l+1, r-1 {
		under[l], under[r] = under[r], under[l]
	}
	fm.Under = NoteTable(under)
	return fm
}

// FMTables are the YM2612 note tables
var FMTables = newFMNotes()

// FitFM returns the note nearest an 11-bit frequency number at a block.
// The frequency is first moved into the primary octave by trading
// blocks; what cannot be moved is matched against the extrapolated tables.
func FitFM(freq, block int) (note, disp int) {
	t := &FMTables
	for freq < t.Min && block > 0 {
		freq *= 2
		block--
	}
	for freq > t.Max && block < 7 {
		freq /= 2
		block++
	}
	switch {
	case freq < t.Min:
		return t.Under.Find(freq)
	case freq > t.Max:
		return t.Over.Find(freq)
	}
	note, disp = t.Primary.Find(freq)
	return note + 12*block, disp
}
