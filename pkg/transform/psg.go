package transform

import "github.com/james-see/vgm2fur/pkg/furnace"

// PSGKind selects the muting rule of a PSG channel
type PSGKind int

const (
	// PSGTone is a plain tone channel (PSG1, PSG2)
	PSGTone PSGKind = iota
	// PSGTone3 is muted while the noise channel borrows its pitch
	PSGTone3
	// PSGNoise sounds only when it takes its pitch from tone 3
	PSGNoise
)

// PSGRow is one row of a PSG channel: the fitted note of the period,
// the attenuation and the noise mode
type PSGRow struct {
	Note int
	Disp int
	Att  int
	Mode int
}

// PreparePSG fits a PSG channel (0-2 tone, 3 noise) on every frame.
// The noise channel carries tone 3's pitch.
func PreparePSG(frames []Frame, ch int) []PSGRow {
	rows := make([]PSGRow, len(frames))
	for i, f := range frames {
		src := min(ch, 2)
		note, disp := FitPSG(f.PSG.Tone[src].Freq)
		att := f.PSG.Noise.Vol
		if ch < 3 {
			att = f.PSG.Tone[ch].Vol
		}
		rows[i] = PSGRow{Note: note, Disp: disp, Att: att, Mode: f.PSG.Noise.Mode}
	}
	return rows
}

// PSGKindOf returns the muting rule of PSG channel ch
func PSGKindOf(ch int) PSGKind {
	switch ch {
	case 2:
		return PSGTone3
	case 3:
		return PSGNoise
	default:
		return PSGTone
	}
}

// PSGEntries turns PSG rows into tracker rows
func PSGEntries(rows []PSGRow, kind PSGKind) []furnace.Entry {
	out := make([]furnace.Entry, 0, len(rows))
	noteC, dispC, volC := furnace.NoteOff, 0, 0
	for _, r := range rows {
		periodic := r.Mode&3 == 3
		silent := (kind == PSGTone3 && periodic) || (kind == PSGNoise && !periodic)

		note, disp, vol := r.Note, r.Disp, 15-r.Att
		switch {
		case silent:
			note, disp, vol = furnace.NoteOff, 0, 0
		case vol == 0:
			note, disp = furnace.NoteOff, 0
		default:
			// The register is a period, so pitch goes the other way
			disp = -disp
		}

		var e furnace.Entry
		switch {
		case note != noteC && note == furnace.NoteOff:
			e = e.WithNote(note)
		case note != noteC:
			e = e.WithNote(note).WithIns(0).WithVol(vol)
			e.Fx = pitchFx(e.Fx, disp)
		default:
			if disp != dispC {
				e.Fx = pitchFx(e.Fx, disp-dispC)
			}
			if vol != volC {
				e = e.WithVol(vol)
			}
		}
		out = append(out, e)
		noteC, dispC, volC = note, disp, vol
	}
	return out
}
