package transform

import (
	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/furnace"
)

// Key is the fitted pitch and trigger state of an FM channel on one row
type Key struct {
	Note   int
	Disp   int
	Vol    int
	ID     int
	OpMask int
	Pan    int
}

// FMRow is one row of an FM channel
type FMRow struct {
	Key   Key
	Voice furnace.FMVoice
	// Off is set when no operator is keyed on
	Off bool
	// DAC is set on channel 6 rows where the DAC replaces FM output
	DAC bool
}

// PrepareFM fits notes and voices for channel ch (0-5) on every frame.
// Channel 3 in special or CSM mode cannot be expressed and is an error.
func PrepareFM(frames []Frame, ch int) ([]FMRow, error) {
	rows := make([]FMRow, len(frames))
	for i, f := range frames {
		if ch == 2 {
			switch f.FM.Ch3Mode {
			case chips.Ch3Special:
				return nil, ErrCh3SpecialMode
			case chips.Ch3CSM:
				return nil, ErrCSMMode
			}
		}
		c := f.FM.Channels[ch]
		r := FMRow{DAC: ch == 5 && f.FM.DACEn == 1}
		if c.OpMask == 0 {
			r.Off = true
			r.Key = Key{Note: furnace.NoteOff, ID: c.KeyID, Pan: c.Pan}
			rows[i] = r
			continue
		}
		// Operator 4 always follows the channel frequency
		freq := f.FM.OpFreq(ch, 3)
		note, disp := FitFM(freq.Freq, freq.Block)
		voice, vol := NormalizeVoice(ExtractVoice(c))
		r.Voice = voice
		r.Key = Key{Note: note, Disp: disp, Vol: vol, ID: c.KeyID, OpMask: c.OpMask, Pan: c.Pan}
		rows[i] = r
	}
	return rows, nil
}

func pitchFx(fx []furnace.Effect, delta int) []furnace.Effect {
	if e, ok := furnace.Pitch(delta); ok {
		return append(fx, e)
	}
	return fx
}

// FMEntries turns FM rows into tracker rows. A new key id retriggers the
// note, a note or voice change under the same key id slides with legato,
// and anything else becomes pitch, pan and volume effects.
func FMEntries(rows []FMRow, voices Voices) []furnace.Entry {
	out := make([]furnace.Entry, 0, len(rows))
	noteC, dispC, volC := furnace.NoteOff, 0, 0
	keyC, insC, panC := -1, -1, 0
	legato := false

	for _, r := range rows {
		var fx []furnace.Effect
		if r.Off || r.DAC {
			if legato {
				fx = append(fx, furnace.Legato(false))
			}
			e := furnace.Entry{Fx: fx}
			if noteC != furnace.NoteOff {
				e = e.WithNote(furnace.NoteOff)
			}
			out = append(out, e)
			noteC, dispC, volC = furnace.NoteOff, 0, 0
			legato = false
			continue
		}

		k := r.Key
		ins := voices.Index[r.Voice]
		switch {
		case k.ID != keyC:
			fx = pitchFx(fx, k.Disp)
			if legato {
				fx = append(fx, furnace.Legato(false))
			}
			if k.Pan != panC {
				fx = append(fx, furnace.Pan(k.Pan))
			}
			out = append(out, furnace.Entry{Fx: fx}.WithNote(k.Note).WithIns(ins).WithVol(k.Vol))
			keyC = k.ID
			legato = false
		case k.Note != noteC || ins != insC:
			fx = pitchFx(fx, k.Disp)
			if !legato {
				fx = append(fx, furnace.Legato(true))
			}
			if k.Pan != panC {
				fx = append(fx, furnace.Pan(k.Pan))
			}
			out = append(out, furnace.Entry{Fx: fx}.WithNote(k.Note).WithIns(ins).WithVol(k.Vol))
			legato = true
		default:
			if k.Disp != dispC {
				fx = pitchFx(fx, k.Disp-dispC)
			}
			if legato {
				fx = append(fx, furnace.Legato(false))
			}
			if k.Pan != panC {
				fx = append(fx, furnace.Pan(k.Pan))
			}
			e := furnace.Entry{Fx: fx}
			if k.Vol != volC {
				e = e.WithVol(k.Vol)
			}
			out = append(out, e)
			legato = false
		}
		noteC, dispC, volC = k.Note, k.Disp, k.Vol
		insC, panC = ins, k.Pan
	}
	return out
}
