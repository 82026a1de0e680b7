package transform

import (
	"fmt"
	"math"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/furnace"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// Sample is one PCM cut from the data bank
type Sample struct {
	Begin  int
	Length int
	Rate   int
	PCM    []byte
}

// SampleMap is a sample-map instrument covering Count samples from First
type SampleMap struct {
	First int
	Count int
}

// SampleSlot is the note and instrument that trigger a sample
type SampleSlot struct {
	Note int
	Ins  int
}

type span struct{ begin, length int }

// SampleBank maps the DAC plays of a song onto samples and note slots
type SampleBank struct {
	Samples []Sample
	Maps    []SampleMap
	slots   map[span]SampleSlot
}

// Slot returns the trigger for a play
func (b *SampleBank) Slot(p chips.Play) (SampleSlot, bool) {
	s, ok := b.slots[span{p.Begin, p.Length}]
	return s, ok
}

// CollectSamples cuts one sample per distinct (begin, length) play out of
// the YM2612 PCM bank. Samples are given notes C-0 to B-9 of a sample-map
// instrument, starting at instrument insStart, and a new map starts
// when the notes run out. It returns nil when the song has no PCM bank.
func CollectSamples(plays []chips.Play, blocks []vgm.DataBlock, insStart int, warn WarnFunc) *SampleBank {
	var bank []byte
	found := false
	for _, b := range vgm.ResolveBlocks(blocks, warn) {
		if b.Type == vgm.BlockYM2612PCM {
			// Consecutive PCM blocks form one bank
			bank = append(bank, b.Data...)
			found = true
		}
	}
	if !found {
		return nil
	}

	sb := &SampleBank{slots: make(map[span]SampleSlot)}
	for _, p := range plays {
		if p.Length == 0 {
			continue
		}
		key := span{p.Begin, p.Length}
		if _, ok := sb.slots[key]; ok {
			continue
		}
		n := len(sb.Samples)
		sb.slots[key] = SampleSlot{
			Note: furnace.C0 + n%furnace.SampleMapSize,
			Ins:  insStart + n/furnace.SampleMapSize,
		}
		begin := min(p.Begin, len(bank))
		end := min(p.Begin+p.Length, len(bank))
		if end-begin < p.Length && warn != nil {
			warn(fmt.Errorf("DAC play at 0x%X runs past the %d byte PCM bank", p.Begin, len(bank)))
		}
		sb.Samples = append(sb.Samples, Sample{
			Begin:  p.Begin,
			Length: p.Length,
			Rate:   int(math.Round(p.Rate())),
			PCM:    bank[begin:end],
		})
		if n%furnace.SampleMapSize == 0 {
			sb.Maps = append(sb.Maps, SampleMap{First: n})
		}
		sb.Maps[len(sb.Maps)-1].Count++
	}
	return sb
}

// DACEntries triggers each new DAC play on the row where its key id
// appears, holds it for ceil(length/rowdur) rows counting the trigger
// and then keys it off
//
// A play made before any seek keeps key id 0, which every frame starts
// with, so it triggers on row 0 wherever in the song it was made.
func DACEntries(frames []Frame, table *Table, bank *SampleBank, rowdur float64) []furnace.Entry {
	out := make([]furnace.Entry, 0, len(frames))
	keyC, left := -1, -1
	for _, f := range frames {
		id := f.DAC.KeyID
		if id != keyC {
			keyC = id
			left = -1
			p, ok := table.Play(id)
			if !ok || bank == nil {
				out = append(out, furnace.Entry{})
				continue
			}
			slot, ok := bank.Slot(p)
			if !ok {
				out = append(out, furnace.Entry{})
				continue
			}
			left = max(int(math.Ceil(float64(p.Length)/rowdur))-1, 0)
			out = append(out, furnace.Entry{}.WithNote(slot.Note).WithIns(slot.Ins))
			continue
		}
		switch {
		case left > 0:
			out = append(out, furnace.Entry{})
			left--
		case left == 0:
			out = append(out, furnace.Entry{}.WithNote(furnace.NoteOff))
			left = -1
		default:
			out = append(out, furnace.Entry{})
		}
	}
	return out
}

// MergeFM6 takes the DAC row wherever channel 6 had the DAC enabled
func MergeFM6(rows []FMRow, fm, dac []furnace.Entry) []furnace.Entry {
	out := make([]furnace.Entry, len(fm))
	for i := range fm {
		if i < len(rows) && i < len(dac) && rows[i].DAC {
			out[i] = dac[i]
		} else {
			out[i] = fm[i]
		}
	}
	return out
}
