package transform

import (
	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// Frame is the state of every chip at sample time T
type Frame struct {
	T   int
	FM  chips.FMState
	PSG chips.PSGState
	DAC chips.DACState
}

// same reports whether two frames hold the same chip state
func (f Frame) same(o Frame) bool {
	return f.FM == o.FM && f.PSG == o.PSG && f.DAC == o.DAC
}

// Table is the sparse state table of a song
type Table struct {
	// Frames holds one frame per state change, in time order
	Frames []Frame
	// Plays lists the DAC plays in key id order
	Plays []chips.Play
	// Blocks holds the data blocks of the stream
	Blocks []vgm.DataBlock
	// Length is the total time of the waits in samples
	Length int
}

// Play returns the DAC play started by a key id
func (t *Table) Play(keyID int) (chips.Play, bool) {
	for _, p := range t.Plays {
		if p.KeyID == keyID {
			return p, true
		}
	}
	return chips.Play{}, false
}

// WarnFunc receives recoverable problems found while converting
type WarnFunc func(error)

// Options configure Tabulate
type Options struct {
	// Kinds selects the chips to model; empty means all
	Kinds []chips.Kind
	// Latch is the YM2612 frequency latch policy
	Latch chips.LatchPolicy
	// Warn receives ill-formed writes and unknown commands
	Warn WarnFunc
}

// Tabulate replays the actions and records a frame before each wait
// whenever the chip state differs from the previous frame
func Tabulate(actions []Action, opts Options) *Table {
	warn := opts.Warn
	if warn == nil {
		warn = func(error) {}
	}
	set := chips.NewSet(opts.Kinds...)
	if set.FM != nil {
		set.FM.Latch = opts.Latch
	}

	table := &Table{}
	t := 0
	var cur Frame
	snapshot := func() {
		if set.FM != nil {
			cur.FM = set.FM.Snapshot()
		}
		if set.PSG != nil {
			cur.PSG = set.PSG.Snapshot()
		}
		if set.DAC != nil {
			cur.DAC = set.DAC.Snapshot()
		}
	}
	advance := func(n int) {
		snapshot()
		if len(table.Frames) == 0 || !cur.same(table.Frames[len(table.Frames)-1]) {
			cur.T = t
			table.Frames = append(table.Frames, cur)
		}
		t += n
	}

	for _, a := range actions {
		switch a.Kind {
		case ActionFMWrite:
			if set.FM != nil {
				if err := set.FM.Write(byte(a.Port), a.Addr, a.Data); err != nil {
					warn(err)
				}
			}
		case ActionPSGWrite:
			if set.PSG != nil {
				set.PSG.Write(a.Data)
			}
		case ActionWait:
			advance(a.Wait)
		case ActionPlaySample:
			if set.DAC != nil {
				set.DAC.Play(t)
			}
			if a.Wait > 0 {
				advance(a.Wait)
			}
		case ActionSetSamplePointer:
			if set.DAC != nil {
				set.DAC.Seek(a.Ptr)
			}
		case ActionDataBlock:
			table.Blocks = append(table.Blocks, a.Block)
		default:
			warn(&vgm.UnknownCommandError{Op: a.Raw.Op, Offset: a.Raw.Offset})
		}
	}
	if set.DAC != nil {
		table.Plays = set.DAC.Plays()
	}
	table.Length = t
	return table
}

// Resample picks the frame in effect at times skip, skip+period, ...
// below length. Each output frame carries its row time in T.
func Resample(frames []Frame, length int, period float64, skip int) []Frame {
	if len(frames) == 0 || period <= 0 {
		return nil
	}
	var out []Frame
	i := 0
	for row := 0; ; row++ {
		t := float64(skip) + float64(row)*period
		if t >= float64(length) {
			break
		}
		for i < len(frames)-1 && float64(frames[i+1].T) <= t {
			i++
		}
		f := frames[i]
		f.T = int(t)
		out = append(out, f)
	}
	return out
}

// Unsampled returns the sparse frames of a table unchanged
func Unsampled(table *Table) []Frame {
	return table.Frames
}
