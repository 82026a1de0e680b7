// Package transform turns a VGM command stream into chip state tables
// and the state tables into Furnace pattern rows
package transform

import (
	"encoding/binary"
	"fmt"

	"github.com/james-see/vgm2fur/pkg/vgm"
)

// ActionKind tells what a command does to the chips or the clock
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionFMWrite
	ActionPSGWrite
	ActionWait
	ActionPlaySample
	ActionSetSamplePointer
	ActionDataBlock
)

var actionNames = map[ActionKind]string{
	ActionUnknown:          "unknown",
	ActionFMWrite:          "fm",
	ActionPSGWrite:         "psg",
	ActionWait:             "wait",
	ActionPlaySample:       "sample",
	ActionSetSamplePointer: "seek",
	ActionDataBlock:        "block",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Action is a decoded command. Only the fields of its kind are set.
type Action struct {
	Kind ActionKind

	// Register writes
	Port int
	Addr byte
	Data byte

	Wait  int // samples to advance after the action
	Ptr   int // data bank offset for a sample pointer
	Block vgm.DataBlock
	Raw   vgm.Command
}

// Classify maps a command to an action. Packed DAC commands (0x8n)
// play one byte and then wait n samples.
func Classify(cmd vgm.Command) Action {
	a := Action{Raw: cmd}
	args := cmd.Args
	switch op := cmd.Op; {
	case op == 0x52 && len(args) == 2:
		a.Kind, a.Port, a.Addr, a.Data = ActionFMWrite, 0, args[0], args[1]
	case op == 0x53 && len(args) == 2:
		a.Kind, a.Port, a.Addr, a.Data = ActionFMWrite, 1, args[0], args[1]
	case op == 0x50 && len(args) == 1:
		a.Kind, a.Data = ActionPSGWrite, args[0]
	case op == 0x61 && len(args) == 2:
		a.Kind, a.Wait = ActionWait, int(args[0])+int(args[1])*256
	case op == 0x62:
		a.Kind, a.Wait = ActionWait, vgm.NTSCWait
	case op == 0x63:
		a.Kind, a.Wait = ActionWait, vgm.PALWait
	case op >= 0x70 && op <= 0x7F:
		a.Kind, a.Wait = ActionWait, int(op-0x70)+1
	case op >= 0x80 && op <= 0x8F:
		a.Kind, a.Wait = ActionPlaySample, int(op-0x80)
	case op == 0xE0 && len(args) == 4:
		a.Kind, a.Ptr = ActionSetSamplePointer, int(binary.LittleEndian.Uint32(args))
	case op == vgm.OpDataBlock:
		if b, ok := cmd.Block(); ok {
			a.Kind, a.Block = ActionDataBlock, b
		}
	}
	return a
}

// ClassifyAll classifies every command in order
func ClassifyAll(cmds []vgm.Command) []Action {
	out := make([]Action, len(cmds))
	for i, c := range cmds {
		out[i] = Classify(c)
	}
	return out
}
