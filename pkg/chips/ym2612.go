package chips

import "github.com/james-see/vgm2fur/pkg/bitfield"

// Ch3Mode is the channel 3 mode selected by register $27
type Ch3Mode int

const (
	Ch3Normal Ch3Mode = iota
	Ch3Special
	Ch3CSM
)

func (m Ch3Mode) String() string {
	switch m {
	case Ch3Normal:
		return "normal"
	case Ch3Special:
		return "special"
	default:
		return "csm"
	}
}

// FreqMode tells how a channel's operators get their frequency
type FreqMode int

const (
	// FreqShared means every operator follows the channel frequency
	FreqShared FreqMode = iota
	// FreqPerOperator means operators 1-3 use the channel 3 special registers
	FreqPerOperator
)

// LatchPolicy controls when a frequency low byte becomes visible
type LatchPolicy int

const (
	// LatchRelaxed applies every frequency write immediately
	LatchRelaxed LatchPolicy = iota
	// LatchGated holds a low byte until the matching high byte arrives
	LatchGated
)

// ParseLatchPolicy maps "relaxed" or "gated" to a policy
func ParseLatchPolicy(name string) (LatchPolicy, bool) {
	switch name {
	case "", "relaxed":
		return LatchRelaxed, true
	case "gated":
		return LatchGated, true
	default:
		return LatchRelaxed, false
	}
}

func (p LatchPolicy) String() string {
	if p == LatchGated {
		return "gated"
	}
	return "relaxed"
}

// Operator holds the envelope and multiplier registers of one FM operator
type Operator struct {
	Mult  int
	DT    int
	TL    int
	AR    int
	RS    int
	DR    int
	AM    int
	SR    int
	RR    int
	SL    int
	SSG   int
	SSGEn int
}

// OpFreq is an 11-bit frequency number with its 3-bit block
type OpFreq struct {
	Freq  int
	Block int
}

// Channel holds the registers of one FM channel
type Channel struct {
	KeyID  int
	OpMask int
	Freq   int
	Block  int
	Alg    int
	FB     int
	PMS    int
	AMS    int
	Pan    int
	Ops    [4]Operator
}

// FMState is a comparable snapshot of the YM2612
type FMState struct {
	LFO      int
	LFOEn    int
	Ch3Mode  Ch3Mode
	DACEn    int
	Channels [6]Channel
	// Ch3Op holds the special mode frequencies of channel 3 operators 1-3
	Ch3Op    [3]OpFreq
}

// FreqMode returns the frequency mode of channel ch (0-based)
func (s FMState) FreqMode(ch int) FreqMode {
	if ch == 2 && s.Ch3Mode != Ch3Normal {
		return FreqPerOperator
	}
	return FreqShared
}

// OpFreq returns the effective frequency of operator op (0-based) of channel ch
func (s FMState) OpFreq(ch, op int) OpFreq {
	c := s.Channels[ch]
	switch s.FreqMode(ch) {
	case FreqPerOperator:
		if op < 3 {
			return s.Ch3Op[op]
		}
		return OpFreq{Freq: c.Freq, Block: c.Block}
	default:
		return OpFreq{Freq: c.Freq, Block: c.Block}
	}
}

// pendingLow is a held frequency low byte
type pendingLow struct {
	set bool
	lo  int
}

// YM2612 is a register-level model of the FM synthesizer
type YM2612 struct {
	// Latch selects the frequency latch policy
	Latch LatchPolicy

	state FMState
	chLow [6]pendingLow
	opLow [3]pendingLow
}

// NewYM2612 creates a YM2612 in its power-on state
func NewYM2612() *YM2612 {
	return &YM2612{}
}

// Snapshot returns a copy of the current state
func (y *YM2612) Snapshot() FMState {
	return y.state
}

// operatorOrder maps register slot bits to operator index.
// Registers are laid out S1, S3, S2, S4.
var operatorOrder = [4]int{0, 2, 1, 3}

// ch3OperatorOrder maps the $A8/$AC slot to a channel 3 operator
var ch3OperatorOrder = [3]int{2, 0, 1}

// Write applies one register write. Ill-formed writes leave the state untouched.
func (y *YM2612) Write(port, addr, data byte) error {
	p := int(port & 1)
	d := int(data)
	switch {
	case addr < 0x20:
		return nil
	case addr < 0x30:
		// Global registers exist in part I only
		if p == 0 {
			return y.writeGlobalRegister(addr, data)
		}
		return nil
	case addr < 0xA0:
		return y.writeOperatorRegister(p, addr, d)
	default:
		return y.writeChannelRegister(p, addr, d)
	}
}

func (y *YM2612) writeGlobalRegister(addr, data byte) error {
	d := int(data)
	switch addr {
	case 0x22:
		y.state.LFO = bitfield.Get(d, 2, 0)
		y.state.LFOEn = bitfield.Bit(d, 3)
	case 0x27:
		mode := Ch3Mode(bitfield.Get(d, 7, 6))
		if mode > Ch3CSM {
			mode = Ch3CSM
		}
		y.state.Ch3Mode = mode
	case 0x28:
		return y.writeKeyOnOff(data)
	case 0x2B:
		y.state.DACEn = bitfield.Bit(d, 7)
	}
	return nil
}

// writeKeyOnOff handles $28.
// Bits 0-2 select the channel (0-2 part I, 4-6 part II), bits 4-7 the operators.
func (y *YM2612) writeKeyOnOff(data byte) error {
	d := int(data)
	slot := bitfield.Get(d, 1, 0)
	if slot == 3 {
		return &IllFormedError{Port: 0, Addr: 0x28, Data: data, Reason: "key on/off for channel slot 3"}
	}
	ch := &y.state.Channels[slot+3*bitfield.Bit(d, 2)]
	mask := bitfield.Get(d, 7, 4)
	if mask != ch.OpMask {
		ch.OpMask = mask
		ch.KeyID++
	}
	return nil
}

// writeOperatorRegister handles $30-$9F
func (y *YM2612) writeOperatorRegister(port int, addr byte, d int) error {
	slot := int(addr & 0x03)
	if slot == 3 {
		return &IllFormedError{Port: port, Addr: addr, Data: byte(d), Reason: "operator write for channel slot 3"}
	}
	op := &y.state.Channels[slot+3*port].Ops[operatorOrder[(addr>>2)&0x03]]

	switch addr & 0xF0 {
	case 0x30:
		op.Mult = bitfield.Get(d, 3, 0)
		op.DT = bitfield.Get(d, 5, 4)
		if bitfield.Bit(d, 6) == 1 {
			op.DT = -op.DT
		}
	case 0x40:
		op.TL = bitfield.Get(d, 6, 0)
	case 0x50:
		op.AR = bitfield.Get(d, 4, 0)
		op.RS = bitfield.Get(d, 7, 6)
	case 0x60:
		op.DR = bitfield.Get(d, 4, 0)
		op.AM = bitfield.Bit(d, 7)
	case 0x70:
		op.SR = bitfield.Get(d, 4, 0)
	case 0x80:
		op.RR = bitfield.Get(d, 3, 0)
		op.SL = bitfield.Get(d, 7, 4)
	case 0x90:
		op.SSG = bitfield.Get(d, 2, 0)
		op.SSGEn = bitfield.Bit(d, 3)
	}
	return nil
}

// writeChannelRegister handles $A0-$B6
func (y *YM2612) writeChannelRegister(port int, addr byte, d int) error {
	slot := int(addr & 0x03)
	if slot == 3 {
		if addr < 0xB8 {
			return &IllFormedError{Port: port, Addr: addr, Data: byte(d), Reason: "channel write for slot 3"}
		}
		return nil
	}
	idx := slot + 3*port
	ch := &y.state.Channels[idx]

	switch addr & 0xFC {
	case 0xA0:
		y.writeFreqLow(&ch.Freq, &y.chLow[idx], d)
	case 0xA4:
		y.writeFreqHigh(&ch.Freq, &ch.Block, &y.chLow[idx], d)
	case 0xA8:
		if port == 0 {
			n := ch3OperatorOrder[slot]
			op := &y.state.Ch3Op[n]
			y.writeFreqLow(&op.Freq, &y.opLow[n], d)
		}
	case 0xAC:
		if port == 0 {
			n := ch3OperatorOrder[slot]
			op := &y.state.Ch3Op[n]
			y.writeFreqHigh(&op.Freq, &op.Block, &y.opLow[n], d)
		}
	case 0xB0:
		ch.Alg = bitfield.Get(d, 2, 0)
		ch.FB = bitfield.Get(d, 5, 3)
	case 0xB4:
		ch.PMS = bitfield.Get(d, 2, 0)
		ch.AMS = bitfield.Get(d, 5, 4)
		ch.Pan = bitfield.Get(d, 7, 6)
	}
	return nil
}

func (y *YM2612) writeFreqLow(freq *int, pending *pendingLow, d int) {
	if y.Latch == LatchGated {
		// A repeated low byte replaces the held one
		*pending = pendingLow{set: true, lo: d & 0xFF}
		return
	}
	*freq = bitfield.Set(*freq, 7, 0, d)
}

func (y *YM2612) writeFreqHigh(freq, block *int, pending *pendingLow, d int) {
	f := bitfield.Set(*freq, 10, 8, bitfield.Get(d, 2, 0))
	if y.Latch == LatchGated && pending.set {
		f = bitfield.Set(f, 7, 0, pending.lo)
	}
	*pending = pendingLow{}
	*freq = f
	*block = bitfield.Get(d, 5, 3)
}
