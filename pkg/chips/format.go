package chips

import (
	"fmt"
	"strings"
)

// opMaskString renders a key-on mask as one '#' or '.' per operator, operator 1 first
func opMaskString(mask int) string {
	var b [4]byte
	for i := range b {
		b[i] = '.'
		if mask&(1<<i) != 0 {
			b[i] = '#'
		}
	}
	return string(b[:])
}

// String formats the channel as "key mask freq/block pan pms ams fb alg << TLs >>"
func (c Channel) String() string {
	return fmt.Sprintf("%03d %s %04d/%d %d %d %d %d %d << %03d %03d %03d %03d >>",
		c.KeyID%1000, opMaskString(c.OpMask), c.Freq, c.Block,
		c.Pan, c.PMS, c.AMS, c.FB, c.Alg,
		c.Ops[0].TL, c.Ops[1].TL, c.Ops[2].TL, c.Ops[3].TL)
}

// String formats the global registers followed by the six channels
func (s FMState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %d %s %d", s.LFOEn, s.LFO, s.Ch3Mode, s.DACEn)
	for _, c := range s.Channels {
		b.WriteString(" | ")
		b.WriteString(c.String())
	}
	return b.String()
}

// String formats volume and period of each tone channel, then the noise
func (s PSGState) String() string {
	return fmt.Sprintf("%x %03x %x %03x %x %03x %x %x",
		s.Tone[0].Vol, s.Tone[0].Freq,
		s.Tone[1].Vol, s.Tone[1].Freq,
		s.Tone[2].Vol, s.Tone[2].Freq,
		s.Noise.Vol, s.Noise.Mode)
}

func (s DACState) String() string {
	return fmt.Sprintf("%d@%06X", s.KeyID, s.Begin)
}
