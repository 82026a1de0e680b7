package furnace

// Instrument types
const (
	InsStandard  = 0
	InsFMOPN     = 1
	InsSampleMap = 4
)

// SampleMapSize is the number of note slots of a sample map instrument
const SampleMapSize = 120

// FMOperator holds one operator of an FM voice
type FMOperator struct {
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

// FMVoice is a comparable FM patch, usable as a map key
type FMVoice struct {
	Alg int
	FB  int
	AMS int
	PMS int
	Ops [4]FMOperator
}

// fmOperatorOrder is the operator order of the FM feature
var fmOperatorOrder = [4]int{0, 2, 1, 3}

func instrument(typ int, name string, features ...func(*writer)) []byte {
	var w writer
	end := w.chunk("INS2")
	w.u16(Version)
	w.u16(typ)

	na := w.feature("NA")
	w.str(name)
	na()

	for _, f := range features {
		f(&w)
	}
	w.u8('E', 'N')
	end()
	return w.buf
}

// FMInstrument returns an INS2 chunk for an OPN voice
func FMInstrument(v FMVoice, name string) []byte {
	return instrument(InsFMOPN, name, func(w *writer) {
		end := w.feature("FM")
		w.u8(4 | 0xF<<4) // four operators, all enabled
		w.u8(byte(v.FB&7 | (v.Alg&7)<<4))
		w.u8(byte(v.PMS&7 | (v.AMS&7)<<3))
		w.u8(0, 0)
		for _, i := range fmOperatorOrder {
			op := v.Ops[i]
			w.u8(
				byte(op.Mult&0xF | ((3+op.DT)&7)<<4),
				byte(op.TL&0x7F),
				byte(op.AR&0x1F | (op.RS&3)<<6),
				byte(op.DR&0x1F | (op.AM&1)<<7),
				// KVS 2 keeps Furnace from ignoring the row volume
				byte(op.SR&0x1F | 2<<5),
				byte(op.RR&0xF | (op.SL&0xF)<<4),
				byte(op.SSG&7 | (op.SSGEn&1)<<3),
				0,
			)
		}
		end()
	})
}

// PSGInstrument returns a blank standard instrument
func PSGInstrument(name string) []byte {
	return instrument(InsStandard, name)
}

// SampleMapInstrument returns an instrument whose note slots play
// samples first..first+count-1 at their recorded rate
func SampleMapInstrument(first, count int, name string) []byte {
	count = min(count, SampleMapSize)
	return instrument(InsSampleMap, name, func(w *writer) {
		end := w.feature("SM")
		w.u16(first)
		w.u8(1)  // use sample map
		w.u8(31) // wave length
		for i := 0; i < count; i++ {
			w.u16(C4 - C0)
			w.u16(first + i)
		}
		for i := count; i < SampleMapSize; i++ {
			w.u16(i)
			w.u16(0xFFFF)
		}
		end()
	})
}
