package furnace

// SampleChunk returns an SMP2 chunk for unsigned 8-bit PCM played at rate Hz.
// Furnace stores 8-bit samples signed, so the data is re-biased.
func SampleChunk(pcm []byte, rate int, name string) []byte {
	var w writer
	end := w.chunk("SMP2")
	w.str(name)
	w.u32(len(pcm))
	w.u32(rate) // compatibility rate
	w.u32(rate) // C-4 rate
	w.u8(8)     // 8-bit PCM
	w.u8(0)     // loop direction
	w.u8(0)     // BRR emphasis
	w.u8(0)     // dithering
	w.u32(-1)   // loop start
	w.u32(-1)   // loop end
	for i := 0; i < 4; i++ {
		w.u32(-1) // presence in every chip
	}
	for _, b := range pcm {
		w.u8(b ^ 0x80)
	}
	end()
	return w.buf
}
