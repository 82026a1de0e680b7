package transform

import (
	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/furnace"
)

// carriers lists the output operators of each algorithm
var carriers = [8][]int{
	{3}, {3}, {3}, {3},
	{1, 3},
	{1, 2, 3}, {1, 2, 3},
	{0, 1, 2, 3},
}

// ExtractVoice copies the patch registers of a channel
func ExtractVoice(ch chips.Channel) furnace.FMVoice {
	v := furnace.FMVoice{Alg: ch.Alg, FB: ch.FB, AMS: ch.AMS, PMS: ch.PMS}
	for i, op := range ch.Ops {
		v.Ops[i] = furnace.FMOperator(op)
	}
	return v
}

// NormalizeVoice moves the loudness out of the carriers. The smallest
// carrier TL is subtracted from every carrier, and 0x7F minus it is
// returned as the row volume.
func NormalizeVoice(v furnace.FMVoice) (furnace.FMVoice, int) {
	cs := carriers[v.Alg&7]
	vol := v.Ops[cs[0]].TL
	for _, c := range cs[1:] {
		vol = min(vol, v.Ops[c].TL)
	}
	for _, c := range cs {
		v.Ops[c].TL -= vol
	}
	return v, 0x7F - vol
}

// Voices numbers the distinct voices of a song
type Voices struct {
	Index map[furnace.FMVoice]int
	Order []furnace.FMVoice
}

// CollectVoices numbers the voices of the given channels in order of
// first appearance, starting at instrument start
func CollectVoices(start int, channels ...[]FMRow) Voices {
	vs := Voices{Index: make(map[furnace.FMVoice]int)}
	for _, rows := range channels {
		for _, r := range rows {
			if r.Off {
				continue
			}
			if _, ok := vs.Index[r.Voice]; !ok {
				vs.Index[r.Voice] = start + len(vs.Order)
				vs.Order = append(vs.Order, r.Voice)
			}
		}
	}
	return vs
}
