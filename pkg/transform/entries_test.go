package transform

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/furnace"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

func TestNormalizeVoice(t *testing.T) {
	tests := []struct {
		alg     int
		wantTL  [4]int
		wantVol int
	}{
		{0, [4]int{10, 20, 30, 0}, 0x7F - 40},
		{1, [4]int{10, 20, 30, 0}, 0x7F - 40},
		{2, [4]int{10, 20, 30, 0}, 0x7F - 40},
		{3, [4]int{10, 20, 30, 0}, 0x7F - 40},
		{4, [4]int{10, 0, 30, 20}, 0x7F - 20},
		{5, [4]int{10, 0, 10, 20}, 0x7F - 20},
		{6, [4]int{10, 0, 10, 20}, 0x7F - 20},
		{7, [4]int{0, 10, 20, 30}, 0x7F - 10},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("alg %d", tt.alg), func(t *testing.T) {
			v := furnace.FMVoice{Alg: tt.alg}
			for i, tl := range []int{10, 20, 30, 40} {
				v.Ops[i].TL = tl
			}
			got, vol := NormalizeVoice(v)
			if vol != tt.wantVol {
				t.Errorf("NormalizeVoice(alg %d) vol = %d, want %d", tt.alg, vol, tt.wantVol)
			}
			for i := range got.Ops {
				if got.Ops[i].TL != tt.wantTL[i] {
					t.Errorf("NormalizeVoice(alg %d) op %d TL = %d, want %d", tt.alg, i, got.Ops[i].TL, tt.wantTL[i])
				}
			}
		})
	}
}

func fmFrame(ch int, c chips.Channel) Frame {
	var f Frame
	f.FM.Channels[ch] = c
	return f
}

func TestPrepareFM(t *testing.T) {
	c := chips.Channel{KeyID: 1, OpMask: 15, Freq: 0x284, Block: 4, Alg: 7, Pan: 3}
	for i, tl := range []int{10, 20, 30, 40} {
		c.Ops[i].TL = tl
	}
	rows, err := PrepareFM([]Frame{fmFrame(0, c), {}}, 0)
	if err != nil {
		t.Fatalf("PrepareFM() error = %v", err)
	}

	want := Key{Note: furnace.C4, Vol: 0x7F - 10, ID: 1, OpMask: 15, Pan: 3}
	if rows[0].Key != want {
		t.Errorf("rows[0].Key = %+v, want %+v", rows[0].Key, want)
	}
	if rows[0].Voice.Ops[0].TL != 0 || rows[0].Voice.Ops[3].TL != 30 {
		t.Errorf("rows[0].Voice not normalized: %+v", rows[0].Voice.Ops)
	}
	if !rows[1].Off || rows[1].Key.Note != furnace.NoteOff {
		t.Errorf("rows[1] = %+v, want key off", rows[1])
	}
}

func TestPrepareFMChannel3Modes(t *testing.T) {
	tests := []struct {
		name    string
		mode    chips.Ch3Mode
		ch      int
		wantErr error
	}{
		{"normal", chips.Ch3Normal, 2, nil},
		{"special", chips.Ch3Special, 2, ErrCh3SpecialMode},
		{"csm", chips.Ch3CSM, 2, ErrCSMMode},
		{"special on other channel", chips.Ch3Special, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Frame
			f.FM.Ch3Mode = tt.mode
			_, err := PrepareFM([]Frame{f}, tt.ch)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PrepareFM() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrepareFMDAC(t *testing.T) {
	var f Frame
	f.FM.DACEn = 1
	for ch := 0; ch < 6; ch++ {
		rows, err := PrepareFM([]Frame{f}, ch)
		if err != nil {
			t.Fatalf("PrepareFM() error = %v", err)
		}
		if rows[0].DAC != (ch == 5) {
			t.Errorf("channel %d DAC = %v", ch+1, rows[0].DAC)
		}
	}
}

func TestCollectVoices(t *testing.T) {
	a := furnace.FMVoice{Alg: 1}
	b := furnace.FMVoice{Alg: 2}
	ch1 := []FMRow{{Voice: a}, {Voice: a}, {Off: true, Voice: furnace.FMVoice{Alg: 5}}}
	ch2 := []FMRow{{Voice: b}, {Voice: a}}

	vs := CollectVoices(1, ch1, ch2)
	if len(vs.Order) != 2 {
		t.Fatalf("len(Order) = %d, want 2", len(vs.Order))
	}
	if vs.Index[a] != 1 || vs.Index[b] != 2 {
		t.Errorf("Index = %v, want a=1 b=2", vs.Index)
	}
}

func TestFMEntries(t *testing.T) {
	voice := furnace.FMVoice{Alg: 7}
	key := Key{Note: furnace.C4, Vol: 100, ID: 1, OpMask: 15, Pan: 3}
	at := func(mod func(*Key)) FMRow {
		k := key
		mod(&k)
		return FMRow{Key: k, Voice: voice}
	}
	rows := []FMRow{
		at(func(k *Key) {}),
		at(func(k *Key) { k.Disp = 3 }),
		at(func(k *Key) { k.Disp = 3; k.Note = furnace.C4 + 2 }),
		at(func(k *Key) { k.Note = furnace.C4 + 2; k.ID = 2 }),
		at(func(k *Key) { k.Note = furnace.C4 + 2; k.ID = 2; k.Vol = 90; k.Pan = 2 }),
		{Off: true},
		{Off: true},
	}
	voices := CollectVoices(1, rows)

	want := []furnace.Entry{
		furnace.Entry{}.WithNote(furnace.C4).WithIns(1).WithVol(100).WithFx(furnace.Pan(3)),
		furnace.Entry{}.WithFx(furnace.Effect{Type: furnace.FxPitchUp, Value: 3}),
		furnace.Entry{}.WithNote(furnace.C4+2).WithIns(1).WithVol(100).
			WithFx(furnace.Effect{Type: furnace.FxPitchUp, Value: 3}, furnace.Legato(true)),
		furnace.Entry{}.WithNote(furnace.C4+2).WithIns(1).WithVol(100).WithFx(furnace.Legato(false)),
		furnace.Entry{}.WithVol(90).WithFx(furnace.Pan(2)),
		furnace.Entry{}.WithNote(furnace.NoteOff),
		{},
	}

	got := FMEntries(rows, voices)
	if len(got) != len(want) {
		t.Fatalf("len(FMEntries()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFMEntriesDACSilent(t *testing.T) {
	var on Frame
	on.FM.DACEn = 1
	rows, err := PrepareFM([]Frame{on, on, {}}, 5)
	if err != nil {
		t.Fatalf("PrepareFM() error = %v", err)
	}
	key := Key{Note: furnace.C4, Vol: 100, ID: 1, OpMask: 15, Pan: 3}
	for i := range rows {
		rows[i].Off = false
		rows[i].Key = key
		rows[i].Voice = furnace.FMVoice{Alg: 7}
	}
	voices := CollectVoices(1, rows)

	got := FMEntries(rows, voices)
	if !reflect.DeepEqual(got[0], furnace.Entry{}) || !reflect.DeepEqual(got[1], furnace.Entry{}) {
		t.Errorf("rows with the DAC enabled = %+v, %+v, want empty", got[0], got[1])
	}
	if got[2].Note != furnace.C4 {
		t.Errorf("row 2 note = %d, want %d once the DAC is off", got[2].Note, furnace.C4)
	}
}

func TestPSGEntries(t *testing.T) {
	rows := []PSGRow{
		{Note: 100, Disp: 2, Att: 0},
		{Note: 100, Disp: 2, Att: 5},
		{Note: 100, Disp: 0, Att: 5},
		{Note: 100, Att: 15},
		{Note: 100, Att: 15},
		{Note: 101, Att: 0},
	}
	want := []furnace.Entry{
		furnace.Entry{}.WithNote(100).WithIns(0).WithVol(15).WithFx(furnace.Effect{Type: furnace.FxPitchDown, Value: 2}),
		furnace.Entry{}.WithVol(10),
		furnace.Entry{}.WithFx(furnace.Effect{Type: furnace.FxPitchUp, Value: 2}),
		furnace.Entry{}.WithNote(furnace.NoteOff),
		{},
		furnace.Entry{}.WithNote(101).WithIns(0).WithVol(15),
	}

	got := PSGEntries(rows, PSGTone)
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPSGEntriesNoiseRules(t *testing.T) {
	tests := []struct {
		name string
		kind PSGKind
		mode int
		want bool // sounding
	}{
		{"tone ignores noise", PSGTone, 3, true},
		{"tone 3 plays", PSGTone3, 0, true},
		{"tone 3 muted by noise", PSGTone3, 3, false},
		{"noise own rate muted", PSGNoise, 1, false},
		{"noise white own rate muted", PSGNoise, 4, false},
		{"noise on tone 3", PSGNoise, 3, true},
		{"white noise on tone 3", PSGNoise, 7, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PSGEntries([]PSGRow{{Note: 100, Mode: tt.mode}}, tt.kind)
			if got[0].HasNote != tt.want {
				t.Errorf("PSGEntries() sounding = %v, want %v", got[0].HasNote, tt.want)
			}
		})
	}
}

func TestPreparePSG(t *testing.T) {
	var f Frame
	f.PSG.Tone[0] = chips.Tone{Freq: 0x06B, Vol: 3}
	f.PSG.Tone[2] = chips.Tone{Freq: 0x035, Vol: 15}
	f.PSG.Noise = chips.Noise{Mode: 3, Vol: 7}

	tone := PreparePSG([]Frame{f}, 0)[0]
	if tone.Note != furnace.C4 || tone.Att != 3 {
		t.Errorf("tone row = %+v, want C-4 att 3", tone)
	}
	noise := PreparePSG([]Frame{f}, 3)[0]
	if noise.Note != furnace.C4+12 || noise.Att != 7 || noise.Mode != 3 {
		t.Errorf("noise row = %+v, want C-5 att 7 mode 3", noise)
	}
	if PSGKindOf(1) != PSGTone || PSGKindOf(2) != PSGTone3 || PSGKindOf(3) != PSGNoise {
		t.Error("PSGKindOf() mismatch")
	}
}

func TestCollectSamples(t *testing.T) {
	blocks := []vgm.DataBlock{
		{Type: vgm.BlockYM2612PCM, Data: []byte{1, 2, 3, 4}},
		{Type: vgm.BlockYM2612PCM, Data: []byte{5, 6}},
	}
	plays := []chips.Play{
		{KeyID: 1, Begin: 1, Length: 3, First: 0, Last: 4},
		{KeyID: 2, Begin: 4, Length: 2},
		{KeyID: 3, Begin: 1, Length: 3},
		{KeyID: 4, Begin: 5, Length: 4},
	}
	var warnings []error
	bank := CollectSamples(plays, blocks, 7, func(err error) { warnings = append(warnings, err) })

	if len(bank.Samples) != 3 {
		t.Fatalf("len(Samples) = %d, want 3", len(bank.Samples))
	}
	if s := bank.Samples[0]; !reflect.DeepEqual(s.PCM, []byte{2, 3, 4}) || s.Rate != 22050 {
		t.Errorf("Samples[0] = %+v", s)
	}
	if s := bank.Samples[1]; !reflect.DeepEqual(s.PCM, []byte{5, 6}) {
		t.Errorf("Samples[1].PCM = %v, want [5 6]", s.PCM)
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1", len(warnings))
	}
	if len(bank.Maps) != 1 || bank.Maps[0] != (SampleMap{First: 0, Count: 3}) {
		t.Errorf("Maps = %+v", bank.Maps)
	}

	slot, ok := bank.Slot(plays[2])
	if !ok || slot != (SampleSlot{Note: furnace.C0, Ins: 7}) {
		t.Errorf("Slot(repeat play) = %+v, %v", slot, ok)
	}
	if slot, _ := bank.Slot(plays[1]); slot.Note != furnace.C0+1 {
		t.Errorf("Slot(second play) note = %d, want %d", slot.Note, furnace.C0+1)
	}

	if CollectSamples(plays, nil, 0, nil) != nil {
		t.Error("CollectSamples() without PCM = non-nil")
	}
}

func TestCollectSamplesManyMaps(t *testing.T) {
	blocks := []vgm.DataBlock{{Type: vgm.BlockYM2612PCM, Data: make([]byte, 200)}}
	var plays []chips.Play
	for i := 0; i < furnace.SampleMapSize+5; i++ {
		plays = append(plays, chips.Play{KeyID: i + 1, Begin: i, Length: 1})
	}
	bank := CollectSamples(plays, blocks, 3, nil)

	if len(bank.Maps) != 2 || bank.Maps[1] != (SampleMap{First: furnace.SampleMapSize, Count: 5}) {
		t.Errorf("Maps = %+v", bank.Maps)
	}
	slot, _ := bank.Slot(plays[furnace.SampleMapSize])
	if slot != (SampleSlot{Note: furnace.C0, Ins: 4}) {
		t.Errorf("Slot() = %+v, want C-0 on instrument 4", slot)
	}
}

func TestDACEntries(t *testing.T) {
	table := &Table{Plays: []chips.Play{
		{KeyID: 1, Begin: 0, Length: 3},
		{KeyID: 2, Begin: 3, Length: 2},
	}}
	blocks := []vgm.DataBlock{{Type: vgm.BlockYM2612PCM, Data: make([]byte, 8)}}
	bank := CollectSamples(table.Plays, blocks, 5, nil)

	var frames []Frame
	for _, id := range []int{0, 1, 1, 1, 2, 2, 2} {
		var f Frame
		f.DAC.KeyID = id
		frames = append(frames, f)
	}

	off := furnace.Entry{}.WithNote(furnace.NoteOff)
	want := []furnace.Entry{
		{},
		furnace.Entry{}.WithNote(furnace.C0).WithIns(5),
		{},
		off,
		furnace.Entry{}.WithNote(furnace.C0 + 1).WithIns(5),
		off,
		{},
	}
	got := DACEntries(frames, table, bank, 2)
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDACEntriesBeforeSeek(t *testing.T) {
	table := &Table{Plays: []chips.Play{{KeyID: 0, Begin: 0, Length: 2}}}
	blocks := []vgm.DataBlock{{Type: vgm.BlockYM2612PCM, Data: make([]byte, 4)}}
	bank := CollectSamples(table.Plays, blocks, 5, nil)

	frames := make([]Frame, 4)
	want := []furnace.Entry{
		furnace.Entry{}.WithNote(furnace.C0).WithIns(5),
		furnace.Entry{}.WithNote(furnace.NoteOff),
		{},
		{},
	}
	got := DACEntries(frames, table, bank, 2)
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMergeFM6(t *testing.T) {
	rows := []FMRow{{}, {DAC: true}, {}}
	fm := []furnace.Entry{furnace.Entry{}.WithVol(1), furnace.Entry{}.WithVol(2), furnace.Entry{}.WithVol(3)}
	dac := []furnace.Entry{furnace.Entry{}.WithNote(10), furnace.Entry{}.WithNote(11), furnace.Entry{}.WithNote(12)}

	got := MergeFM6(rows, fm, dac)
	want := []furnace.Entry{fm[0], dac[1], fm[2]}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeFM6() = %+v, want %+v", got, want)
	}
}
