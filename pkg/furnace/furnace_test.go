package furnace

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestNoteName(t *testing.T) {
	tests := []struct {
		note     int
		expected string
	}{
		{C0, "C-0"},
		{C4, "C-4"},
		{C4 + 1, "C#4"},
		{B9, "B-9"},
		{C0 - 1, "b_1"},
		{NoteOff, "OFF"},
		{NoteRelease, "REL"},
		{-1, "???"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := NoteName(tt.note); got != tt.expected {
				t.Errorf("NoteName(%d) = %q, want %q", tt.note, got, tt.expected)
			}
		})
	}

	if Note(4, 0) != C4 || Note(8, 0) != C8 || Note(-1, 11) != C0-1 {
		t.Error("Note() does not match the named constants")
	}
}

func TestEffects(t *testing.T) {
	tests := []struct {
		name     string
		delta    int
		expected Effect
		ok       bool
	}{
		{"up", 5, Effect{FxPitchUp, 5}, true},
		{"down", -7, Effect{FxPitchDown, 7}, true},
		{"clamped", 300, Effect{FxPitchUp, 0xFF}, true},
		{"zero", 0, Effect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Pitch(tt.delta)
			if got != tt.expected || ok != tt.ok {
				t.Errorf("Pitch(%d) = %v, %v, want %v, %v", tt.delta, got, ok, tt.expected, tt.ok)
			}
		})
	}

	pans := map[int]byte{0: 0x00, 1: 0x01, 2: 0x10, 3: 0x11}
	for lr, want := range pans {
		if got := Pan(lr); got != (Effect{FxPan, want}) {
			t.Errorf("Pan(%d) = %v, want value %#x", lr, got, want)
		}
	}
	if Legato(true).Value != 1 || Legato(false).Value != 0 {
		t.Error("Legato() values wrong")
	}
}

func TestEntryEncode(t *testing.T) {
	fx := func(n int) []Effect {
		out := make([]Effect, n)
		for i := range out {
			out[i] = Effect{Type: byte(0x10 + i), Value: byte(i)}
		}
		return out
	}

	tests := []struct {
		name     string
		entry    Entry
		expected []byte
	}{
		{"empty", Entry{}, []byte{0x00}},
		{"note", Entry{}.WithNote(C4), []byte{0x01, C4}},
		{"note ins vol", Entry{}.WithNote(C4).WithIns(2).WithVol(0x7F), []byte{0x07, C4, 2, 0x7F}},
		{"one effect", Entry{}.WithVol(3).WithFx(Effect{0xF1, 4}), []byte{0x1C, 3, 0xF1, 4}},
		{"two effects", Entry{Fx: fx(2)}, []byte{0x38, 0x0F, 0x10, 0, 0x11, 1}},
		{"five effects", Entry{Fx: fx(5)}, []byte{0x78, 0xFF, 0x03, 0x10, 0, 0x11, 1, 0x12, 2, 0x13, 3, 0x14, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Encode(); !bytes.Equal(got, tt.expected) {
				t.Errorf("Encode() = % X, want % X", got, tt.expected)
			}
		})
	}

	nine := Entry{Fx: fx(9)}
	if nine.FxCount() != MaxEffects {
		t.Errorf("FxCount() = %d, want %d", nine.FxCount(), MaxEffects)
	}
	if got := len(nine.Encode()); got != 3+2*MaxEffects {
		t.Errorf("len(Encode()) = %d, want %d", got, 3+2*MaxEffects)
	}
}

func TestEncodeSkip(t *testing.T) {
	tests := []struct {
		n        int
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x00}},
		{2, []byte{0x80}},
		{126, []byte{0xFC}},
		{127, []byte{0xFD}},
		{128, []byte{0xFE}},
		{129, []byte{0xFE, 0x00}},
		{300, []byte{0xFE, 0xFE, 0xAA}},
	}

	for _, tt := range tests {
		got := EncodeSkip(tt.n)
		if !bytes.Equal(got, tt.expected) {
			t.Errorf("EncodeSkip(%d) = % X, want % X", tt.n, got, tt.expected)
		}
		// Zero rows still spends one 0x00 row
		want := max(tt.n, 1)
		rows, err := DecodeRows(append(got, 0xFF))
		if err != nil || rows != want {
			t.Errorf("DecodeRows(EncodeSkip(%d)) = %d, %v, want %d", tt.n, rows, err, want)
		}
	}
}

func TestDecodeRows(t *testing.T) {
	data := append(Entry{}.WithNote(C4).WithFx(Effect{1, 2}, Effect{3, 4}).Encode(), EncodeSkip(10)...)
	data = append(data, Entry{}.WithVol(1).Encode()...)
	data = append(data, 0xFF)
	rows, err := DecodeRows(data)
	if err != nil {
		t.Fatalf("DecodeRows() error = %v", err)
	}
	if rows != 12 {
		t.Errorf("DecodeRows() = %d, want 12", rows)
	}

	if _, err := DecodeRows([]byte{0x01, C4}); !errors.Is(err, ErrUnterminatedPattern) {
		t.Errorf("DecodeRows(unterminated) error = %v, want ErrUnterminatedPattern", err)
	}
}

func rowsAt(n int, at map[int]Entry) []Entry {
	out := make([]Entry, n)
	for i, e := range at {
		out[i] = e
	}
	return out
}

func TestPackPatterns(t *testing.T) {
	note := Entry{}.WithNote(C4)
	tests := []struct {
		name     string
		entries  []Entry
		length   int
		expected [][]byte
	}{
		{"nothing", rowsAt(10, nil), 4, nil},
		{"one row", rowsAt(1, map[int]Entry{0: note}), 4, [][]byte{{0x01, C4, 0xFF}}},
		{"full pattern", rowsAt(2, map[int]Entry{0: note, 1: note}), 2, [][]byte{{0x01, C4, 0x01, C4, 0xFF}}},
		{
			"skip crosses boundary",
			rowsAt(7, map[int]Entry{0: note, 6: note}),
			4,
			[][]byte{{0x01, C4, 0x81, 0xFF}, {0x80, 0x01, C4, 0xFF}},
		},
		{
			"trailing rows dropped",
			rowsAt(9, map[int]Entry{4: note}),
			4,
			[][]byte{{0x82, 0xFF}, {0x01, C4, 0xFF}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := PackPatterns(3, tt.entries, tt.length)
			if len(got) != len(tt.expected) {
				t.Fatalf("PackPatterns() = %d patterns, want %d", len(got), len(tt.expected))
			}
			for i, p := range got {
				if p.Channel != 3 || p.Index != i {
					t.Errorf("pattern %d = channel %d index %d", i, p.Channel, p.Index)
				}
				if !bytes.Equal(p.Data, tt.expected[i]) {
					t.Errorf("pattern %d = % X, want % X", i, p.Data, tt.expected[i])
				}
			}
		})
	}
}

func TestPackPatternsEffects(t *testing.T) {
	entries := []Entry{
		Entry{}.WithFx(Effect{1, 1}),
		Entry{}.WithFx(Effect{1, 1}, Effect{2, 2}, Effect{3, 3}),
	}
	if _, fx := PackPatterns(0, entries, 64); fx != 3 {
		t.Errorf("PackPatterns() fx = %d, want 3", fx)
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		name     string
		expected Channel
		wantErr  bool
	}{
		{"fm1", FM1, false},
		{"FM6", FM6, false},
		{"psg3", PSG3, false},
		{"noise", Noise, false},
		{"psg4", Noise, false},
		{"fm7", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.name)
		if (err != nil) != tt.wantErr || (err == nil && got != tt.expected) {
			t.Errorf("ParseChannel(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestInstruments(t *testing.T) {
	check := func(t *testing.T, ins []byte, typ int) {
		t.Helper()
		if string(ins[:4]) != "INS2" {
			t.Fatalf("tag = %q, want INS2", ins[:4])
		}
		if size := int(binary.LittleEndian.Uint32(ins[4:])); size != len(ins)-8 {
			t.Errorf("size = %d, want %d", size, len(ins)-8)
		}
		if got := int(binary.LittleEndian.Uint16(ins[10:])); got != typ {
			t.Errorf("type = %d, want %d", got, typ)
		}
		if !bytes.HasSuffix(ins, []byte("EN")) {
			t.Error("missing EN feature")
		}
	}

	t.Run("psg", func(t *testing.T) {
		ins := PSGInstrument("PSG_BLANK")
		check(t, ins, InsStandard)
		// INS2 header, NA feature with the name, EN
		if len(ins) != 12+4+len("PSG_BLANK")+1+2 {
			t.Errorf("len = %d", len(ins))
		}
	})

	t.Run("fm", func(t *testing.T) {
		v := FMVoice{Alg: 4, FB: 6, AMS: 1, PMS: 2}
		v.Ops[1].TL = 0x22
		v.Ops[2].DT = -1
		ins := FMInstrument(v, "x")
		check(t, ins, InsFMOPN)
		fm := bytes.Index(ins, []byte("FM"))
		if fm < 0 {
			t.Fatal("missing FM feature")
		}
		body := ins[fm+4:]
		if body[0] != 0xF4 || body[1] != 0x46 || body[2] != 0x0A {
			t.Errorf("FM header = % X", body[:3])
		}
		// Operators are written in 0,2,1,3 order
		op := func(n int) []byte { return body[5+8*n : 13+8*n] }
		if op(1)[0] != 0x20 {
			t.Errorf("second operator DT/MULT = %#x, want DT -1", op(1)[0])
		}
		if op(2)[1] != 0x22 {
			t.Errorf("third operator TL = %#x, want 0x22", op(2)[1])
		}
		if op(0)[4] != 0x40 {
			t.Errorf("KVS/SR = %#x, want 0x40", op(0)[4])
		}
	})

	t.Run("sample map", func(t *testing.T) {
		ins := SampleMapInstrument(3, 2, "DAC")
		check(t, ins, InsSampleMap)
		sm := bytes.Index(ins, []byte("SM"))
		body := ins[sm+4:]
		if got := binary.LittleEndian.Uint16(body); got != 3 {
			t.Errorf("first sample = %d, want 3", got)
		}
		slot := func(n int) (uint16, uint16) {
			b := body[4+4*n:]
			return binary.LittleEndian.Uint16(b), binary.LittleEndian.Uint16(b[2:])
		}
		if note, smp := slot(1); note != C4-C0 || smp != 4 {
			t.Errorf("slot 1 = %d, %d", note, smp)
		}
		if _, smp := slot(2); smp != 0xFFFF {
			t.Errorf("slot 2 sample = %#x, want unused", smp)
		}
		if len(body) != 4+4*SampleMapSize+2 {
			t.Errorf("sample map body = %d bytes", len(body))
		}
	})
}

func TestSampleChunk(t *testing.T) {
	smp := SampleChunk([]byte{0x80, 0xFF, 0x00}, 8000, "s")
	if string(smp[:4]) != "SMP2" {
		t.Fatalf("tag = %q", smp[:4])
	}
	if !bytes.HasSuffix(smp, []byte{0x00, 0x7F, 0x80}) {
		t.Errorf("data = % X, want signed PCM", smp[len(smp)-3:])
	}
	if size := int(binary.LittleEndian.Uint32(smp[4:])); size != len(smp)-8 {
		t.Errorf("size = %d, want %d", size, len(smp)-8)
	}
}

func testModule() *Module {
	m := NewModule()
	m.PatternLength = 4
	m.Comment = "test"
	m.AddInstrument(PSGInstrument("PSG_BLANK"))
	m.AddInstrument(FMInstrument(FMVoice{Alg: 7}, "FM_VOICE_0"))
	m.AddSample(SampleChunk([]byte{1, 2, 3}, 11025, "s0"))
	note := Entry{}.WithNote(C4).WithIns(1).WithVol(0x7F)
	m.AddPatterns(FM1, rowsAt(10, map[int]Entry{0: note, 9: note}))
	m.AddPatterns(PSG1, rowsAt(3, map[int]Entry{2: Entry{}.WithNote(C4).WithFx(Effect{1, 1}, Effect{2, 2})}))
	return m
}

func TestModuleBuildInspect(t *testing.T) {
	for _, compress := range []bool{false, true} {
		m := testModule()
		data, err := m.Build(compress)
		if err != nil {
			t.Fatalf("Build(%v) error = %v", compress, err)
		}

		info, err := Inspect(data)
		if err != nil {
			t.Fatalf("Inspect() error = %v", err)
		}
		if info.Compressed != compress {
			t.Errorf("Compressed = %v, want %v", info.Compressed, compress)
		}
		if info.Version != Version || info.PatternLength != 4 || info.Orders != 3 {
			t.Errorf("Info = version %d length %d orders %d", info.Version, info.PatternLength, info.Orders)
		}
		if len(info.Instruments) != 2 || len(info.Samples) != 1 {
			t.Errorf("Info has %d instruments %d samples", len(info.Instruments), len(info.Samples))
		}
		if len(info.Patterns) != 3*ChannelCount {
			t.Errorf("Info has %d patterns, want %d", len(info.Patterns), 3*ChannelCount)
		}
		if info.EffectColumns[PSG1] != 2 || info.EffectColumns[FM1] != 1 {
			t.Errorf("EffectColumns = %v", info.EffectColumns)
		}
		if info.Comment != "test" || info.TicksPerSecond != 60 {
			t.Errorf("Comment = %q, ticks %v", info.Comment, info.TicksPerSecond)
		}

		// Channel-major order with every channel padded to three patterns
		for i, p := range info.Patterns {
			if p.Channel != i/3 || p.Index != i%3 {
				t.Errorf("pattern %d = channel %d index %d", i, p.Channel, p.Index)
			}
		}
		if info.Patterns[0].Rows != 4 || info.Patterns[2].Rows != 2 {
			t.Errorf("fm1 rows = %d, %d", info.Patterns[0].Rows, info.Patterns[2].Rows)
		}
	}
}

func TestModuleBuildEmpty(t *testing.T) {
	m := NewModule()
	data, err := m.Build(false)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	info, err := Inspect(data)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Orders != 1 || len(info.Patterns) != ChannelCount {
		t.Errorf("Info = %d orders %d patterns, want 1 and %d", info.Orders, len(info.Patterns), ChannelCount)
	}
	if got := m.OrderCount(); got != 1 {
		t.Errorf("OrderCount() after Build = %d, want 1", got)
	}
}

func TestModuleInfoSize(t *testing.T) {
	data, err := testModule().Build(false)
	if err != nil {
		t.Fatal(err)
	}
	if got := int(binary.LittleEndian.Uint32(data[20:])); got != headerSize {
		t.Fatalf("info pointer = %d, want %d", got, headerSize)
	}
	size := int(binary.LittleEndian.Uint32(data[headerSize+4:]))
	insDir := headerSize + 8 + size
	if string(data[insDir:insDir+4]) != "ADIR" {
		t.Errorf("instrument directory not right after song info")
	}
}

func TestModuleTooManyOrders(t *testing.T) {
	m := NewModule()
	m.PatternLength = 1
	m.AddPatterns(FM1, rowsAt(MaxOrders+1, map[int]Entry{MaxOrders: Entry{}.WithNote(C4)}))
	_, err := m.Build(false)
	if !errors.Is(err, ErrTooManyOrders) {
		t.Fatalf("Build() error = %v, want ErrTooManyOrders", err)
	}
	var tooMany *TooManyOrdersError
	if !errors.As(err, &tooMany) || tooMany.Orders != MaxOrders+1 {
		t.Errorf("Build() error = %#v", err)
	}
}

func TestInspectErrors(t *testing.T) {
	data, err := testModule().Build(false)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Inspect([]byte("not a module")); !errors.Is(err, ErrNotModule) {
		t.Errorf("Inspect(garbage) error = %v, want ErrNotModule", err)
	}

	broken := bytes.Clone(data)
	at := bytes.LastIndex(broken, []byte("PATN"))
	copy(broken[at:], "XXXX")
	var bp *BrokenPointerError
	if _, err := Inspect(broken); !errors.As(err, &bp) || bp.Kind != "pattern" {
		t.Errorf("Inspect(broken) error = %v, want BrokenPointerError", err)
	}
}
