package vgm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

func TestReadHeader(t *testing.T) {
	data := NewBuilder().Wait(735).Bytes()
	h, err := ReadHeader(data)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Version != 0x171 {
		t.Errorf("Version = %#x, want 0x171", h.Version)
	}
	if h.SampleCount != 735 {
		t.Errorf("SampleCount = %d, want 735", h.SampleCount)
	}
	if h.DataStart() != 0x40 {
		t.Errorf("DataStart() = %#x, want 0x40", h.DataStart())
	}
	if h.VersionString() != "1.71" {
		t.Errorf("VersionString() = %q, want %q", h.VersionString(), "1.71")
	}
	if h.YM2612Clock() != 7670453 {
		t.Errorf("YM2612Clock() = %d, want 7670453", h.YM2612Clock())
	}
}

func TestReadHeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"wrong magic", []byte("RIFF0000"), ErrBadMagic},
		{"short header", []byte("Vgm \x00\x00"), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHeader(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDataStart(t *testing.T) {
	tests := []struct {
		offset uint32
		want   int
	}{
		{0, 0x40},
		{0x0C, 0x40},
		{0x4C, 0x80},
	}
	for _, tt := range tests {
		h := Header{Version: 0x171, DataOffset: tt.offset}
		if got := h.DataStart(); got != tt.want {
			t.Errorf("DataStart() with offset %#x = %#x, want %#x", tt.offset, got, tt.want)
		}
	}
}

func TestCommands(t *testing.T) {
	data := NewBuilder().
		FM(0, 0x28, 0xF0).
		FM(1, 0xA0, 0x12).
		PSG(0x9F).
		Wait(100).
		Wait(735).
		Wait(882).
		Raw(0x4F, 0xFF).
		Block(0x00, []byte{1, 2, 3}).
		Bytes()

	song, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cmds, err := song.Commands()
	if err != nil {
		t.Fatalf("Commands() error = %v", err)
	}

	wantOps := []byte{0x52, 0x53, 0x50, 0x61, 0x62, 0x63, 0x4F, 0x67}
	if len(cmds) != len(wantOps) {
		t.Fatalf("Commands() returned %d commands, want %d", len(cmds), len(wantOps))
	}
	for i, op := range wantOps {
		if cmds[i].Op != op {
			t.Errorf("cmds[%d].Op = %#x, want %#x", i, cmds[i].Op, op)
		}
	}
	if !bytes.Equal(cmds[3].Args, []byte{100, 0}) {
		t.Errorf("wait args = % x, want 64 00", cmds[3].Args)
	}
	if cmds[0].Offset != 0x40 {
		t.Errorf("first command offset = %#x, want 0x40", cmds[0].Offset)
	}

	block, ok := cmds[7].Block()
	if !ok {
		t.Fatal("Block() ok = false for 0x67 command")
	}
	if block.Type != 0 || !bytes.Equal(block.Data, []byte{1, 2, 3}) {
		t.Errorf("Block() = %+v, want type 0 with 3 bytes", block)
	}
}

func TestCommandsVersionDependentLength(t *testing.T) {
	// 0x41 takes one byte before 1.60 and two after
	b := NewBuilder().Raw(0x41, 0x01, 0x62)
	b.Version = 0x150
	song, _ := Parse(b.Bytes())
	cmds, err := song.Commands()
	if err != nil {
		t.Fatalf("Commands() error = %v", err)
	}
	if len(cmds) != 2 || cmds[1].Op != 0x62 {
		t.Errorf("1.50 stream decoded as %v, want [41 01] [62]", cmds)
	}

	b.Version = 0x160
	song, _ = Parse(b.Bytes())
	cmds, err = song.Commands()
	if err != nil {
		t.Fatalf("Commands() error = %v", err)
	}
	if len(cmds) != 1 || len(cmds[0].Args) != 2 {
		t.Errorf("1.60 stream decoded as %v, want [41 01 62]", cmds)
	}
}

func TestCommandsErrors(t *testing.T) {
	t.Run("unknown command", func(t *testing.T) {
		song, _ := Parse(NewBuilder().Raw(0x2F).Bytes())
		_, err := song.Commands()
		var uerr *UnknownCommandError
		if !errors.As(err, &uerr) {
			t.Fatalf("Commands() error = %v, want UnknownCommandError", err)
		}
		if uerr.Op != 0x2F || uerr.Offset != 0x40 {
			t.Errorf("UnknownCommandError = %+v, want op 0x2F at 0x40", uerr)
		}
	})

	t.Run("truncated command", func(t *testing.T) {
		data := NewBuilder().Bytes()
		data = append(data[:len(data)-1], 0x52, 0x28)
		song, _ := Parse(data)
		_, err := song.Commands()
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("Commands() error = %v, want ErrTruncated", err)
		}
	})

	t.Run("missing end marker", func(t *testing.T) {
		data := NewBuilder().Wait(735).Bytes()
		song, _ := Parse(data[:len(data)-1])
		cmds, err := song.Commands()
		if err != nil || len(cmds) != 1 {
			t.Errorf("Commands() = %d commands, %v; want 1, nil", len(cmds), err)
		}
	})
}

func TestLoadGzip(t *testing.T) {
	raw := NewBuilder().PSG(0x90).Wait(735).Bytes()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write(raw)
	_ = zw.Close()

	song, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if song.TotalSamples() != 735 {
		t.Errorf("TotalSamples() = %d, want 735", song.TotalSamples())
	}
}

func TestDecompress(t *testing.T) {
	payload := []byte("Vgm payload")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	_ = gw.Close()

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, _ = zw.Write(payload)
	_ = zw.Close()

	tests := []struct {
		name   string
		data   []byte
		method Method
	}{
		{"gzip", gz.Bytes(), MethodGzip},
		{"zlib", zl.Bytes(), MethodZlib},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, m, err := Decompress(tt.data)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if m != tt.method || !bytes.Equal(out, payload) {
				t.Errorf("Decompress() = %q, %v; want %q, %v", out, m, payload, tt.method)
			}
		})
	}

	if _, _, err := Decompress([]byte("plain")); !errors.Is(err, ErrUnknownCompression) {
		t.Errorf("Decompress(plain) error = %v, want ErrUnknownCompression", err)
	}
}
