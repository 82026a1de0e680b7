package furnace

import (
	"encoding/binary"
	"math"
)

// writer appends little-endian fields to a growing buffer
type writer struct {
	buf []byte
}

func (w *writer) u8(v ...byte) {
	w.buf = append(w.buf, v...)
}

func (w *writer) u16(v int) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
}

func (w *writer) u32(v int) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

func (w *writer) f32(v float64) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(float32(v)))
}

// str writes a NUL-terminated string
func (w *writer) str(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *writer) fill(b byte, n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, b)
	}
}

func (w *writer) bytes(p []byte) {
	w.buf = append(w.buf, p...)
}

// chunk writes a tag and a 32-bit size placeholder; the returned
// function fills the size in once the body is written
func (w *writer) chunk(tag string) func() {
	w.buf = append(w.buf, tag...)
	at := len(w.buf)
	w.u32(0)
	return func() {
		binary.LittleEndian.PutUint32(w.buf[at:], uint32(len(w.buf)-at-4))
	}
}

// feature is chunk with a 16-bit size, used inside instruments
func (w *writer) feature(tag string) func() {
	w.buf = append(w.buf, tag...)
	at := len(w.buf)
	w.u16(0)
	return func() {
		binary.LittleEndian.PutUint16(w.buf[at:], uint16(len(w.buf)-at-2))
	}
}

func (w *writer) len() int {
	return len(w.buf)
}
