// Package furnace writes Furnace tracker modules for the Genesis system
package furnace

import (
	"fmt"
	"strings"
)

// Note values. Furnace numbers notes from C-5 (0) to B-9 (179).
const (
	NoteMin     = 0
	C0          = 60
	C4          = 108
	C8          = 156
	B9          = 179
	NoteMax     = B9
	NoteOff     = 180
	NoteRelease = 181
)

var noteNames = [12]string{"C-", "C#", "D-", "D#", "E-", "F-", "F#", "G-", "G#", "A-", "A#", "B-"}

// Note returns the value of a semitone (0-11) in an octave (-5..9)
func Note(octave, semitone int) int {
	return (octave+5)*12 + semitone
}

// Octave splits a note value into octave and semitone
func Octave(note int) (octave, semitone int) {
	return note/12 - 5, note % 12
}

// NoteName returns the tracker spelling of a note, e.g. "C#4"
func NoteName(note int) string {
	switch {
	case note == NoteOff:
		return "OFF"
	case note == NoteRelease:
		return "REL"
	case note < NoteMin || note > NoteMax:
		return "???"
	}
	oct, semi := Octave(note)
	if oct < 0 {
		// Negative octaves use the lowercase form, e.g. "b_1"
		return fmt.Sprintf("%s%d", strings.ToLower(strings.Replace(noteNames[semi], "-", "_", 1)), -oct)
	}
	return fmt.Sprintf("%s%d", noteNames[semi], oct)
}
