package converter

import (
	"bytes"
	"fmt"
	"math"

	"github.com/spf13/afero"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/james-see/vgm2fur/pkg/furnace"
	"github.com/james-see/vgm2fur/pkg/transform"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// MIDI export timing: 480 ticks per quarter at 120 BPM is 960 ticks a second
const (
	ticksPerQuarter = 480
	midiTempo       = 120.0
	ticksPerSecond  = ticksPerQuarter * midiTempo / 60
)

// midiNoteOffset maps Furnace notes onto MIDI keys: C-4 (108) is key 60
const midiNoteOffset = furnace.C4 - 60

// midiEvent is a note on (vel > 0) or off at a row
type midiEvent struct {
	row int
	key uint8
	vel uint8
	on  bool
}

// channelEvents turns the note column of tracker rows into MIDI note events.
// scale maps the row volume onto 1-127.
func channelEvents(entries []furnace.Entry, scale func(int) uint8) []midiEvent {
	var events []midiEvent
	playing := false
	var key uint8
	vel := uint8(100)
	for row, e := range entries {
		if e.HasVol {
			vel = scale(e.Vol)
		}
		if !e.HasNote {
			continue
		}
		if playing {
			events = append(events, midiEvent{row: row, key: key})
			playing = false
		}
		if e.Note >= furnace.NoteOff || vel == 0 {
			continue
		}
		k := e.Note - midiNoteOffset
		if k < 0 || k > 127 {
			continue
		}
		key = uint8(k)
		events = append(events, midiEvent{row: row, key: key, vel: vel, on: true})
		playing = true
	}
	if playing {
		events = append(events, midiEvent{row: len(entries), key: key})
	}
	return events
}

func scaleFM(vol int) uint8 {
	return uint8(max(0, min(vol, 127)))
}

func scalePSG(vol int) uint8 {
	if vol <= 0 {
		return 0
	}
	return uint8(min(vol*8+7, 127))
}

// ExportMIDI runs the note fitting of a conversion and writes the rows
// as a format 1 SMF: a tempo track and one track per tracker channel,
// each on its own MIDI channel
func (c *Converter) ExportMIDI(data []byte) ([]byte, error) {
	c.logf("Constructing state table...")
	song, table, err := c.load(data, transform.Options{Warn: c.warn})
	if err != nil {
		return nil, err
	}
	frames, rowdur := c.rows(song, table)

	c.logf("Translating state table to MIDI events...")
	channels := make([][]midiEvent, furnace.ChannelCount)
	fm := make([][]transform.FMRow, 6)
	for ch := range fm {
		rows, err := transform.PrepareFM(frames, ch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", furnace.FM1+furnace.Channel(ch), err)
		}
		fm[ch] = rows
	}
	voices := transform.CollectVoices(1, fm...)
	for ch, rows := range fm {
		channels[furnace.FM1+furnace.Channel(ch)] = channelEvents(transform.FMEntries(rows, voices), scaleFM)
	}
	for ch := 0; ch < 4; ch++ {
		rows := transform.PreparePSG(frames, ch)
		channels[furnace.PSG1+furnace.Channel(ch)] = channelEvents(transform.PSGEntries(rows, transform.PSGKindOf(ch)), scalePSG)
	}

	tickOf := func(row int) uint32 {
		return uint32(math.Round(float64(row) * rowdur / vgm.SampleRate * ticksPerSecond))
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tempo smf.Track
	microsecondsPerBeat := uint32(60000000.0 / midiTempo)
	tempo.Add(0, smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(microsecondsPerBeat >> 16),
		byte(microsecondsPerBeat >> 8),
		byte(microsecondsPerBeat),
	}))
	tempo.Add(0, smf.Message([]byte{0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08}))
	tempo.Close(0)
	if err := s.Add(tempo); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	for ch, events := range channels {
		var track smf.Track
		name := furnace.Channel(ch).String()
		track.Add(0, smf.Message(append([]byte{0xFF, 0x03, byte(len(name))}, name...)))
		var current uint32
		for _, ev := range events {
			tick := tickOf(ev.row)
			delta := tick - current
			if ev.on {
				track.Add(delta, midi.NoteOn(uint8(ch), ev.key, ev.vel))
			} else {
				track.Add(delta, midi.NoteOff(uint8(ch), ev.key))
			}
			current = tick
		}
		track.Close(tickOf(len(frames)) - current)
		if err := s.Add(track); err != nil {
			return nil, fmt.Errorf("failed to add track: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportMIDIFile exports inputPath as MIDI to outputPath
func (c *Converter) ExportMIDIFile(inputPath, outputPath string) error {
	data, err := afero.ReadFile(c.fs, inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	out, err := c.ExportMIDI(data)
	if err != nil {
		return err
	}
	return afero.WriteFile(c.fs, outputPath, out, 0644)
}
