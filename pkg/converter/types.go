// Package converter drives the VGM to Furnace pipeline and the state dumps
package converter

import (
	"fmt"
	"math"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// DefaultRowDuration is the row length used when neither the settings
// nor the VGM header give a rate: one 60 Hz frame
const DefaultRowDuration = vgm.NTSCWait

// MaxPatternLength is the longest pattern Furnace accepts
const MaxPatternLength = 256

// Config holds the conversion settings
type Config struct {
	RowDuration   float64 // samples per row; 0 derives it from Rate or the header
	Rate          float64 // rows per second; used when RowDuration is 0
	PatternLength int     // rows per pattern (1-256)
	Skip          int     // samples dropped from the start
	FMVolume      float64
	PSGVolume     float64
	Latch         chips.LatchPolicy
	DAC           bool // convert the YM2612 PCM stream into samples on FM6
	Compress      bool // zlib-wrap the module
	Sparse        bool // dumps print the unsampled state table
}

// DefaultConfig returns the default settings
func DefaultConfig() Config {
	return Config{
		PatternLength: 128,
		FMVolume:      1,
		PSGVolume:     1,
		Compress:      true,
	}
}

func badFloat(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

// Validate rejects settings the pipeline cannot run with
func (c Config) Validate() error {
	switch {
	case badFloat(c.RowDuration):
		return fmt.Errorf("%w: row duration %v", ErrInvalidConfig, c.RowDuration)
	case badFloat(c.Rate):
		return fmt.Errorf("%w: rate %v", ErrInvalidConfig, c.Rate)
	case c.PatternLength < 1 || c.PatternLength > MaxPatternLength:
		return fmt.Errorf("%w: pattern length %d is outside 1-%d", ErrInvalidConfig, c.PatternLength, MaxPatternLength)
	case c.Skip < 0:
		return fmt.Errorf("%w: negative skip %d", ErrInvalidConfig, c.Skip)
	case badFloat(c.FMVolume), badFloat(c.PSGVolume):
		return fmt.Errorf("%w: volumes must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// RowDurationFor returns the samples per row for a song: the configured
// duration, else 44100/rate, else the header rate, else DefaultRowDuration
func (c Config) RowDurationFor(h vgm.Header) float64 {
	switch {
	case c.RowDuration > 0:
		return c.RowDuration
	case c.Rate > 0:
		return vgm.SampleRate / c.Rate
	case h.Rate > 0:
		return vgm.SampleRate / float64(h.Rate)
	default:
		return DefaultRowDuration
	}
}

// Result holds the outcome of a conversion
type Result struct {
	Data        []byte
	RowDuration float64
	Rows        int
	Orders      int
	Instruments int
	Samples     int
	// Warnings collects the recoverable problems met on the way
	Warnings []error
}
