package converter

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/james-see/vgm2fur/pkg/furnace"
	"github.com/james-see/vgm2fur/pkg/transform"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// Format represents a file format
type Format string

const (
	FormatVGM     Format = "vgm"
	FormatVGZ     Format = "vgz"
	FormatFurnace Format = "fur"
	FormatMIDI    Format = "midi"
	FormatCSV     Format = "csv"
	FormatText    Format = "txt"
	FormatUnknown Format = "unknown"
)

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".vgm":
		return FormatVGM
	case ".vgz":
		return FormatVGZ
	case ".fur":
		return FormatFurnace
	case ".mid", ".midi":
		return FormatMIDI
	case ".csv":
		return FormatCSV
	case ".txt":
		return FormatText
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}
	switch {
	case bytes.Equal(data[:4], vgm.Magic[:]):
		return FormatVGM
	case vgm.IsGzip(data):
		return FormatVGZ
	case bytes.HasPrefix(data, []byte(furnace.Magic)):
		return FormatFurnace
	case data[0] == 0x78:
		// zlib stream; Furnace compresses its modules this way
		return FormatFurnace
	case string(data[:4]) == "MThd":
		return FormatMIDI
	}
	return FormatUnknown
}

// OutputPath replaces the extension of input with the one of format
func OutputPath(input string, format Format) string {
	ext := "." + string(format)
	if format == FormatMIDI {
		ext = ".mid"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"vgm -> fur",
		"vgz -> fur",
		"vgm -> mid",
		"vgm -> csv",
		"vgm -> txt",
		"vgz -> vgm",
	}
}

// Converter runs conversions with one set of settings
type Converter struct {
	cfg  Config
	fs   afero.Fs
	log  io.Writer
	warn transform.WarnFunc
}

// New creates a Converter reading and writing the OS file system
func New(cfg Config) *Converter {
	return &Converter{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		log: io.Discard,
	}
}

// WithFs sets the file system used by the *File methods
func (c *Converter) WithFs(fs afero.Fs) *Converter {
	c.fs = fs
	return c
}

// WithLog sets the writer receiving one line per pipeline stage
func (c *Converter) WithLog(w io.Writer) *Converter {
	c.log = w
	return c
}

// WithWarn sets a callback for warnings as they are found
func (c *Converter) WithWarn(warn transform.WarnFunc) *Converter {
	c.warn = warn
	return c
}

// Config returns the settings of the converter
func (c *Converter) Config() Config {
	return c.cfg
}

func (c *Converter) logf(format string, args ...any) {
	fmt.Fprintf(c.log, format+"\n", args...)
}

// collect returns a warn func appending to res and forwarding to the callback
func (c *Converter) collect(res *Result) transform.WarnFunc {
	return func(err error) {
		res.Warnings = append(res.Warnings, err)
		if c.warn != nil {
			c.warn(err)
		}
	}
}

// load parses a VGM or VGZ image and builds its state table
func (c *Converter) load(data []byte, opts transform.Options) (*vgm.Song, *transform.Table, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	song, err := vgm.Load(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	cmds, err := song.Commands()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read commands: %w", err)
	}
	opts.Latch = c.cfg.Latch
	return song, transform.Tabulate(transform.ClassifyAll(cmds), opts), nil
}

// rows resamples a table at the configured row duration over the
// header's sample count, or over the waits when the header leaves it 0
func (c *Converter) rows(song *vgm.Song, table *transform.Table) ([]transform.Frame, float64) {
	rowdur := c.cfg.RowDurationFor(song.Header)
	length := song.TotalSamples()
	if length == 0 {
		length = table.Length
	}
	return transform.Resample(table.Frames, length, rowdur, c.cfg.Skip), rowdur
}

// Convert turns a VGM or VGZ image into a Furnace module
func (c *Converter) Convert(data []byte) (*Result, error) {
	res := &Result{}
	warn := c.collect(res)

	c.logf("Constructing state table...")
	song, table, err := c.load(data, transform.Options{Warn: warn})
	if err != nil {
		return nil, err
	}
	frames, rowdur := c.rows(song, table)
	res.RowDuration = rowdur
	res.Rows = len(frames)

	c.logf("Translating state table to tracker events...")
	mod, err := c.module(frames, table, rowdur, warn)
	if err != nil {
		return nil, err
	}

	c.logf("Writing Furnace module...")
	out, err := mod.Build(c.cfg.Compress)
	if err != nil {
		return nil, err
	}
	res.Data = out
	res.Orders = mod.OrderCount()
	res.Instruments = mod.InstrumentCount()
	res.Samples = mod.SampleCount()
	return res, nil
}

// module lays the channels out: PSG_BLANK and the PSG channels first,
// then the FM voices and channels, then the DAC sample maps
func (c *Converter) module(frames []transform.Frame, table *transform.Table, rowdur float64, warn transform.WarnFunc) (*furnace.Module, error) {
	mod := furnace.NewModule()
	mod.PatternLength = c.cfg.PatternLength
	mod.TicksPerSecond = vgm.SampleRate / rowdur
	mod.FMVolume = c.cfg.FMVolume
	mod.PSGVolume = c.cfg.PSGVolume
	mod.Comment = "Generated with vgm2fur"

	mod.AddInstrument(furnace.PSGInstrument("PSG_BLANK"))
	for ch := 0; ch < 4; ch++ {
		rows := transform.PreparePSG(frames, ch)
		mod.AddPatterns(furnace.PSG1+furnace.Channel(ch), transform.PSGEntries(rows, transform.PSGKindOf(ch)))
	}

	fm := make([][]transform.FMRow, 6)
	for ch := range fm {
		rows, err := transform.PrepareFM(frames, ch)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", furnace.FM1+furnace.Channel(ch), err)
		}
		fm[ch] = rows
	}
	voices := transform.CollectVoices(mod.InstrumentCount(), fm...)
	for i, v := range voices.Order {
		mod.AddInstrument(furnace.FMInstrument(v, fmt.Sprintf("FM_VOICE_%d", i)))
	}

	var dac []furnace.Entry
	if c.cfg.DAC {
		bank := transform.CollectSamples(table.Plays, table.Blocks, mod.InstrumentCount(), warn)
		if bank != nil {
			for i, m := range bank.Maps {
				mod.AddInstrument(furnace.SampleMapInstrument(m.First, m.Count, fmt.Sprintf("DAC_MAP_%d", i)))
			}
			for i, s := range bank.Samples {
				mod.AddSample(furnace.SampleChunk(s.PCM, s.Rate, fmt.Sprintf("DAC_SAMPLE_%d", i)))
			}
			dac = transform.DACEntries(frames, table, bank, rowdur)
		}
	}

	for ch, rows := range fm {
		entries := transform.FMEntries(rows, voices)
		if ch == 5 && dac != nil {
			entries = transform.MergeFM6(rows, entries, dac)
		}
		mod.AddPatterns(furnace.FM1+furnace.Channel(ch), entries)
	}
	return mod, nil
}

// ConvertFile converts inputPath and writes the module to outputPath
func (c *Converter) ConvertFile(inputPath, outputPath string) (*Result, error) {
	if f := DetectFormat(outputPath); f != FormatFurnace && f != FormatUnknown {
		return nil, fmt.Errorf("%w: cannot write a module to %q", ErrUnknownFormat, outputPath)
	}
	data, err := afero.ReadFile(c.fs, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	res, err := c.Convert(data)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}
	if err := afero.WriteFile(c.fs, outputPath, res.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return res, nil
}

// Inspect reads back the structure of a module file
func (c *Converter) Inspect(path string) (*furnace.Info, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return furnace.Inspect(data)
}
