package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/transform"
	"github.com/james-see/vgm2fur/pkg/vgm"
)

// frames returns the dump rows of a song: resampled, or the sparse
// table when Config.Sparse is set
func (c *Converter) frames(data []byte, kinds []chips.Kind) ([]transform.Frame, *transform.Table, error) {
	opts := transform.Options{Kinds: kinds, Warn: c.warn}
	song, table, err := c.load(data, opts)
	if err != nil {
		return nil, nil, err
	}
	if c.cfg.Sparse {
		return transform.Unsampled(table), table, nil
	}
	frames, _ := c.rows(song, table)
	return frames, table, nil
}

// Print writes one line per row: the row number (the sample time when
// sparse) followed by the state of each selected chip
func (c *Converter) Print(w io.Writer, data []byte, kinds ...chips.Kind) error {
	c.logf("Constructing state table...")
	frames, _, err := c.frames(data, kinds)
	if err != nil {
		return err
	}
	selected := chips.NewSet(kinds...)

	c.logf("Writing output...")
	for i, f := range frames {
		n := i
		if c.cfg.Sparse {
			n = f.T
		}
		line := []string{fmt.Sprintf("%8d", n)}
		if selected.FM != nil {
			line = append(line, f.FM.String())
		}
		if selected.PSG != nil {
			line = append(line, f.PSG.String())
		}
		if selected.DAC != nil {
			line = append(line, f.DAC.String())
		}
		if _, err := fmt.Fprintln(w, strings.Join(line, " || ")); err != nil {
			return err
		}
	}
	return nil
}

// DefaultFeatures is the CSV selection used when none is given
var DefaultFeatures = []string{"fmx", "id", "freqfm", "alg", "psgx", "vol", "freqpsg", "nmode"}

// column is one CSV column: its header and its value on a row
type column struct {
	header string
	value  func(transform.Frame, *transform.Table) string
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

var (
	fmChannels  = []string{"fm1", "fm2", "fm3", "fm4", "fm5", "fm6"}
	fmOperators = []string{"op1", "op2", "op3", "op4"}
	psgChannels = []string{"psg1", "psg2", "psg3", "noise"}

	chipFeatures     = set("lfo", "dac", "fm1", "fm2", "fm3", "fm4", "fm5", "fm6", "fmx")
	channelFeatures  = set("id", "opmask", "freqfm", "alg", "fb", "mod", "pan", "op1", "op2", "op3", "op4", "opx")
	operatorFeatures = set("mult", "dt", "tl", "ar", "rs", "dr", "am", "sr", "rr", "sl", "ssg")
	psgFeatures      = set("psg1", "psg2", "psg3", "noise", "psgt", "psgx")
	toneFeatures     = set("vol", "freqpsg", "nmode")
	dacFeatures      = set("dacid", "dacinfo")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// expand replaces the group selectors by their members
func expand(fts []string) []string {
	var out []string
	for _, ft := range fts {
		switch ft {
		case "fmx":
			out = append(out, fmChannels...)
		case "opx":
			out = append(out, fmOperators...)
		case "psgt":
			out = append(out, psgChannels[:3]...)
		case "psgx":
			out = append(out, psgChannels...)
		default:
			out = append(out, ft)
		}
	}
	return out
}

func operatorColumns(name string, ch, op int, fts []string) []column {
	var cols []column
	get := func(f transform.Frame) chips.Operator { return f.FM.Channels[ch].Ops[op] }
	for _, ft := range fts {
		switch ft {
		case "mult":
			cols = append(cols, column{name + "Mult", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).Mult) }})
		case "dt":
			cols = append(cols, column{name + "Dt", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).DT) }})
		case "tl":
			cols = append(cols, column{name + "TL", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).TL) }})
		case "ar":
			cols = append(cols, column{name + "AR", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).AR) }})
		case "rs":
			cols = append(cols, column{name + "RS", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).RS) }})
		case "dr":
			cols = append(cols, column{name + "DR", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).DR) }})
		case "am":
			cols = append(cols, column{name + "AM", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).AM) }})
		case "sr":
			cols = append(cols, column{name + "SR", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).SR) }})
		case "rr":
			cols = append(cols, column{name + "RR", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).RR) }})
		case "sl":
			cols = append(cols, column{name + "SL", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).SL) }})
		case "ssg":
			cols = append(cols,
				column{name + "SSG En", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).SSGEn) }},
				column{name + "SSG", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).SSG) }})
		}
	}
	return cols
}

func channelColumns(ch int, chfts, opfts []string) []column {
	name := strings.ToUpper(fmChannels[ch]) + " "
	get := func(f transform.Frame) chips.Channel { return f.FM.Channels[ch] }
	var cols []column
	for _, ft := range chfts {
		switch ft {
		case "id":
			cols = append(cols, column{name + "Key ID", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).KeyID) }})
		case "opmask":
			cols = append(cols, column{name + "OP Mask", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).OpMask) }})
		case "freqfm":
			cols = append(cols,
				column{name + "Freq", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).Freq) }},
				column{name + "Block", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).Block) }})
		case "alg":
			cols = append(cols, column{name + "Alg", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).Alg) }})
		case "fb":
			cols = append(cols, column{name + "Fb", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).FB) }})
		case "mod":
			cols = append(cols,
				column{name + "AMS", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).AMS) }},
				column{name + "PMS", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).PMS) }})
		case "pan":
			cols = append(cols, column{name + "Pan", func(f transform.Frame, _ *transform.Table) string { return itoa(get(f).Pan) }})
		case "op1", "op2", "op3", "op4":
			op := int(ft[2] - '1')
			cols = append(cols, operatorColumns(name+strings.ToUpper(ft)+" ", ch, op, opfts)...)
		}
	}
	if ch == 5 {
		// Channel 6 is blank while the DAC replaces it
		for i := range cols {
			value := cols[i].value
			cols[i].value = func(f transform.Frame, t *transform.Table) string {
				if f.FM.DACEn == 1 {
					return ""
				}
				return value(f, t)
			}
		}
	}
	return cols
}

func psgColumns(ch string, fts []string) []column {
	name := strings.ToUpper(ch) + " "
	var cols []column
	if ch == "noise" {
		for _, ft := range fts {
			switch ft {
			case "vol":
				cols = append(cols, column{name + "Vol", func(f transform.Frame, _ *transform.Table) string { return itoa(f.PSG.Noise.Vol) }})
			case "nmode":
				cols = append(cols, column{name + "Mode", func(f transform.Frame, _ *transform.Table) string { return itoa(f.PSG.Noise.Mode) }})
			}
		}
		return cols
	}
	n := int(ch[3] - '1')
	for _, ft := range fts {
		switch ft {
		case "vol":
			cols = append(cols, column{name + "Vol", func(f transform.Frame, _ *transform.Table) string { return itoa(f.PSG.Tone[n].Vol) }})
		case "freqpsg":
			cols = append(cols, column{name + "Freq", func(f transform.Frame, _ *transform.Table) string { return itoa(f.PSG.Tone[n].Freq) }})
		}
	}
	return cols
}

// csvColumns builds the column list of a feature selection. Chip
// features pick what is dumped and the other features pick the
// fields dumped for each of them.
func csvColumns(features []string) ([]column, error) {
	var ymft, chft, opft, snft, toft, dacft []string
	for _, ft := range features {
		ft = strings.ToLower(strings.TrimSpace(ft))
		switch {
		case ft == "":
		case chipFeatures[ft]:
			ymft = append(ymft, ft)
		case channelFeatures[ft]:
			chft = append(chft, ft)
		case operatorFeatures[ft]:
			opft = append(opft, ft)
		case psgFeatures[ft]:
			snft = append(snft, ft)
		case toneFeatures[ft]:
			toft = append(toft, ft)
		case dacFeatures[ft]:
			dacft = append(dacft, ft)
		default:
			return nil, &UnknownFeatureError{Feature: ft}
		}
	}
	ymft, chft, snft = expand(ymft), expand(chft), expand(snft)

	cols := []column{{"Time", func(f transform.Frame, _ *transform.Table) string { return itoa(f.T) }}}
	for _, ft := range ymft {
		switch ft {
		case "lfo":
			cols = append(cols,
				column{"LFO En", func(f transform.Frame, _ *transform.Table) string { return itoa(f.FM.LFOEn) }},
				column{"LFO", func(f transform.Frame, _ *transform.Table) string { return itoa(f.FM.LFO) }})
		case "dac":
			cols = append(cols, column{"DAC En", func(f transform.Frame, _ *transform.Table) string { return itoa(f.FM.DACEn) }})
		default:
			cols = append(cols, channelColumns(int(ft[2]-'1'), chft, opft)...)
		}
	}
	for _, ch := range snft {
		cols = append(cols, psgColumns(ch, toft)...)
	}
	for _, ft := range dacft {
		switch ft {
		case "dacid":
			cols = append(cols, column{"DAC ID", func(f transform.Frame, _ *transform.Table) string { return itoa(f.DAC.KeyID) }})
		case "dacinfo":
			cols = append(cols, column{"DAC Sample Pos:Len", func(f transform.Frame, t *transform.Table) string {
				p, _ := t.Play(f.DAC.KeyID)
				return fmt.Sprintf("%d:%d", f.DAC.Begin, p.Length)
			}})
		}
	}
	return cols, nil
}

// CSV writes the selected features of every row as CSV with a header line
func (c *Converter) CSV(w io.Writer, data []byte, features []string) error {
	cols, err := csvColumns(features)
	if err != nil {
		return err
	}
	frames, table, err := c.frames(data, nil)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	record := make([]string, len(cols))
	for i, col := range cols {
		record[i] = col.header
	}
	if err := cw.Write(record); err != nil {
		return err
	}
	for _, f := range frames {
		for i, col := range cols {
			record[i] = col.value(f, table)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Commands writes the decoded command stream, one command per line
func (c *Converter) Commands(w io.Writer, data []byte) error {
	song, err := vgm.Load(bytes.NewReader(data))
	if err != nil {
		return err
	}
	r := vgm.NewReader(song)
	for {
		cmd, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-32s %s\n", cmd, transform.Classify(cmd).Kind); err != nil {
			return err
		}
	}
}

// DecompressFile unwraps a gzip or zlib file and reports the method used
func (c *Converter) DecompressFile(inputPath, outputPath string) (vgm.Method, error) {
	data, err := afero.ReadFile(c.fs, inputPath)
	if err != nil {
		return "", fmt.Errorf("failed to read input file: %w", err)
	}
	c.logf("Decompressing...")
	out, method, err := vgm.Decompress(data)
	if err != nil {
		return "", fmt.Errorf("unable to decompress %q: %w", inputPath, err)
	}
	if err := afero.WriteFile(c.fs, outputPath, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return method, nil
}
