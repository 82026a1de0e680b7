// Package main is the entry point for vgm2fur CLI
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/james-see/vgm2fur/pkg/api"
	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/converter"
	"github.com/james-see/vgm2fur/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfg        = converter.DefaultConfig()
	outputFile string
	latchName  string
	noCompress bool
	chipNames  []string
	features   []string
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vgm2fur",
	Short: "Convert Sega Genesis VGM logs into Furnace tracker modules",
	Long: `vgm2fur replays the YM2612 and SN76489 register writes of a VGM log,
samples the chip state once per tracker row and writes the rows out as a
Furnace (.fur) module with one instrument per distinct FM voice.

Examples:
  vgm2fur convert song.vgz -o song.fur
  vgm2fur convert song.vgm --rate 50 --patlen 64 --dac
  vgm2fur print song.vgm --rowdur 0
  vgm2fur csv song.vgm -f fm1,id,freqfm,psgx,vol
  vgm2fur inspect song.fur
  vgm2fur tui
  vgm2fur serve --port 8080`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input.vgm>",
	Short: "Convert a VGM or VGZ log to a Furnace module",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var printCmd = &cobra.Command{
	Use:   "print <input.vgm>",
	Short: "Print the chip state of every row",
	Long: `Prints one line of chip state per tracker row. With --rowdur 0 the
sparse state table is printed instead, one line per change, prefixed by
its sample time.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrint,
}

var csvCmd = &cobra.Command{
	Use:   "csv <input.vgm>",
	Short: "Dump selected chip state features as CSV",
	Long: `Dumps the selected features of every row as CSV.

Chip features: fm1..fm6 fmx lfo dac psg1..psg3 noise psgt psgx dacid dacinfo
FM channel features: id opmask freqfm alg fb mod pan op1..op4 opx
FM operator features: mult dt tl ar rs dr am sr rr sl ssg
PSG features: vol freqpsg nmode`,
	Args: cobra.ExactArgs(1),
	RunE: runCSV,
}

var commandsCmd = &cobra.Command{
	Use:   "commands <input.vgm>",
	Short: "Dump the decoded VGM command stream",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommands,
}

var decompressCmd = &cobra.Command{
	Use:   "decompress <input.vgz>",
	Short: "Unwrap a gzip or zlib compressed file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecompress,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <module.fur>",
	Short: "Show and verify the structure of a Furnace module",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var midiCmd = &cobra.Command{
	Use:   "midi <input.vgm>",
	Short: "Export the note rows of a VGM log as a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

// addTimingFlags binds the row timing flags shared by the dump and export commands
func addTimingFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&cfg.RowDuration, "rowdur", "r", 0, "Row duration in samples (default: from --rate or the VGM header)")
	cmd.Flags().Float64Var(&cfg.Rate, "rate", 0, "Row rate in Hz")
	cmd.Flags().IntVarP(&cfg.Skip, "skip", "s", 0, "Samples to skip at the start")
	cmd.Flags().StringVar(&latchName, "latch", "relaxed", "Frequency latch policy (relaxed, gated)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
}

func init() {
	for _, cmd := range []*cobra.Command{convertCmd, printCmd, csvCmd, midiCmd} {
		addTimingFlags(cmd)
	}

	// convert command
	convertCmd.Flags().IntVarP(&cfg.PatternLength, "patlen", "l", cfg.PatternLength, "Pattern length in rows (1-256)")
	convertCmd.Flags().Float64Var(&cfg.FMVolume, "fm-volume", cfg.FMVolume, "FM chip volume")
	convertCmd.Flags().Float64Var(&cfg.PSGVolume, "psg-volume", cfg.PSGVolume, "PSG chip volume")
	convertCmd.Flags().BoolVar(&cfg.DAC, "dac", false, "Export DAC samples on FM6")
	convertCmd.Flags().BoolVar(&noCompress, "no-compress", false, "Write an uncompressed module")

	// print command
	printCmd.Flags().StringSliceVar(&chipNames, "chips", []string{"ym2612", "sn76489"}, "Chips to print")

	// csv command
	csvCmd.Flags().StringSliceVarP(&features, "features", "f", converter.DefaultFeatures, "Features to dump")

	// commands, decompress
	commandsCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	decompressCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(csvCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(decompressCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// progress returns where stage lines go: stdout on a terminal, stderr
// when stdout is piped or streams carry the command output
func progress(streaming bool) io.Writer {
	if streaming || !term.IsTerminal(int(os.Stdout.Fd())) {
		return os.Stderr
	}
	return os.Stdout
}

func warn(err error) {
	fmt.Fprintf(os.Stderr, "warning: %v\n", err)
}

// newConverter applies the flags that are not bound to cfg directly.
// streaming is set when the command output goes to stdout.
func newConverter(streaming bool) (*converter.Converter, error) {
	policy, ok := chips.ParseLatchPolicy(strings.ToLower(latchName))
	if !ok {
		return nil, fmt.Errorf("%w: unknown latch policy %q", converter.ErrInvalidConfig, latchName)
	}
	cfg.Latch = policy
	cfg.Compress = !noCompress
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return converter.New(cfg).WithLog(progress(streaming)).WithWarn(warn), nil
}

func getOutputPath(input string, format converter.Format) string {
	if outputFile != "" {
		return outputFile
	}
	return converter.OutputPath(input, format)
}

// writeOutput runs dump with the output file, or stdout when none is given
func writeOutput(dump func(io.Writer) error) error {
	if outputFile == "" {
		w := bufio.NewWriter(os.Stdout)
		if err := dump(w); err != nil {
			return err
		}
		return w.Flush()
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := dump(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(st.Size()))
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, converter.FormatFurnace)
	conv, err := newConverter(false)
	if err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s\n", input, output)
	res, err := conv.ConvertFile(input, output)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s): %d rows of %.0f samples, %d orders, %d instruments, %d samples\n",
		output, humanize.Bytes(uint64(len(res.Data))), res.Rows, res.RowDuration, res.Orders, res.Instruments, res.Samples)
	if n := len(res.Warnings); n > 0 {
		fmt.Fprintf(os.Stderr, "%d warnings\n", n)
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runPrint(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("rowdur") && cfg.RowDuration == 0 {
		cfg.Sparse = true
	}
	kinds := make([]chips.Kind, 0, len(chipNames))
	for _, name := range chipNames {
		k, err := chips.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}
	conv, err := newConverter(outputFile == "")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return writeOutput(func(w io.Writer) error {
		return conv.Print(w, data, kinds...)
	})
}

func runCSV(cmd *cobra.Command, args []string) error {
	conv, err := newConverter(outputFile == "")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	return writeOutput(func(w io.Writer) error {
		return conv.CSV(w, data, features)
	})
}

func runCommands(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	conv := converter.New(cfg)
	return writeOutput(func(w io.Writer) error {
		return conv.Commands(w, data)
	})
}

func runDecompress(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, converter.FormatVGM)
	if output == input {
		return fmt.Errorf("output would overwrite %s, use -o", input)
	}
	conv := converter.New(cfg).WithLog(progress(false))
	method, err := conv.DecompressFile(input, output)
	if err != nil {
		return err
	}
	fmt.Printf("Decompressed %s -> %s (%s, %s)\n", input, output, method, fileSize(output))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	info, err := converter.New(cfg).Inspect(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", args[0], fileSize(args[0]))
	fmt.Printf("  Version:      %d\n", info.Version)
	fmt.Printf("  Compressed:   %v\n", info.Compressed)
	fmt.Printf("  Tick rate:    %.4f Hz\n", info.TicksPerSecond)
	fmt.Printf("  Orders:       %d x %d rows\n", info.Orders, info.PatternLength)
	fmt.Printf("  Instruments:  %d\n", len(info.Instruments))
	fmt.Printf("  Samples:      %d\n", len(info.Samples))
	fmt.Printf("  Patterns:     %d\n", len(info.Patterns))
	if info.Comment != "" {
		fmt.Printf("  Comment:      %s\n", info.Comment)
	}
	fmt.Println("All pointers verified.")
	return nil
}

func runMIDI(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, converter.FormatMIDI)
	conv, err := newConverter(false)
	if err != nil {
		return err
	}

	fmt.Printf("Exporting %s -> %s\n", input, output)
	if err := conv.ExportMIDIFile(input, output); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s)\n", output, fileSize(output))
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)
	return api.StartServer(serverPort)
}
