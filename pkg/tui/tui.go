// Package tui provides a terminal user interface for vgm2fur
package tui

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/james-see/vgm2fur/pkg/chips"
	"github.com/james-see/vgm2fur/pkg/converter"
)

// Genesis-inspired color scheme
var (
	segaBlue   = lipgloss.Color("#1E90FF")
	segaRed    = lipgloss.Color("#E60012")
	silverGray = lipgloss.Color("#C0C0C0")
	darkGray   = lipgloss.Color("#222222")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(segaBlue).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(segaBlue).
			Bold(true).
			PaddingLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(silverGray).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(segaRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00"))

	successStyle = lipgloss.NewStyle().
			Foreground(segaBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(segaBlue).
			Padding(1, 2)
)

// State represents the current TUI state
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// Action is the job a menu item runs on the picked file
type Action int

const (
	ActionFurnace Action = iota
	ActionFurnaceDAC
	ActionMIDI
	ActionCSV
	ActionText
	ActionDecompress
	ActionInspect
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
	FromFormat  string
	ToFormat    converter.Format
}

var menuItems = []MenuItem{
	{Title: "VGM → FUR", Description: "Convert a VGM log to a Furnace module", Action: ActionFurnace, FromFormat: "vgm", ToFormat: converter.FormatFurnace},
	{Title: "VGM → FUR + DAC", Description: "Convert a VGM log including its DAC samples", Action: ActionFurnaceDAC, FromFormat: "vgm", ToFormat: converter.FormatFurnace},
	{Title: "VGM → MIDI", Description: "Export the note rows of a VGM log as a MIDI file", Action: ActionMIDI, FromFormat: "vgm", ToFormat: converter.FormatMIDI},
	{Title: "VGM → CSV", Description: "Dump the per-row chip state as CSV", Action: ActionCSV, FromFormat: "vgm", ToFormat: converter.FormatCSV},
	{Title: "VGM → TXT", Description: "Dump the per-row chip state as text", Action: ActionText, FromFormat: "vgm", ToFormat: converter.FormatText},
	{Title: "VGZ → VGM", Description: "Decompress a gzip wrapped VGM log", Action: ActionDecompress, FromFormat: "vgz", ToFormat: converter.FormatVGM},
	{Title: "Inspect FUR", Description: "Show the structure of a Furnace module", Action: ActionInspect, FromFormat: "fur"},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// allowedTypes maps an input format to the extensions the file picker shows
var allowedTypes = map[string][]string{
	"vgm": {".vgm", ".vgz"},
	"vgz": {".vgz"},
	"fur": {".fur"},
}

// Model represents the TUI model
type Model struct {
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	summary      []string
	warnings     []error
	conversion   MenuItem
	err          error
	width        int
	height       int
}

// conversionDoneMsg signals conversion completion
type conversionDoneMsg struct {
	outputFile string
	summary    []string
	warnings   []error
	err        error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New() Model {
	// Initialize file picker
	fp := filepicker.New()
	fp.AllowedTypes = allowedTypes["vgm"]
	fp.CurrentDirectory, _ = os.Getwd()

	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(segaBlue)

	return Model{
		state:      StateMenu,
		menuIndex:  0,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle file picker state first - it needs to receive all messages
	if m.state == StateFilePicker {
		// Check for escape/quit keys first
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		// Pass all other messages to the file picker
		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		// Check if file was selected
		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = StateConverting
			return m, tea.Batch(m.spinner.Tick, m.performConversion())
		}

		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.filePicker.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StateMenu:
			return m.updateMenu(msg)
		case StateResult:
			return m.updateResult(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case conversionDoneMsg:
		m.state = StateResult
		m.outputFile = msg.outputFile
		m.summary = msg.summary
		m.warnings = msg.warnings
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuItems)-1 {
			m.menuIndex++
		}
	case "enter":
		if menuItems[m.menuIndex].Action == ActionExit {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = allowedTypes[m.conversion.FromFormat]
		return m, m.filePicker.Init()
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.state = StateMenu
		m.err = nil
		m.selectedFile = ""
		m.outputFile = ""
		m.summary = nil
		m.warnings = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) performConversion() tea.Cmd {
	item, input := m.conversion, m.selectedFile
	return func() tea.Msg {
		return run(item, input)
	}
}

// run executes a menu action on input and writes its output next to it
func run(item MenuItem, input string) conversionDoneMsg {
	cfg := converter.DefaultConfig()
	cfg.DAC = item.Action == ActionFurnaceDAC
	var warnings []error
	conv := converter.New(cfg).WithWarn(func(err error) { warnings = append(warnings, err) })

	if item.Action == ActionInspect {
		info, err := conv.Inspect(input)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{summary: []string{
			fmt.Sprintf("Version:     %d", info.Version),
			fmt.Sprintf("Tick rate:   %.2f Hz", info.TicksPerSecond),
			fmt.Sprintf("Orders:      %d x %d rows", info.Orders, info.PatternLength),
			fmt.Sprintf("Instruments: %d", len(info.Instruments)),
			fmt.Sprintf("Samples:     %d", len(info.Samples)),
			fmt.Sprintf("Patterns:    %d", len(info.Patterns)),
		}}
	}

	output := converter.OutputPath(input, item.ToFormat)
	var summary []string
	switch item.Action {
	case ActionFurnace, ActionFurnaceDAC:
		res, err := conv.ConvertFile(input, output)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		summary = append(summary,
			fmt.Sprintf("Rows:        %d (%d orders)", res.Rows, res.Orders),
			fmt.Sprintf("Instruments: %d", res.Instruments),
			fmt.Sprintf("Samples:     %d", res.Samples))
	case ActionMIDI:
		if err := conv.ExportMIDIFile(input, output); err != nil {
			return conversionDoneMsg{err: err}
		}
	case ActionCSV, ActionText:
		data, err := os.ReadFile(input)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		var buf bytes.Buffer
		if item.Action == ActionCSV {
			err = conv.CSV(&buf, data, converter.DefaultFeatures)
		} else {
			err = conv.Print(&buf, data, chips.Kinds...)
		}
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
			return conversionDoneMsg{err: err}
		}
	case ActionDecompress:
		method, err := conv.DecompressFile(input, output)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		summary = append(summary, fmt.Sprintf("Method:      %s", method))
	}

	if st, err := os.Stat(output); err == nil {
		summary = append(summary, fmt.Sprintf("Size:        %s", humanize.Bytes(uint64(st.Size()))))
	}
	return conversionDoneMsg{outputFile: output, summary: summary, warnings: warnings}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	// Header
	header := asciiLogo()
	s.WriteString(header)
	s.WriteString("\n")

	switch m.state {
	case StateMenu:
		s.WriteString(m.viewMenu())
	case StateFilePicker:
		s.WriteString(m.viewFilePicker())
	case StateConverting:
		s.WriteString(m.viewConverting())
	case StateResult:
		s.WriteString(m.viewResult())
	}

	// Footer help
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SELECT ACTION "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", item.Title)))
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(silverGray).PaddingLeft(4).Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", item.Title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(m.conversion.FromFormat))))
	s.WriteString("\n\n")
	s.WriteString(m.filePicker.View())
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("esc: back to menu"))

	return s.String()
}

func (m Model) viewConverting() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" CONVERTING "))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Processing %s...\n", m.spinner.View(), filepath.Base(m.selectedFile)))
	s.WriteString(statusStyle.Render(fmt.Sprintf("  %s", m.conversion.Title)))

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s failed: %s", m.conversion.Title, m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Done!"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Input:       %s\n", filepath.Base(m.selectedFile)))
		if m.outputFile != "" {
			s.WriteString(fmt.Sprintf("Output:      %s\n", filepath.Base(m.outputFile)))
		}
		for _, line := range m.summary {
			s.WriteString(line + "\n")
		}
		if len(m.warnings) > 0 {
			s.WriteString(warningStyle.Render(fmt.Sprintf("%d warnings, first: %v", len(m.warnings), m.warnings[0])))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
 __     ______ __  __ ____  _____ _   _ ____
 \ \   / / ___|  \/  |___ \|  ___| | | |  _ \
  \ \ / / |  _| |\/| | __) | |_  | | | | |_) |
   \ V /| |_| | |  | |/ __/|  _| | |_| |  _ <
    \_/  \____|_|  |_|_____|_|    \___/|_| \_\
`
	return lipgloss.NewStyle().Foreground(segaBlue).Render(logo)
}

// Run starts the TUI application
func Run() error {
	p := tea.NewProgram(New(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
