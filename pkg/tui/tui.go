// Package tui provides a terminal user interface for single-saberize
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrokenLinc/single-saberize/pkg/beatmap"
	"github.com/BrokenLinc/single-saberize/pkg/converter"
	"github.com/BrokenLinc/single-saberize/pkg/converter/schemas"
	"github.com/BrokenLinc/single-saberize/pkg/logging"
	"github.com/BrokenLinc/single-saberize/pkg/songpack"
	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Saber colours
var (
	saberBlue = lipgloss.Color("#1E90FF")
	saberRed  = lipgloss.Color("#FF2D2D")
	neonWhite = lipgloss.Color("#E0E0FF")
	darkGray  = lipgloss.Color("#222233")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(saberBlue).
			Background(darkGray).
			Padding(0, 2).
			MarginBottom(1)

	menuStyle = lipgloss.NewStyle().
			Foreground(neonWhite).
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(saberBlue).
			Bold(true).
			PaddingLeft(2)

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8888AA")).
			PaddingLeft(4)

	statusStyle = lipgloss.NewStyle().
			Foreground(neonWhite).
			PaddingTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(saberRed).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(saberBlue).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(saberBlue).
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

// Action is what a menu entry does
type Action int

const (
	ActionSongs Action = iota
	ActionDifficulty
	ActionToggleGenerate
	ActionExit
)

// MenuItem represents a menu option
type MenuItem struct {
	Title       string
	Description string
	Action      Action
}

var menuItems = []MenuItem{
	{Title: "Songs folder", Description: "Duplicate every song in a folder as a single-saber copy", Action: ActionSongs},
	{Title: "Single difficulty", Description: "Convert one difficulty file in place", Action: ActionDifficulty},
	{Title: "Generate missing tiers", Description: "Derive absent difficulties from denser ones", Action: ActionToggleGenerate},
	{Title: "Exit", Description: "Exit the application", Action: ActionExit},
}

// Options configures the conversions started from the TUI
type Options struct {
	Tiers        *beatmap.TierTable
	Songs        songpack.Options
	DropUnmerged bool
	Logger       *log.Logger
	StartDir     string // Where the picker opens, the working directory when empty
}

// Model represents the TUI model
type Model struct {
	opts       Options
	state      State
	menuIndex  int
	action     Action
	filePicker filepicker.Model
	spinner    spinner.Model
	selected   string
	report     *songpack.Report
	result     *converter.Result
	err        error
	width      int
	height     int
}

// songsDoneMsg signals the end of a songs folder run
type songsDoneMsg struct {
	report *songpack.Report
	err    error
}

// fileDoneMsg signals the end of a single difficulty conversion
type fileDoneMsg struct {
	result *converter.Result
	err    error
}

// Init initializes the TUI model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick)
}

// New creates a new TUI model
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	fp := filepicker.New()
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(saberBlue)

	return Model{
		opts:       opts,
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

// Update handles TUI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The picker needs every message while it is open
	if m.state == StateFilePicker {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.state = StateMenu
				return m, nil
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}

		var cmd tea.Cmd
		m.filePicker, cmd = m.filePicker.Update(msg)

		if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
			m.selected = path
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

	case songsDoneMsg:
		m.state = StateResult
		m.report = msg.report
		m.err = msg.err
		return m, nil

	case fileDoneMsg:
		m.state = StateResult
		m.result = msg.result
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
	case "enter", " ":
		item := menuItems[m.menuIndex]
		switch item.Action {
		case ActionExit:
			return m, tea.Quit
		case ActionToggleGenerate:
			m.opts.Songs.GenerateMissing = !m.opts.Songs.GenerateMissing
			return m, nil
		case ActionSongs:
			m.filePicker.DirAllowed = true
			m.filePicker.FileAllowed = false
			m.filePicker.AllowedTypes = nil
		case ActionDifficulty:
			m.filePicker.DirAllowed = false
			m.filePicker.FileAllowed = true
			m.filePicker.AllowedTypes = []string{".json", ".dat"}
		}
		m.action = item.Action
		m.state = StateFilePicker
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
		m.selected = ""
		m.report = nil
		m.result = nil
		return m, nil
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) newConverter() *converter.Converter {
	conv := converter.New(m.opts.Tiers, schemas.NewLegacy(), schemas.NewColorNotes())
	conv.SetDropUnmerged(m.opts.DropUnmerged)
	return conv
}

func (m Model) performConversion() tea.Cmd {
	conv := m.newConverter()
	selected, action, opts := m.selected, m.action, m.opts

	return func() tea.Msg {
		if action == ActionSongs {
			p := songpack.New(conv, opts.Songs, opts.Logger)
			report, err := p.ProcessSongs(context.Background(), selected)
			return songsDoneMsg{report: report, err: err}
		}

		base := strings.TrimSuffix(filepath.Base(selected), filepath.Ext(selected))
		d, err := beatmap.ParseDifficulty(base)
		if err != nil {
			return fileDoneMsg{err: err}
		}
		result, err := conv.ConvertFile(selected, "", d, 0)
		return fileDoneMsg{result: result, err: err}
	}
}

// View renders the TUI
func (m Model) View() string {
	var s strings.Builder

	s.WriteString(asciiLogo())
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

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return s.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" SINGLE SABERIZE "))
	s.WriteString("\n\n")

	for i, item := range menuItems {
		title := item.Title
		if item.Action == ActionToggleGenerate {
			title = fmt.Sprintf("%s [%s]", title, onOff(m.opts.Songs.GenerateMissing))
		}
		if i == m.menuIndex {
			s.WriteString(selectedStyle.Render(fmt.Sprintf("▸ %s", title)))
			s.WriteString("\n")
			s.WriteString(descStyle.Render(item.Description))
		} else {
			s.WriteString(menuStyle.Render(fmt.Sprintf("  %s", title)))
		}
		s.WriteString("\n")
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	what := "DIFFICULTY FILE"
	if m.action == ActionSongs {
		what = "SONGS FOLDER"
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf(" SELECT %s ", what)))
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
	s.WriteString(fmt.Sprintf("%s Converting %s...\n", m.spinner.View(), filepath.Base(m.selected)))
	if m.action == ActionSongs {
		s.WriteString(statusStyle.Render(fmt.Sprintf("  generate missing tiers: %s", onOff(m.opts.Songs.GenerateMissing))))
	}

	return boxStyle.Render(s.String())
}

func (m Model) viewResult() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(titleStyle.Render(" ERROR "))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(fmt.Sprintf("✗ Conversion failed: %s", m.err.Error())))
	} else {
		s.WriteString(titleStyle.Render(" SUCCESS "))
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ Conversion complete!"))
		s.WriteString("\n\n")
		switch {
		case m.report != nil:
			s.WriteString(fmt.Sprintf("Songs converted:  %d\n", m.report.SongsProcessed))
			s.WriteString(fmt.Sprintf("Songs skipped:    %d\n", m.report.SongsSkipped))
			s.WriteString(fmt.Sprintf("Files converted:  %d\n", m.report.FilesConverted))
			s.WriteString(fmt.Sprintf("Files failed:     %d\n", m.report.FilesFailed))
			s.WriteString(fmt.Sprintf("Tiers generated:  %d", m.report.TiersSynthesized))
		case m.result != nil:
			s.WriteString(fmt.Sprintf("File:   %s (%s)\n", filepath.Base(m.selected), m.result.Difficulty))
			s.WriteString(fmt.Sprintf("Notes:  %d in, %d out\n", m.result.NotesIn, m.result.NotesOut))
			s.WriteString(fmt.Sprintf("Hands:  %d left, %d right",
				m.result.Hands[beatmap.Left], m.result.Hands[beatmap.Right]))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press enter to continue"))

	return boxStyle.Render(s.String())
}

func asciiLogo() string {
	logo := `
   ___ _           _       ___      _              _
  / __(_)_ _  __ _| |___  / __| __ _| |__  ___ _ _(_)______
  \__ \ | ' \/ _' | / -_) \__ \/ _' | '_ \/ -_) '_| |_ / -_)
  |___/_|_||_\__, |_\___| |___/\__,_|_.__/\___|_| |_/__\___|
             |___/
`
	return lipgloss.NewStyle().Foreground(saberBlue).Render(logo)
}

// Run starts the TUI application
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
