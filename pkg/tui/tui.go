// Package tui is the interactive front end of osu2sm: pick a conversion, pick
// a file, and the result is written next to the input.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/james-see/osu2sm/pkg/config"
	"github.com/james-see/osu2sm/pkg/converter"
	"github.com/james-see/osu2sm/pkg/preview"
)

var (
	padPink   = lipgloss.Color("#FF3EA5")
	arrowCyan = lipgloss.Color("#00E5FF")
	paleGray  = lipgloss.Color("#C8C8D0")
	nightBlue = lipgloss.Color("#1B1B2F")
	missRed   = lipgloss.Color("#FF0000")
	dimGray   = lipgloss.Color("#666666")
)

type theme struct {
	title, item, selected, detail, status, fail, pass, help, box lipgloss.Style
}

func newTheme() theme {
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(padPink).Background(nightBlue).Padding(0, 2).MarginBottom(1),
		item:     lipgloss.NewStyle().Foreground(paleGray).PaddingLeft(2),
		selected: lipgloss.NewStyle().Foreground(padPink).Bold(true).PaddingLeft(2),
		detail:   lipgloss.NewStyle().Foreground(arrowCyan).PaddingLeft(4),
		status:   lipgloss.NewStyle().Foreground(arrowCyan).PaddingTop(1),
		fail:     lipgloss.NewStyle().Foreground(missRed).Bold(true),
		pass:     lipgloss.NewStyle().Foreground(arrowCyan).Bold(true),
		help:     lipgloss.NewStyle().Foreground(dimGray).MarginTop(1),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(padPink).Padding(1, 2),
	}
}

type keyMap struct {
	Up, Down, Select, Back, Quit key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Back:   key.NewBinding(key.WithKeys("esc")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// State is the screen the TUI is on
type State int

const (
	StateMenu State = iota
	StateFilePicker
	StateConverting
	StateResult
)

// MenuItem is one conversion offered by the menu. The last item exits.
type MenuItem struct {
	Title       string
	Description string
	FromFormat  converter.Format
	OutputExt   string
}

var menuItems = []MenuItem{
	{Title: "OSU → SM", Description: "Convert an osu! beatmap to a StepMania simfile", FromFormat: converter.FormatOsu, OutputExt: ".sm"},
	{Title: "OSU → MIDI", Description: "Render an osu! beatmap as a drum track", FromFormat: converter.FormatOsu, OutputExt: ".mid"},
	{Title: "MIDI → SM", Description: "Chart a MIDI file as a StepMania simfile", FromFormat: converter.FormatMIDI, OutputExt: ".sm"},
	{Title: "SM → TXT", Description: "Re-encode simfile charts on a 192-row grid", FromFormat: converter.FormatSM, OutputExt: ".txt"},
	{Title: "OSU → PNG", Description: "Preview the converted chart as an image", FromFormat: converter.FormatOsu, OutputExt: ".png"},
	{Title: "Exit", Description: "Exit the application"},
}

var allowedTypes = map[converter.Format][]string{
	converter.FormatOsu:  {".osu"},
	converter.FormatMIDI: {".mid", ".midi"},
	converter.FormatSM:   {".sm"},
}

// Model is the bubbletea model
type Model struct {
	cfg          config.Config
	theme        theme
	state        State
	menuIndex    int
	filePicker   filepicker.Model
	spinner      spinner.Model
	selectedFile string
	outputFile   string
	conversion   MenuItem
	err          error
}

type conversionDoneMsg struct {
	outputFile string
	err        error
}

// New builds a model whose conversions use cfg
func New(cfg config.Config) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".osu", ".mid", ".midi", ".sm"}
	fp.CurrentDirectory, _ = os.Getwd()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(padPink)

	return Model{
		cfg:        cfg,
		theme:      newTheme(),
		state:      StateMenu,
		filePicker: fp,
		spinner:    s,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// the picker consumes its own directory-read messages
	if m.state == StateFilePicker {
		return m.updatePicker(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.filePicker.SetHeight(msg.Height - 10)
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
		m.outputFile, m.err = msg.outputFile, msg.err
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Back):
			m.state = StateMenu
			return m, nil
		case key.Matches(k, keys.Quit):
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)
	if ok, path := m.filePicker.DidSelectFile(msg); ok {
		m.selectedFile = path
		m.state = StateConverting
		return m, tea.Batch(m.spinner.Tick, m.performConversion())
	}
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		m.menuIndex = max(m.menuIndex-1, 0)
	case key.Matches(msg, keys.Down):
		m.menuIndex = min(m.menuIndex+1, len(menuItems)-1)
	case key.Matches(msg, keys.Select):
		if m.menuIndex == len(menuItems)-1 {
			return m, tea.Quit
		}
		m.conversion = menuItems[m.menuIndex]
		m.state = StateFilePicker
		m.filePicker.AllowedTypes = allowedTypes[m.conversion.FromFormat]
		return m, m.filePicker.Init()
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateResult(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Select), key.Matches(msg, keys.Back):
		m.state = StateMenu
		m.err = nil
		m.selectedFile, m.outputFile = "", ""
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// convertFile runs item on input and returns the path written, which sits
// next to input with the item's extension.
func convertFile(cfg config.Config, item MenuItem, input string) (string, error) {
	conv, err := cfg.NewConverter()
	if err != nil {
		return "", err
	}
	output := strings.TrimSuffix(input, filepath.Ext(input)) + item.OutputExt

	if item.OutputExt != ".png" {
		if err := conv.ConvertFile(input, output); err != nil {
			return "", err
		}
		return output, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", err
	}
	chart, err := conv.OsuToChart(data)
	if err != nil {
		return "", err
	}
	return output, preview.WritePNG(chart, preview.DefaultOptions(), output)
}

func (m Model) performConversion() tea.Cmd {
	cfg, item, input := m.cfg, m.conversion, m.selectedFile
	return func() tea.Msg {
		out, err := convertFile(cfg, item, input)
		if err != nil {
			return conversionDoneMsg{err: err}
		}
		return conversionDoneMsg{outputFile: out}
	}
}

func (m Model) View() string {
	var body string
	switch m.state {
	case StateMenu:
		body = m.viewMenu()
	case StateFilePicker:
		body = m.viewFilePicker()
	case StateConverting:
		body = m.viewConverting()
	case StateResult:
		body = m.viewResult()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(padPink).Render(logo),
		body,
		m.theme.help.Render("↑/↓: navigate • enter: select • q: quit"),
	)
}

func (m Model) viewMenu() string {
	lines := []string{m.theme.title.Render(" SELECT CONVERSION "), ""}
	for i, item := range menuItems {
		if i != m.menuIndex {
			lines = append(lines, m.theme.item.Render("  "+item.Title))
			continue
		}
		lines = append(lines,
			m.theme.selected.Render("▸ "+item.Title),
			m.theme.detail.Render(item.Description))
	}
	lines = append(lines, m.theme.status.Render(fmt.Sprintf("lanes: %s × %d", m.cfg.Lanes, m.cfg.LaneCount)))
	return m.theme.box.Render(strings.Join(lines, "\n"))
}

func (m Model) viewFilePicker() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.title.Render(fmt.Sprintf(" SELECT %s FILE ", strings.ToUpper(string(m.conversion.FromFormat)))),
		m.filePicker.View(),
		m.theme.help.Render("esc: back to menu"),
	)
}

func (m Model) viewConverting() string {
	return m.theme.box.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.title.Render(" CONVERTING "),
		fmt.Sprintf("%s %s", m.spinner.View(), filepath.Base(m.selectedFile)),
		m.theme.status.Render(fmt.Sprintf("  %s → %s", m.conversion.FromFormat, strings.TrimPrefix(m.conversion.OutputExt, "."))),
	))
}

func (m Model) viewResult() string {
	var lines []string
	if m.err != nil {
		lines = append(lines,
			m.theme.title.Render(" ERROR "),
			m.theme.fail.Render("✗ "+m.err.Error()))
	} else {
		lines = append(lines,
			m.theme.title.Render(" DONE "),
			m.theme.pass.Render("✓ "+filepath.Base(m.selectedFile)+" → "+filepath.Base(m.outputFile)))
	}
	lines = append(lines, m.theme.help.Render("enter: back to menu"))
	return m.theme.box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

const logo = `
   ___  ___ _   _ ___  ___ __  __
  / _ \/ __| | | |_  )/ __|  \/  |
 | (_) \__ \ |_| |/ / \__ \ |\/| |
  \___/|___/\___//___||___/_|  |_|
`

// Run starts the TUI on the alternate screen
func Run(cfg config.Config) error {
	_, err := tea.NewProgram(New(cfg), tea.WithAltScreen()).Run()
	return err
}
