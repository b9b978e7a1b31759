package command

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/theme"
	"github.com/devel-adr/medistream/internal/tone"
)

// Verb names a palette command.
type Verb string

const (
	VerbRefresh Verb = "refresh"
	VerbGoto    Verb = "goto"
	VerbMute    Verb = "mute"
	VerbUnmute  Verb = "unmute"
	VerbVolume  Verb = "volume"
	VerbTone    Verb = "tone"
	VerbClear   Verb = "clear"
	VerbQuit    Verb = "quit"
)

// Panels are the goto targets, in tab order.
var Panels = []string{
	"medications", "unmet-needs", "tactics", "notifications", "workflows", "settings", "connections",
}

// Command is a parsed palette line.
type Command struct {
	Verb Verb
	// Kind is the dataset to refresh; empty means all of them.
	Kind   model.DatasetKind
	Panel  int
	Volume float64
	Tone   string
}

// CommandMsg is emitted when the user executes a valid command.
type CommandMsg struct {
	Command Command
}

// CancelMsg is emitted when the palette is dismissed.
type CancelMsg struct{}

var kindAliases = map[string]model.DatasetKind{
	"medications": model.KindMedications,
	"drugdealer":  model.KindMedications,
	"unmet-needs": model.KindUnmetNeeds,
	"unmet_needs": model.KindUnmetNeeds,
	"needs":       model.KindUnmetNeeds,
	"tactics":     model.KindTactics,
}

// Parse turns a palette line such as "refresh tactics" or "volume 40"
// into a Command.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	verb, args := Verb(fields[0]), fields[1:]

	switch verb {
	case VerbRefresh:
		if len(args) == 0 {
			return Command{Verb: verb}, nil
		}
		kind, ok := kindAliases[args[0]]
		if !ok {
			return Command{}, fmt.Errorf("unknown dataset %q", args[0])
		}
		return Command{Verb: verb, Kind: kind}, nil

	case VerbGoto:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: goto <%s>", strings.Join(Panels, "|"))
		}
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 && n <= len(Panels) {
			return Command{Verb: verb, Panel: n - 1}, nil
		}
		idx := slices.Index(Panels, args[0])
		if idx < 0 {
			return Command{}, fmt.Errorf("unknown panel %q", args[0])
		}
		return Command{Verb: verb, Panel: idx}, nil

	case VerbVolume:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("usage: volume <0-100>")
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(args[0], "%"))
		if err != nil || pct < 0 || pct > 100 {
			return Command{}, fmt.Errorf("volume must be a number from 0 to 100")
		}
		return Command{Verb: verb, Volume: float64(pct) / 100}, nil

	case VerbTone:
		names := tone.Names()
		if len(args) != 1 || !slices.Contains(names, args[0]) {
			return Command{}, fmt.Errorf("usage: tone <%s>", strings.Join(names, "|"))
		}
		return Command{Verb: verb, Tone: args[0]}, nil

	case VerbMute, VerbUnmute, VerbClear, VerbQuit:
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return Command{Verb: verb}, nil
	}
	return Command{}, fmt.Errorf("unknown command %q", fields[0])
}

// suggestions lists every complete command line for tab completion.
func suggestions() []string {
	out := []string{"refresh", "mute", "unmute", "clear", "quit"}
	for _, k := range []string{"medications", "unmet-needs", "tactics"} {
		out = append(out, "refresh "+k)
	}
	for _, p := range Panels {
		out = append(out, "goto "+p)
	}
	for _, t := range tone.Names() {
		out = append(out, "tone "+t)
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh tactics, goto settings, volume 40..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(suggestions())
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Open resets the palette and gives it keyboard focus.
func (m *Model) Open() tea.Cmd {
	m.input.Reset()
	m.err = nil
	return m.input.Focus()
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, func() tea.Msg { return CancelMsg{} }
		case "enter":
			cmd, err := Parse(m.input.Value())
			if err != nil {
				m.err = err
				return m, nil
			}
			m.input.Reset()
			m.input.Blur()
			m.err = nil
			return m, func() tea.Msg { return CommandMsg{Command: cmd} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("Command"), m.input.View()}
	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}
	parts = append(parts, "", theme.HelpStyle.Render(
		"refresh [dataset] · goto <panel> · mute · unmute · volume <0-100> · tone <name> · clear · quit",
	))

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}
