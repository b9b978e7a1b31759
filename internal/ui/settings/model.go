package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/theme"
	"github.com/devel-adr/medistream/internal/tone"
)

// SaveMsg carries settings the user submitted.
type SaveMsg struct {
	Settings model.NotificationSettings
}

// TestToneMsg asks for the configured tone to be played once.
type TestToneMsg struct {
	Tone   string
	Volume float64
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	enabled bool
	volume  string
	tone    string
}

// Model is the notification settings panel.
type Model struct {
	keys    *keys.KeyMap
	form    *huh.Form
	fb      *formBindings
	current model.NotificationSettings
	message string
	width   int
	height  int
}

// New creates the settings panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:    k,
		fb:      &formBindings{},
		current: model.DefaultNotificationSettings(),
		width:   width,
		height:  height,
	}
}

// SetSettings shows s as the current settings.
func (m *Model) SetSettings(s model.NotificationSettings) {
	m.current = s
}

// SetMessage shows a one-line result, e.g. of a save.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Editing reports whether the form has focus.
func (m Model) Editing() bool {
	return m.form != nil
}

// StartEdit opens the form filled with the current settings.
func (m *Model) StartEdit() tea.Cmd {
	m.fb.enabled = m.current.Enabled
	m.fb.volume = strconv.Itoa(int(math.Round(m.current.Volume * 100)))
	m.fb.tone = m.current.Tone
	m.message = ""

	opts := make([]huh.Option[string], 0, len(tone.Names()))
	for _, name := range tone.Names() {
		opts = append(opts, huh.NewOption(name, name))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sound enabled").
				Affirmative("On").
				Negative("Off").
				Value(&m.fb.enabled),
			huh.NewInput().
				Title("Volume").
				Description("0-100; 0 turns sound off").
				Value(&m.fb.volume).
				Validate(validateVolume),
			huh.NewSelect[string]().
				Title("Tone").
				Options(opts...).
				Value(&m.fb.tone),
		),
	).WithWidth(min(max(m.width-4, 40), 80)).WithKeyMap(formKeyMap())
	return m.form.Init()
}

// Update handles messages for the settings panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.StartEdit()
	case key.Matches(keyMsg, m.keys.TestTone):
		volume := m.current.Volume
		if volume == 0 {
			volume = model.DefaultVolume
		}
		msg := TestToneMsg{Tone: m.current.Tone, Volume: volume}
		return m, func() tea.Msg { return msg }
	}
	return m, nil
}

// formKeyMap lets esc abort the form as well as ctrl+c.
func formKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return km
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		next := m.fb.settings()
		return m, func() tea.Msg { return SaveMsg{Settings: next} }
	case huh.StateAborted:
		m.form = nil
		return m, nil
	}
	return m, cmd
}

// settings converts the bindings. Volume was validated by the form.
func (fb *formBindings) settings() model.NotificationSettings {
	v, _ := parseVolume(fb.volume)
	return model.NotificationSettings{
		Enabled: fb.enabled,
		Volume:  v,
		Tone:    fb.tone,
	}
}

// View renders the settings panel.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Notification settings")

	if m.form != nil {
		return theme.PanelStyle.Render(title + "\n" + m.form.View())
	}

	state := "off"
	if m.current.Enabled {
		state = "on"
	}
	if !m.current.Audible() {
		state += theme.DimmedStyle.Render(" (silent)")
	}

	lines := []string{
		title,
		fmt.Sprintf("Sound:  %s", state),
		fmt.Sprintf("Volume: %s", volumeBar(m.current.Volume)),
		fmt.Sprintf("Tone:   %s", m.current.Tone),
		"",
		theme.HelpStyle.Render("e edit | t test tone"),
	}
	if m.message != "" {
		lines = append(lines, "", m.message)
	}

	return theme.PanelStyle.
		Width(min(max(m.width-4, 40), 80)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func volumeBar(v float64) string {
	const slots = 20
	filled := int(math.Round(v * slots))
	return strings.Repeat("█", filled) + strings.Repeat("░", slots-filled) +
		fmt.Sprintf(" %d%%", int(math.Round(v*100)))
}

func parseVolume(s string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")))
	if err != nil || n < 0 || n > 100 {
		return 0, fmt.Errorf("volume must be a whole number from 0 to 100")
	}
	return float64(n) / 100, nil
}

func validateVolume(s string) error {
	_, err := parseVolume(s)
	return err
}
