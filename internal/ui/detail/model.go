package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/crossref"
	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/theme"
)

// BackMsg signals the parent to navigate back to the panels.
type BackMsg struct{}

// EditRequestMsg asks the parent to open the form for the shown record.
type EditRequestMsg struct {
	Record model.Record
}

// longFields are shown below the column fields because they do not fit
// in a table cell.
var longFields = map[model.DatasetKind][]model.Column{
	model.KindMedications: {{Key: "notes", Title: "Notes"}},
	model.KindUnmetNeeds:  {{Key: "evidence", Title: "Evidence"}},
	model.KindTactics:     {{Key: "id_unmet_need", Title: "Unmet need"}},
}

// Model is the record detail view component.
type Model struct {
	record   model.Record
	links    []crossref.Link
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Record returns the record on display.
func (m Model) Record() model.Record {
	return m.record
}

// SetRecord shows rec together with its related rows.
func (m *Model) SetRecord(rec model.Record, links []crossref.Link) {
	m.record = rec
	m.links = links
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(keyMsg, m.keys.Edit):
			if m.record != nil {
				rec := m.record
				return m, func() tea.Msg { return EditRequestMsg{Record: rec} }
			}
		}
	}

	// j/k, pgup/pgdn scroll.
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.record == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No record selected")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	rec := m.record
	if rec == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections,
		titleStyle.Render(fmt.Sprintf("%s #%d", rec.Kind().Label(), rec.RecordID())),
		theme.KindStyle(string(rec.Kind())).Render(strings.ToUpper(string(rec.Kind()))),
		"",
	)

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	cols := append(append([]model.Column{}, rec.Columns()...), longFields[rec.Kind()]...)
	labelWidth := 0
	for _, c := range cols {
		labelWidth = max(labelWidth, lipgloss.Width(c.Title)+1)
	}
	for _, c := range cols {
		if c.Key == model.ColumnID {
			continue
		}
		v := rec.Field(c.Key)
		if v == "" {
			v = theme.DimmedStyle.Render("–")
		} else {
			v = valStyle.Render(v)
		}
		label := metaStyle.Width(labelWidth).Render(c.Title + ":")
		sections = append(sections, label+"  "+v)
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, headerStyle.Render(fmt.Sprintf("Related (%d)", len(m.links))))

	if len(m.links) == 0 {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No related rows in the other datasets"))
	}
	for _, l := range m.links {
		sections = append(sections, fmt.Sprintf("%s  %s #%d  %s",
			metaStyle.Render(string(l.Relation)),
			theme.KindStyle(string(l.Record.Kind())).Render(l.Record.Kind().Label()),
			l.Record.RecordID(),
			summary(l.Record),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}

func summary(rec model.Record) string {
	parts := []string{rec.Laboratory(), rec.DrugName()}
	switch v := rec.(type) {
	case model.UnmetNeed:
		parts = append(parts, v.Need)
	case model.PharmaTactic:
		parts = append(parts, v.Tactic)
	}
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}
