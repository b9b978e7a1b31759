package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/theme"
)

// ClearRequestMsg asks for the notification history to be emptied.
type ClearRequestMsg struct{}

// Model is the notification list panel.
type Model struct {
	keys    *keys.KeyMap
	records []model.NotificationRecord
	unread  int
	cursor  int
	offset  int
	now     func() time.Time
	width   int
	height  int
}

// New creates a new notification panel.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// SetRecords replaces the list, most recent first.
func (m *Model) SetRecords(records []model.NotificationRecord) {
	m.records = records
	if m.cursor >= len(records) {
		m.cursor = max(len(records)-1, 0)
	}
	m.clampOffset()
}

// Push records that rec was appended while the panel was not looked at.
// The list itself is refreshed through SetRecords.
func (m *Model) Push(rec model.NotificationRecord) {
	m.unread++
}

// Unread returns the number of notifications appended since the panel
// was last opened.
func (m Model) Unread() int {
	return m.unread
}

// MarkRead resets the unread counter.
func (m *Model) MarkRead() {
	m.unread = 0
}

// Update handles messages for the notification panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.ClearNotifications):
		if len(m.records) == 0 {
			return m, nil
		}
		return m, func() tea.Msg { return ClearRequestMsg{} }
	}
	m.clampOffset()
	return m, nil
}

// clampOffset scrolls so the cursor stays in the visible window.
func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// visibleRows is how many two-line entries fit below the title.
func (m Model) visibleRows() int {
	rows := (m.height - 2) / 2
	if rows < 1 {
		return 1
	}
	return rows
}

// View renders the notification list.
func (m Model) View() string {
	title := theme.TitleStyle.Render(fmt.Sprintf("Notifications (%d/%d)", len(m.records), model.MaxNotifications))

	if len(m.records) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height-2).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications yet.\nNew rows in any dataset show up here.")
		return lipgloss.JoinVertical(lipgloss.Left, title, empty)
	}

	end := min(m.offset+m.visibleRows(), len(m.records))
	lines := []string{title}
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRecord(m.records[i], i == m.cursor))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m Model) renderRecord(rec model.NotificationRecord, selected bool) string {
	head := fmt.Sprintf("%s %s  %s",
		theme.KindStyle(string(rec.Kind)).Render(rec.Kind.Label()),
		rec.Title,
		theme.DimmedStyle.Render(age(rec.CreatedAt, m.now())),
	)

	var details []string
	if rec.Details.Laboratory != "" {
		details = append(details, "lab: "+rec.Details.Laboratory)
	}
	if rec.Details.DrugName != "" {
		details = append(details, "drug: "+rec.Details.DrugName)
	}
	if rec.Details.UserEmail != "" {
		details = append(details, "for "+rec.Details.UserEmail)
	}
	body := rec.Message
	if len(details) > 0 {
		body += theme.DimmedStyle.Render("  (" + strings.Join(details, ", ") + ")")
	}

	entry := head + "\n  " + body
	if selected {
		return theme.SelectedItemStyle.Render(entry)
	}
	return theme.ListItemStyle.Render(entry)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampOffset()
}

func age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("Jan 02 15:04")
	}
}
