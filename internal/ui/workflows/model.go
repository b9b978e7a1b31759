package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/theme"
	"github.com/devel-adr/medistream/internal/workflow"
)

// RefreshRequestMsg asks for an immediate workflow refresh.
type RefreshRequestMsg struct{}

// maxExecutions is how many executions are listed per workflow.
const maxExecutions = 5

// Model is the workflow status panel.
type Model struct {
	keys      *keys.KeyMap
	snapshots []workflow.Snapshot
	enabled   bool
	now       func() time.Time
	width     int
	height    int
}

// New creates the workflow panel. A disabled panel only explains how to
// configure workflows.
func New(k *keys.KeyMap, enabled bool, width, height int) Model {
	return Model{
		keys:    k,
		enabled: enabled,
		now:     time.Now,
		width:   width,
		height:  height,
	}
}

// SetSnapshots replaces the shown workflow states.
func (m *Model) SetSnapshots(s []workflow.Snapshot) {
	m.snapshots = s
}

// Update handles messages for the workflow panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.enabled && key.Matches(keyMsg, m.keys.Refresh) {
		return m, func() tea.Msg { return RefreshRequestMsg{} }
	}
	return m, nil
}

// View renders one block per workflow.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Workflow executions")

	if !m.enabled {
		return lipgloss.JoinVertical(lipgloss.Left, title, theme.DimmedStyle.Render(
			"No workflows configured.\nSet workflow.workflow_ids and workflow.relay_url in the config file."))
	}

	blocks := []string{title}
	for _, s := range m.snapshots {
		blocks = append(blocks, m.renderSnapshot(s))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(blocks, "\n\n"))
}

func (m Model) renderSnapshot(s workflow.Snapshot) string {
	name := s.Name
	if name == "" {
		name = "workflow " + s.WorkflowID
	}

	head := lipgloss.NewStyle().Bold(true).Render(name)
	if latest, ok := s.Latest(); ok {
		head += " " + statusBadge(latest.Status)
	}

	var footer string
	switch {
	case s.Error != "":
		footer = theme.ErrorStyle.Render("⚠ " + s.Error)
		if !s.UpdatedAt.IsZero() {
			footer += theme.DimmedStyle.Render(" (showing data from " + s.UpdatedAt.Local().Format("15:04:05") + ")")
		}
	case s.UpdatedAt.IsZero():
		footer = theme.DimmedStyle.Render("loading...")
	default:
		footer = theme.DimmedStyle.Render("last updated " + s.UpdatedAt.Local().Format("15:04:05"))
	}

	lines := []string{head}
	if len(s.Executions) == 0 && s.Error == "" && !s.UpdatedAt.IsZero() {
		lines = append(lines, theme.DimmedStyle.Render("  no executions"))
	}
	for i, e := range s.Executions {
		if i == maxExecutions {
			break
		}
		lines = append(lines, m.renderExecution(e))
	}
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}

func (m Model) renderExecution(e workflow.ClassifiedExecution) string {
	started := "not started"
	if e.StartedAt != nil {
		started = e.StartedAt.Local().Format("Jan 02 15:04:05")
	}
	return fmt.Sprintf("  #%-8s %-10s %s  %s  %s",
		e.ID, statusBadge(e.Status), e.Mode, started,
		theme.DimmedStyle.Render(duration(e, m.now())))
}

func statusBadge(s workflow.Status) string {
	return theme.ExecutionStatusStyle(string(s)).Render(string(s))
}

// duration is the run time of a stopped execution, or the time since
// start of one still going.
func duration(e workflow.ClassifiedExecution, now time.Time) string {
	if e.StartedAt == nil {
		return ""
	}
	end := now
	if e.StoppedAt != nil {
		end = *e.StoppedAt
	}
	return end.Sub(*e.StartedAt).Round(time.Second).String()
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
