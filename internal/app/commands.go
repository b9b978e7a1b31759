package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/devel-adr/medistream/internal/ui/command"
)

// runCommand executes a command palette line.
func (m Model) runCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Verb {
	case command.VerbRefresh:
		if c.Kind == "" {
			m.flash = "refreshing all datasets"
			return m, m.deps.Poller.RefreshAll()
		}
		m.flash = "refreshing " + c.Kind.Label()
		return m, m.deps.Poller.Refresh(c.Kind)

	case command.VerbGoto:
		m.switchPanel(c.Panel - int(m.activePanel))
		return m, nil

	case command.VerbClear:
		return m, m.clearNotifications()

	case command.VerbQuit:
		return m, m.quit()
	}

	if m.deps.Settings == nil {
		m.flash = "notification settings are not available"
		return m, nil
	}
	next := m.deps.Settings.Current()
	switch c.Verb {
	case command.VerbMute:
		next.SetEnabled(false)
		m.flash = "notification sounds muted"
	case command.VerbUnmute:
		next.SetEnabled(true)
		m.flash = "notification sounds on"
	case command.VerbVolume:
		next.Volume = c.Volume
		m.flash = fmt.Sprintf("volume %d%%", int(c.Volume*100+0.5))
		if c.Volume == 0 {
			m.flash += ", sounds muted"
		}
	case command.VerbTone:
		next.Tone = c.Tone
		m.flash = "tone " + c.Tone
	default:
		return m, nil
	}
	return m, m.saveSettings(next)
}

