package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/theme"
)

// Layout manages the terminal layout dimensions: a header, a tab bar,
// the content area and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	TabBarHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// The header, tab bar and status bar are one line each.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		TabBarHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.TabBarHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top header bar with a title, an optional
// badge next to it and the poll status on the right.
func (l Layout) RenderHeader(title, badge, syncStatus string) string {
	left := theme.HeaderStyle.Render(title)
	if badge != "" {
		left = lipgloss.JoinHorizontal(lipgloss.Top, left, theme.BadgeStyle.Render(badge))
	}

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		left,
		l.filler(lipgloss.Width(left)+lipgloss.Width(statusRendered), theme.HeaderStyle),
		statusRendered,
	)
}

// RenderTabs renders the panel switcher with the active tab highlighted.
func (l Layout) RenderTabs(titles []string, active int) string {
	parts := make([]string, len(titles))
	for i, t := range titles {
		if i == active {
			parts[i] = theme.ActiveTabStyle.Render(t)
		} else {
			parts[i] = theme.TabStyle.Render(t)
		}
	}
	row := strings.Join(parts, theme.DimmedStyle.Render("│"))
	return lipgloss.NewStyle().MaxWidth(l.Width).Render(row)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		rendered,
		l.filler(lipgloss.Width(rendered), theme.StatusBarStyle),
	)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, tab bar, content area and status bar. The content is
// clipped to ContentHeight so the status bar stays on screen.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		tabs,
		content,
		statusBar,
	)
}

// filler pads a bar up to the full width using the bar's background.
func (l Layout) filler(used int, bar lipgloss.Style) string {
	gap := l.Width - used
	if gap < 0 {
		gap = 0
	}
	return lipgloss.NewStyle().
		Width(gap).
		Background(bar.GetBackground()).
		Render("")
}
