package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorTeal    = lipgloss.AdaptiveColor{Dark: "#38D9A9", Light: "#0C8599"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// TabStyle and ActiveTabStyle render the panel switcher below the header.
var (
	TabStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue).
			Underline(true).
			Padding(0, 1)
)

// PanelStyle wraps full-screen panels such as help and settings.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// TitleStyle renders panel titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// StaleStyle marks data that may be out of date because the last poll failed.
var StaleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// ErrorStyle renders error lines.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// BadgeStyle renders the unread notification counter.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorRed).
	Padding(0, 1)

// FavoriteStyle renders the favourite marker.
var FavoriteStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ExecutionStatusStyle returns a color-coded style for a derived
// workflow execution status.
func ExecutionStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case "running":
		return base.Foreground(ColorBlue)
	case "success":
		return base.Foreground(ColorGreen)
	case "error":
		return base.Foreground(ColorRed)
	case "waiting":
		return base.Foreground(ColorYellow)
	case "canceled":
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}

// KindStyle returns the accent style of a dataset kind label.
func KindStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch kind {
	case "medications":
		return base.Foreground(ColorTeal)
	case "unmet_needs":
		return base.Foreground(ColorMagenta)
	case "tactics":
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}
