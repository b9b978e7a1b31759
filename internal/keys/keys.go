package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down    key.Binding
	Up      key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Command palette
	Command key.Binding

	// Manual refresh of the active dataset
	Refresh key.Binding

	// Filter cascade
	FilterLaboratory key.Binding
	FilterDrug       key.Binding
	FilterArea       key.Binding
	ClearFilters     key.Binding
	FavoritesOnly    key.Binding

	// Sort
	SortColumnNext key.Binding
	SortColumnPrev key.Binding
	ToggleSort     key.Binding

	// Record actions
	Detail   key.Binding
	New      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Favorite key.Binding

	// Panels
	ClearNotifications key.Binding
	TestTone           key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous panel"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh / retry"),
		),
		FilterLaboratory: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "cycle laboratory"),
		),
		FilterDrug: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "cycle drug"),
		),
		FilterArea: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "cycle therapeutic area"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		FavoritesOnly: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "favourites only"),
		),
		SortColumnNext: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next sort column"),
		),
		SortColumnPrev: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous sort column"),
		),
		ToggleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort asc/desc/off"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new record"),
		),
		Detail: key.NewBinding(
			key.WithKeys("enter", "v"),
			key.WithHelp("enter", "record details"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit record"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete record"),
		),
		Favorite: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "toggle favourite"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		ClearNotifications: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear notifications"),
		),
		TestTone: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test tone"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.NextTab, k.Search,
		k.Refresh, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab, k.Back, k.Quit},
		{k.Search, k.FilterLaboratory, k.FilterDrug, k.FilterArea, k.ClearFilters, k.FavoritesOnly},
		{k.SortColumnPrev, k.SortColumnNext, k.ToggleSort, k.Refresh, k.Help, k.Command},
		{k.Detail, k.New, k.Edit, k.Delete, k.Favorite},
		{k.ClearNotifications, k.TestTone},
	}
}
