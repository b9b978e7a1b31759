package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/filter"
	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/store"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/internal/theme"
)

// RefreshRequestMsg asks for an immediate poll of the dataset.
type RefreshRequestMsg struct {
	Kind model.DatasetKind
}

// EditRequestMsg opens the record form. Record is nil for a new row.
type EditRequestMsg struct {
	Kind   model.DatasetKind
	Record model.Record
}

// DetailRequestMsg opens the detail view of Record.
type DetailRequestMsg struct {
	Record model.Record
}

// DeleteRequestMsg asks for confirmation before Record is deleted.
type DeleteRequestMsg struct {
	Record model.Record
}

// FavoritesLoadedMsg carries the persisted favourite set of a dataset.
type FavoritesLoadedMsg struct {
	Kind      model.DatasetKind
	Favorites map[int64]bool
	Err       error
}

// FavoriteSavedMsg reports the outcome of persisting a favourite toggle.
type FavoriteSavedMsg struct {
	Kind     model.DatasetKind
	ID       int64
	Favorite bool
	Err      error
}

// Model is the table view of one dataset.
type Model struct {
	kind        model.DatasetKind
	keys        *keys.KeyMap
	prefs       store.PreferenceStore
	table       table.Model
	records     []model.Record
	visible     []model.Record
	favorites   map[int64]bool
	criteria    filter.Criteria
	sort        filter.SortSpec
	sortCursor  int
	searchMode  bool
	searchInput textinput.Model
	status      appsync.SyncStatus
	loaded      bool
	errMsg      string
	now         func() time.Time
	width       int
	height      int
}

// New creates the view of one dataset. Favourites are read from and
// written to prefs.
func New(kind model.DatasetKind, prefs store.PreferenceStore, k *keys.KeyMap, width, height int) Model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue).
		Bold(false)
	t.SetStyles(styles)

	si := textinput.New()
	si.Placeholder = "search " + strings.ToLower(kind.Label()) + "..."
	si.Prompt = "/ "
	si.Width = width - 4

	m := Model{
		kind:        kind,
		keys:        k,
		prefs:       prefs,
		table:       t,
		favorites:   make(map[int64]bool),
		searchInput: si,
		status:      appsync.SyncStatus{Kind: kind},
		now:         time.Now,
		width:       width,
		height:      height,
	}
	m.table.SetColumns(m.columns())
	return m
}

// Kind returns the dataset this view shows.
func (m Model) Kind() model.DatasetKind {
	return m.kind
}

// Init returns a command that loads the favourite set.
func (m Model) Init() tea.Cmd {
	return m.LoadFavorites()
}

// LoadFavorites returns a tea.Cmd that reads the persisted favourites.
func (m Model) LoadFavorites() tea.Cmd {
	kind, prefs := m.kind, m.prefs
	return func() tea.Msg {
		favs, err := prefs.GetFavorites(context.Background(), kind)
		return FavoritesLoadedMsg{Kind: kind, Favorites: favs, Err: err}
	}
}

// SetSnapshot replaces the rows with the latest poll result.
func (m *Model) SetSnapshot(snap model.DatasetSnapshot) {
	m.records = snap.Records
	m.loaded = true
	m.refresh()
}

// SetStatus records the poll state shown above the table.
func (m *Model) SetStatus(s appsync.SyncStatus) {
	m.status = s
}

// Searching reports whether the search input has focus, so global keys
// must not be intercepted.
func (m Model) Searching() bool {
	return m.searchMode
}

// Records returns every row of the last snapshot.
func (m Model) Records() []model.Record {
	return m.records
}

// Visible returns the rows currently shown, after filtering and sorting.
func (m Model) Visible() []model.Record {
	return m.visible
}

// Criteria returns the active filter selection.
func (m Model) Criteria() filter.Criteria {
	return m.criteria
}

// SortSpec returns the active sort order.
func (m Model) SortSpec() filter.SortSpec {
	return m.sort
}

// SelectedRecord returns the row under the cursor.
func (m Model) SelectedRecord() (model.Record, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return nil, false
	}
	return m.visible[i], true
}

// Update handles messages for the dataset view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FavoritesLoadedMsg:
		if msg.Kind != m.kind {
			return m, nil
		}
		if msg.Err != nil {
			m.errMsg = "favourites unavailable: " + msg.Err.Error()
			return m, nil
		}
		if msg.Favorites != nil {
			m.favorites = msg.Favorites
		}
		m.refresh()
		return m, nil

	case FavoriteSavedMsg:
		if msg.Kind != m.kind || msg.Err == nil {
			return m, nil
		}
		m.setFavorite(msg.ID, !msg.Favorite)
		m.errMsg = "saving favourite: " + msg.Err.Error()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode. The filter
// follows every keystroke.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		m.criteria.Query = ""
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.criteria.Query = m.searchInput.Value()
	m.refresh()
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.criteria.Query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		kind := m.kind
		m.errMsg = ""
		return m, func() tea.Msg { return RefreshRequestMsg{Kind: kind} }

	case key.Matches(msg, m.keys.FilterLaboratory):
		opts := filter.OptionsFor(m.records, m.criteria)
		m.criteria.Laboratory = nextOption(opts.Laboratories, m.criteria.Laboratory)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.FilterDrug):
		opts := filter.OptionsFor(m.records, m.criteria)
		m.criteria.DrugName = nextOption(opts.DrugNames, m.criteria.DrugName)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.FilterArea):
		opts := filter.OptionsFor(m.records, m.criteria)
		m.criteria.TherapeuticArea = nextOption(opts.TherapeuticAreas, m.criteria.TherapeuticArea)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.ClearFilters):
		m.criteria = filter.Criteria{}
		m.searchInput.Reset()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.FavoritesOnly):
		m.criteria.FavoritesOnly = !m.criteria.FavoritesOnly
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.SortColumnNext):
		m.moveSortCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.SortColumnPrev):
		m.moveSortCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.ToggleSort):
		m.sort = m.sort.Toggle(m.kind.Columns()[m.sortCursor].Key)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Favorite):
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		fav := !m.favorites[rec.RecordID()]
		m.setFavorite(rec.RecordID(), fav)
		m.refresh()
		return m, m.saveFavorite(rec.RecordID(), fav)

	case key.Matches(msg, m.keys.Detail):
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DetailRequestMsg{Record: rec} }

	case key.Matches(msg, m.keys.New):
		kind := m.kind
		return m, func() tea.Msg { return EditRequestMsg{Kind: kind} }

	case key.Matches(msg, m.keys.Edit):
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		kind := m.kind
		return m, func() tea.Msg { return EditRequestMsg{Kind: kind, Record: rec} }

	case key.Matches(msg, m.keys.Delete):
		rec, ok := m.SelectedRecord()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DeleteRequestMsg{Record: rec} }
	}

	// Delegate navigation keys (up/down/pgup/pgdn) to the table.
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) moveSortCursor(step int) {
	n := len(m.kind.Columns())
	if n == 0 {
		return
	}
	m.sortCursor = (m.sortCursor + step + n) % n
	m.table.SetColumns(m.columns())
}

func (m *Model) setFavorite(id int64, fav bool) {
	if fav {
		m.favorites[id] = true
	} else {
		delete(m.favorites, id)
	}
}

func (m Model) saveFavorite(id int64, fav bool) tea.Cmd {
	kind, prefs := m.kind, m.prefs
	return func() tea.Msg {
		err := prefs.SetFavorite(context.Background(), kind, id, fav)
		return FavoriteSavedMsg{Kind: kind, ID: id, Favorite: fav, Err: err}
	}
}

// refresh recomputes the visible rows and keeps the cursor on the same
// record when it is still shown.
func (m *Model) refresh() {
	var selected int64 = -1
	if rec, ok := m.SelectedRecord(); ok {
		selected = rec.RecordID()
	}

	m.criteria = filter.Cascade(m.records, m.criteria)
	m.visible = filter.Sort(filter.Apply(m.records, m.criteria, m.favorites), m.sort)

	rows := make([]table.Row, len(m.visible))
	cursor := 0
	for i, r := range m.visible {
		rows[i] = m.row(r)
		if r.RecordID() == selected {
			cursor = i
		}
	}
	m.table.SetColumns(m.columns())
	m.table.SetRows(rows)
	m.table.SetCursor(cursor)
}

func (m Model) row(r model.Record) table.Row {
	cols := m.kind.Columns()
	row := make(table.Row, 0, len(cols)+1)
	if m.favorites[r.RecordID()] {
		row = append(row, "★")
	} else {
		row = append(row, " ")
	}
	for _, c := range cols {
		row = append(row, r.Field(c.Key))
	}
	return row
}

func (m Model) columns() []table.Column {
	cols := m.kind.Columns()
	widths := columnWidths(m.width, cols)

	out := make([]table.Column, 0, len(cols)+1)
	out = append(out, table.Column{Title: "★", Width: 1})
	for i, c := range cols {
		title := c.Title
		if c.Key == m.sort.Column {
			if m.sort.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		if i == m.sortCursor {
			title = "›" + title
		}
		out = append(out, table.Column{Title: title, Width: widths[i]})
	}
	return out
}

// View renders the dataset view.
func (m Model) View() string {
	sections := []string{m.renderInfo()}

	if m.searchMode {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View()))
	}

	if len(m.visible) == 0 {
		sections = append(sections, m.renderEmptyState())
	} else {
		sections = append(sections, m.table.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderInfo renders the line above the table: row counts, the poll
// state, the active filters and the sort order.
func (m Model) renderInfo() string {
	parts := []string{
		theme.KindStyle(string(m.kind)).Render(m.kind.Label()),
		fmt.Sprintf("%d/%d rows", len(m.visible), len(m.records)),
	}

	switch {
	case m.status.Stale():
		msg := "⚠ stale"
		if m.status.Error != nil {
			msg += ": " + m.status.Error.Error()
		}
		parts = append(parts, theme.StaleStyle.Render(msg+" (r to retry)"))
	case m.status.State == appsync.SyncRunning:
		parts = append(parts, theme.DimmedStyle.Render("syncing..."))
	case !m.status.LastSync.IsZero():
		parts = append(parts, theme.DimmedStyle.Render("updated "+relativeTime(m.status.LastSync, m.now())))
	}

	if summary := m.FilterSummary(); summary != "" {
		parts = append(parts, summary)
	}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, "  "))
}

// FilterSummary describes the active filters and sort, or "" when the
// view is unfiltered.
func (m Model) FilterSummary() string {
	var parts []string
	if m.criteria.Query != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.criteria.Query))
	}
	if m.criteria.Laboratory != "" {
		parts = append(parts, "lab:"+m.criteria.Laboratory)
	}
	if m.criteria.DrugName != "" {
		parts = append(parts, "drug:"+m.criteria.DrugName)
	}
	if m.criteria.TherapeuticArea != "" {
		parts = append(parts, "area:"+m.criteria.TherapeuticArea)
	}
	if m.criteria.FavoritesOnly {
		parts = append(parts, "★ only")
	}
	if m.sort.Column != "" {
		dir := "asc"
		if m.sort.Desc {
			dir = "desc"
		}
		parts = append(parts, "sort:"+m.sort.Column+" "+dir)
	}
	return strings.Join(parts, " ")
}

// renderEmptyState shows guidance text when no rows are shown.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(tableHeight(m.height)).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.loaded && m.status.Stale():
		return style.Render("Could not load " + m.kind.Label() + ".\nPress r to retry.")
	case !m.loaded:
		return style.Render("Loading " + m.kind.Label() + "...")
	case m.criteria.Active():
		return style.Render("No matching rows.\nPress 0 to clear filters.")
	default:
		return style.Render("No rows yet.\nPress n to add one.")
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(tableHeight(height))
	m.table.SetWidth(width)
	m.table.SetColumns(m.columns())
	m.searchInput.Width = width - 4
}

// tableHeight leaves room for the info and search lines.
func tableHeight(height int) int {
	h := height - 2
	if h < 3 {
		return 3
	}
	return h
}

// nextOption cycles through options: unset, then each value in order,
// then unset again.
func nextOption(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, o := range options {
		if strings.EqualFold(o, current) {
			if i+1 < len(options) {
				return options[i+1]
			}
			return ""
		}
	}
	return options[0]
}
