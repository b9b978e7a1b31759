package app

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/crossref"
	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/notify"
	"github.com/devel-adr/medistream/internal/store"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/internal/ui"
	"github.com/devel-adr/medistream/internal/ui/command"
	connview "github.com/devel-adr/medistream/internal/ui/config"
	"github.com/devel-adr/medistream/internal/ui/dataset"
	"github.com/devel-adr/medistream/internal/ui/detail"
	helpview "github.com/devel-adr/medistream/internal/ui/help"
	"github.com/devel-adr/medistream/internal/ui/notifications"
	"github.com/devel-adr/medistream/internal/ui/recordform"
	settingsview "github.com/devel-adr/medistream/internal/ui/settings"
	"github.com/devel-adr/medistream/internal/ui/workflows"
	"github.com/devel-adr/medistream/internal/workflow"
)

// ViewState represents what fills the content area.
type ViewState int

const (
	ViewPanels ViewState = iota
	ViewHelp
	ViewForm
	ViewDetail
	ViewCommand
)

// Panel is one tab of the dashboard.
type Panel int

const (
	PanelMedications Panel = iota
	PanelUnmetNeeds
	PanelTactics
	PanelNotifications
	PanelWorkflows
	PanelSettings
	PanelConnections
	panelCount
)

var panelTitles = [panelCount]string{
	"DrugDealer", "Unmet Needs", "Pharma Tactics", "Notifications", "Workflows", "Settings", "Connections",
}

// Deps are the long-lived services the dashboard drives. Workflows,
// Tone, Secrets and CheckCredential may be nil.
type Deps struct {
	Datasets  store.DatasetStore
	Prefs     store.PreferenceStore
	Poller    *appsync.Poller
	Notifier  *notify.Notifier
	Settings  *notify.SettingsManager
	Tone      notify.TonePlayer
	Workflows *workflow.Poller
	Log       *zap.Logger

	Secrets         connview.Secrets
	CheckCredential connview.Checker
}

// Model is the root Bubble Tea model that manages panel routing,
// layout, and access to the pipeline services.
type Model struct {
	deps         Deps
	log          *zap.Logger
	currentView  ViewState
	activePanel  Panel
	layout       ui.Layout
	keys         *keys.KeyMap
	datasets     [3]dataset.Model
	notifyView   notifications.Model
	settingsView settingsview.Model
	workflowView workflows.Model
	connView     connview.Model
	formView     recordform.Model
	detailView   detail.Model
	commandView  command.Model
	helpView     helpview.Model
	flash        string
	ready        bool
}

// New creates the root application model.
func New(deps Deps) Model {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		deps:         deps,
		log:          deps.Log,
		currentView:  ViewPanels,
		activePanel:  PanelMedications,
		keys:         k,
		notifyView:   notifications.New(k, 80, 24),
		settingsView: settingsview.New(k, 80, 24),
		workflowView: workflows.New(k, deps.Workflows != nil, 80, 24),
		connView:     connview.New(deps.Secrets, deps.CheckCredential, k, 80, 24),
		formView:     recordform.New(80, 24),
		detailView:   detail.New(k, 80, 24),
		commandView:  command.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
	}
	for i, kind := range model.Kinds() {
		m.datasets[i] = dataset.New(kind, deps.Prefs, k, 80, 24)
	}
	if deps.Notifier != nil {
		m.notifyView.SetRecords(deps.Notifier.Records())
	}
	if deps.Settings != nil {
		m.settingsView.SetSettings(deps.Settings.Current())
	}
	return m
}

// Init loads favourites and starts listening to the pipeline.
func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 7)
	for _, d := range m.datasets {
		cmds = append(cmds, d.Init())
	}
	cmds = append(cmds, m.connView.Init())
	cmds = append(cmds, m.deps.Poller.Start())
	if m.deps.Notifier != nil {
		cmds = append(cmds, m.deps.Notifier.WaitForNotification())
	}
	if m.deps.Workflows != nil {
		cmds = append(cmds, m.deps.Workflows.WaitForUpdate())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		for i := range m.datasets {
			m.datasets[i].SetSize(w, h)
		}
		m.notifyView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.workflowView.SetSize(w, h)
		m.connView.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		if i, ok := datasetIndex(msg.Kind); ok {
			if msg.Error == nil || !msg.Snapshot.FetchedAt.IsZero() {
				m.datasets[i].SetSnapshot(msg.Snapshot)
			}
		}
		m.syncStatuses()
		return m, m.deps.Poller.WaitForNextResult()

	case notify.NotificationMsg:
		m.notifyView.Push(msg.Record)
		m.notifyView.SetRecords(m.deps.Notifier.Records())
		if m.currentView == ViewPanels && m.activePanel == PanelNotifications {
			m.notifyView.MarkRead()
		}
		return m, m.deps.Notifier.WaitForNotification()

	case workflow.StatusMsg:
		m.workflowView.SetSnapshots(msg.Snapshots)
		return m, m.deps.Workflows.WaitForUpdate()

	case dataset.RefreshRequestMsg:
		return m, m.deps.Poller.Refresh(msg.Kind)

	case dataset.FavoritesLoadedMsg:
		return m.updateDataset(msg.Kind, msg)

	case dataset.FavoriteSavedMsg:
		return m.updateDataset(msg.Kind, msg)

	case dataset.DetailRequestMsg:
		m.openDetail(msg.Record)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewPanels
		return m, nil

	case detail.EditRequestMsg:
		m.currentView = ViewForm
		return m, m.formView.StartEdit(msg.Record)

	case dataset.EditRequestMsg:
		m.currentView = ViewForm
		if msg.Record == nil {
			return m, m.formView.StartCreate(msg.Kind)
		}
		return m, m.formView.StartEdit(msg.Record)

	case dataset.DeleteRequestMsg:
		m.currentView = ViewForm
		return m, m.formView.StartDelete(msg.Record)

	case recordform.SubmitMsg:
		m.currentView = ViewPanels
		return m, m.saveRecord(msg.Record)

	case recordform.DeleteConfirmedMsg:
		m.currentView = ViewPanels
		return m, m.deleteRecord(msg.Record)

	case recordform.CancelMsg:
		m.currentView = ViewPanels
		return m, nil

	case recordSavedMsg:
		return m, m.afterWrite(msg.kind, msg.err, "saved")

	case recordDeletedMsg:
		return m, m.afterWrite(msg.kind, msg.err, "deleted")

	case notifications.ClearRequestMsg:
		return m, m.clearNotifications()

	case notificationsClearedMsg:
		if msg.err != nil {
			m.flash = "clearing notifications failed: " + msg.err.Error()
		}
		m.notifyView.SetRecords(m.deps.Notifier.Records())
		m.notifyView.MarkRead()
		return m, nil

	case settingsview.SaveMsg:
		return m, m.saveSettings(msg.Settings)

	case settingsSavedMsg:
		m.settingsView.SetSettings(msg.settings)
		if msg.err != nil {
			m.settingsView.SetMessage("not saved: " + msg.err.Error())
		} else {
			m.settingsView.SetMessage("saved")
		}
		return m, nil

	case settingsview.TestToneMsg:
		m.settingsView.SetMessage(m.playTestTone(msg.Tone, msg.Volume))
		return m, nil

	case workflows.RefreshRequestMsg:
		return m, m.deps.Workflows.Refresh()

	case command.CommandMsg:
		m.currentView = ViewPanels
		return m.runCommand(msg.Command)

	case command.CancelMsg:
		m.currentView = ViewPanels
		return m, nil

	case connview.CredentialSavedMsg:
		m.log.Info("credential stored", zap.String("key", msg.Key))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.currentView != ViewForm {
			return m, m.quit()
		}
		if !m.capturingInput() {
			if next, cmd, handled := m.handleGlobalKey(msg); handled {
				return next, cmd
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// capturingInput reports whether the active view consumes plain keys,
// so global shortcuts must not fire.
func (m Model) capturingInput() bool {
	switch m.currentView {
	case ViewForm, ViewCommand:
		return true
	case ViewHelp, ViewDetail:
		return false
	}
	switch m.activePanel {
	case PanelSettings:
		return m.settingsView.Editing()
	case PanelConnections:
		return m.connView.Editing()
	case PanelNotifications, PanelWorkflows:
		return false
	default:
		return m.datasets[m.activePanel].Searching()
	}
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return m, m.quit(), true

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = ViewPanels
		} else {
			m.currentView = ViewHelp
		}
		return m, nil, true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = ViewPanels
			return m, nil, true
		}

	case ":":
		m.currentView = ViewCommand
		return m, m.commandView.Open(), true

	case "tab":
		m.switchPanel(1)
		return m, nil, true

	case "shift+tab":
		m.switchPanel(-1)
		return m, nil, true
	}
	return m, nil, false
}

func (m *Model) switchPanel(step int) {
	m.currentView = ViewPanels
	m.activePanel = Panel((int(m.activePanel) + step + int(panelCount)) % int(panelCount))
	m.flash = ""
	if m.activePanel == PanelNotifications {
		m.notifyView.MarkRead()
	}
}

func (m Model) quit() tea.Cmd {
	m.deps.Poller.Stop()
	return tea.Quit
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
		return m, cmd
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
		return m, cmd
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
		return m, cmd
	}

	switch m.activePanel {
	case PanelNotifications:
		m.notifyView, cmd = m.notifyView.Update(msg)
	case PanelWorkflows:
		m.workflowView, cmd = m.workflowView.Update(msg)
	case PanelSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case PanelConnections:
		m.connView, cmd = m.connView.Update(msg)
	default:
		m.datasets[m.activePanel], cmd = m.datasets[m.activePanel].Update(msg)
	}
	return m, cmd
}

// updateDataset routes a message to the view of kind, whichever panel
// is active.
func (m Model) updateDataset(kind model.DatasetKind, msg tea.Msg) (tea.Model, tea.Cmd) {
	i, ok := datasetIndex(kind)
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	m.datasets[i], cmd = m.datasets[i].Update(msg)
	return m, cmd
}

// openDetail shows rec with the rows of the other datasets related to it.
func (m *Model) openDetail(rec model.Record) {
	others := make(map[model.DatasetKind][]model.Record, len(m.datasets))
	for i, kind := range model.Kinds() {
		others[kind] = m.datasets[i].Records()
	}
	m.detailView.SetRecord(rec, crossref.Find(rec, others))
	m.currentView = ViewDetail
}

func (m *Model) syncStatuses() {
	for i, kind := range model.Kinds() {
		if s, ok := m.deps.Poller.Status(kind); ok {
			m.datasets[i].SetStatus(s)
		}
	}
}

func datasetIndex(kind model.DatasetKind) (int, bool) {
	for i, k := range model.Kinds() {
		if k == kind {
			return i, true
		}
	}
	return 0, false
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if n := m.notifyView.Unread(); n > 0 {
		badge = fmt.Sprintf("%d new", n)
	}
	header := m.layout.RenderHeader("Medistream", badge, m.syncStatus())
	tabs := m.layout.RenderTabs(panelTitles[:], int(m.activePanel))
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, tabs, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewForm:
		return m.formView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewCommand:
		return m.commandView.View()
	}

	switch m.activePanel {
	case PanelNotifications:
		return m.notifyView.View()
	case PanelWorkflows:
		return m.workflowView.View()
	case PanelSettings:
		return m.settingsView.View()
	case PanelConnections:
		return m.connView.View()
	default:
		return m.datasets[m.activePanel].View()
	}
}

// syncStatus returns a short string describing the combined poll state.
func (m Model) syncStatus() string {
	statuses := m.deps.Poller.GetStatuses()
	if len(statuses) == 0 {
		return "no datasets"
	}

	running := 0
	var staleNames []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			staleNames = append(staleNames, s.Kind.Label())
		}
	}

	if running > 0 {
		return fmt.Sprintf("syncing (%d)", running)
	}
	if len(staleNames) > 0 {
		return "⚠ unreachable: " + strings.Join(staleNames, ", ")
	}
	return "live"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.flash != "" && m.currentView == ViewPanels {
		return m.flash
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewForm:
		return "enter next/submit | esc cancel"
	case ViewDetail:
		return "j/k scroll | e edit | esc back | q quit"
	case ViewCommand:
		return "tab complete | enter run | esc close"
	}

	switch m.activePanel {
	case PanelNotifications:
		return "j/k move | c clear all | tab next panel | q quit"
	case PanelWorkflows:
		return "r refresh | tab next panel | q quit"
	case PanelSettings:
		if m.settingsView.Editing() {
			return "enter submit | esc cancel"
		}
		return "e edit | t test tone | tab next panel | q quit"
	case PanelConnections:
		if m.connView.Editing() {
			return "enter submit | esc cancel"
		}
		return "e set | d remove | t test | tab next panel | q quit"
	default:
		d := m.datasets[m.activePanel]
		if d.Searching() {
			return "type to search | enter keep | esc clear"
		}
		if summary := d.FilterSummary(); summary != "" {
			return summary + " | 0 clear"
		}
		return "q quit | ? help | : command | / search | 1-3 filter | s sort | f fav | n new | e edit | d delete | r retry"
	}
}
