package recordform

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/theme"
)

// SubmitMsg is dispatched when the form was completed. Record carries a
// zero ID for an insert.
type SubmitMsg struct {
	Record model.Record
}

// DeleteConfirmedMsg is dispatched when the user confirmed a delete.
type DeleteConfirmedMsg struct {
	Record model.Record
}

// CancelMsg is dispatched when the user cancels the form or declines a
// delete.
type CancelMsg struct{}

// Mode is what the form is currently doing.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreate
	ModeEdit
	ModeDelete
)

const dateLayout = "2006-01-02"

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	lab        string
	drug       string
	area       string
	ingredient string
	indication string
	phase      string
	nation     string
	status     string
	notes      string

	unmetNeed  string
	population string
	evidence   string
	score      string

	unmetNeedRef string
	tactic       string
	owner        string
	dueDate      string

	confirm bool
}

// Model is the Bubble Tea model for the insert/update/delete form of
// any dataset.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	mode     Mode
	kind     model.DatasetKind
	original model.Record
	width    int
	height   int
}

// New creates a new record form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Mode returns what the form is currently doing.
func (m Model) Mode() Mode {
	return m.mode
}

// StartCreate initializes the form for a new row of kind.
func (m *Model) StartCreate(kind model.DatasetKind) tea.Cmd {
	m.mode = ModeCreate
	m.kind = kind
	m.original = nil
	*m.fb = formBindings{}
	if kind == model.KindTactics {
		m.fb.status = model.TacticStatusPlanned
	}
	if kind == model.KindUnmetNeeds {
		m.fb.score = "0"
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with the values of rec.
func (m *Model) StartEdit(rec model.Record) tea.Cmd {
	m.mode = ModeEdit
	m.kind = rec.Kind()
	m.original = rec
	m.fb.load(rec)
	m.form = m.buildForm()
	return m.form.Init()
}

// StartDelete asks for confirmation before rec is deleted.
func (m *Model) StartDelete(rec model.Record) tea.Cmd {
	m.mode = ModeDelete
	m.kind = rec.Kind()
	m.original = rec
	m.fb.confirm = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", describe(rec))).
				Description("This removes the row from the shared backend.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithKeyMap(formKeyMap())
	return m.form.Init()
}

// Update handles messages for the record form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.finish()
	case huh.StateAborted:
		m.reset()
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) finish() (Model, tea.Cmd) {
	if m.mode == ModeDelete {
		rec, confirmed := m.original, m.fb.confirm
		m.reset()
		if !confirmed {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		return m, func() tea.Msg { return DeleteConfirmedMsg{Record: rec} }
	}

	rec, err := m.fb.record(m.kind, m.original)
	m.reset()
	if err != nil {
		// Field validators normally prevent this.
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, func() tea.Msg { return SubmitMsg{Record: rec} }
}

func (m *Model) reset() {
	m.mode = ModeIdle
	m.form = nil
	m.original = nil
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var titleText string
	switch m.mode {
	case ModeCreate:
		titleText = "New " + m.kind.Label() + " row"
	case ModeEdit:
		titleText = "Edit " + describe(m.original)
	case ModeDelete:
		titleText = "Delete row"
	}

	content := theme.TitleStyle.Render(titleText) + "\n" + m.form.View()
	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field
	switch m.kind {
	case model.KindMedications:
		fields = m.medicationFields()
	case model.KindUnmetNeeds:
		fields = m.unmetNeedFields()
	case model.KindTactics:
		fields = m.tacticFields()
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(formKeyMap())
}

// formKeyMap lets esc abort the form as well as ctrl+c.
func formKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return km
}

func (m *Model) labelFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Laboratory").
			Value(&m.fb.lab),
		huh.NewInput().
			Title("Drug name").
			Value(&m.fb.drug).
			Validate(requireLabel(m.fb)),
	}
}

func (m *Model) medicationFields() []huh.Field {
	fields := m.labelFields()
	return append(fields,
		huh.NewInput().Title("Active ingredient").Value(&m.fb.ingredient),
		huh.NewInput().Title("Therapeutic area").Value(&m.fb.area),
		huh.NewInput().Title("Indication").Value(&m.fb.indication),
		huh.NewSelect[string]().
			Title("Phase").
			Options(
				huh.NewOption("Unknown", ""),
				huh.NewOption("Preclinical", model.PhasePreclinical),
				huh.NewOption("Phase I", model.PhaseI),
				huh.NewOption("Phase II", model.PhaseII),
				huh.NewOption("Phase III", model.PhaseIII),
				huh.NewOption("Approved", model.PhaseApproved),
			).
			Value(&m.fb.phase),
		huh.NewInput().Title("Nation").Value(&m.fb.nation),
		huh.NewInput().Title("Status").Value(&m.fb.status),
		huh.NewText().Title("Notes").Placeholder("Optional...").Value(&m.fb.notes),
	)
}

func (m *Model) unmetNeedFields() []huh.Field {
	fields := m.labelFields()
	return append(fields,
		huh.NewInput().Title("Therapeutic area").Value(&m.fb.area),
		huh.NewText().
			Title("Unmet need").
			Value(&m.fb.unmetNeed),
		huh.NewInput().Title("Patient population").Value(&m.fb.population),
		huh.NewText().Title("Evidence").Value(&m.fb.evidence),
		huh.NewInput().
			Title("Score").
			Placeholder("0-10").
			Value(&m.fb.score).
			Validate(validateScore),
	)
}

func (m *Model) tacticFields() []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title("Tactic").
			Placeholder("What should be done?").
			Value(&m.fb.tactic).
			Validate(validateRequired("Tactic")),
		huh.NewInput().Title("Laboratory").Value(&m.fb.lab),
		huh.NewInput().Title("Drug name").Value(&m.fb.drug),
		huh.NewInput().
			Title("Unmet need id").
			Placeholder("optional").
			Value(&m.fb.unmetNeedRef).
			Validate(validateOptionalID),
		huh.NewInput().Title("Owner").Value(&m.fb.owner),
		huh.NewSelect[string]().
			Title("Status").
			Options(
				huh.NewOption("Planned", model.TacticStatusPlanned),
				huh.NewOption("In progress", model.TacticStatusInProgress),
				huh.NewOption("Done", model.TacticStatusDone),
			).
			Value(&m.fb.status),
		huh.NewInput().
			Title("Due date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
	}
}

// requireLabel runs on the drug field and checks both label fields.
func requireLabel(fb *formBindings) func(string) error {
	return func(drug string) error {
		if strings.TrimSpace(fb.lab) == "" && strings.TrimSpace(drug) == "" {
			return fmt.Errorf("laboratory or drug name is required")
		}
		return nil
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// describe names a row in titles and confirmations.
func describe(rec model.Record) string {
	if rec == nil {
		return ""
	}
	label := strings.TrimSpace(rec.Laboratory() + " " + rec.DrugName())
	if t, ok := rec.(model.PharmaTactic); ok && label == "" {
		label = t.Tactic
	}
	return fmt.Sprintf("%s #%d %s", rec.Kind().Label(), rec.RecordID(), label)
}
