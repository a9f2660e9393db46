package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

type editorFocus int

const (
	focusFields editorFocus = iota
	focusComposer
	focusItems
)

var composerInputs = []struct {
	field       record.ItemField
	placeholder string
	width       int
}{
	{record.ItemProduct, "Product", 18},
	{record.ItemUnit, "Unit", 8},
	{record.ItemQuantity, "Quantity", 10},
	{record.ItemUnitPrice, "Unit Price", 12},
}

// EditorModel is the master-detail dialog: a form for the parent record's fields and, for
// modules with line items, a composer plus the list of items already added.
type EditorModel struct {
	layout *Layout
	editor *record.Editor

	form   *huh.Form
	values map[string]*string

	composer *record.Composer
	inputs   []textinput.Model
	active   int
	items    table.Model

	focus editorFocus
	err   error
}

// NewEditorModel wraps an editor that has already been opened.
func NewEditorModel(layout *Layout, ed *record.Editor) EditorModel {
	m := EditorModel{
		layout:   layout,
		editor:   ed,
		values:   make(map[string]*string),
		composer: &record.Composer{},
	}

	draft := ed.Draft()
	for _, f := range ed.Module().Fields {
		v := draft.Field(f.Name)
		m.values[f.Name] = &v
	}

	status := string(draft.Status)
	m.values[schema.StatusField] = &status

	m.form = m.newForm()

	for i, in := range composerInputs {
		ti := textinput.New()
		ti.Placeholder = in.placeholder
		ti.Width = in.width
		ti.Prompt = ""

		if i == 0 {
			ti.Focus()
		}

		m.inputs = append(m.inputs, ti)
	}

	m.items = table.New(
		table.WithColumns([]table.Column{
			{Title: "Product", Width: 18},
			{Title: "Unit", Width: 8},
			{Title: "Quantity", Width: 10},
			{Title: "Unit Price", Width: 12},
			{Title: "Total", Width: 12},
		}),
		table.WithHeight(6),
	)
	m.refreshItems()

	return m
}

func (m *EditorModel) newForm() *huh.Form {
	mod := m.editor.Module()

	fields := make([]huh.Field, 0, len(mod.Fields)+1)

	for _, f := range mod.Fields {
		title := f.Label
		if f.Required {
			title += " *"
		}

		switch f.Type {
		case schema.FieldSelect:
			fields = append(fields, huh.NewSelect[string]().
				Key(f.Name).
				Title(title).
				Options(huh.NewOptions(f.Options...)...).
				Value(m.values[f.Name]))
		case schema.FieldDate:
			fields = append(fields, huh.NewInput().
				Key(f.Name).
				Title(title).
				Placeholder("YYYY-MM-DD").
				Value(m.values[f.Name]).
				Validate(validDate))
		case schema.FieldNumber:
			fields = append(fields, huh.NewInput().
				Key(f.Name).
				Title(title).
				Value(m.values[f.Name]).
				Validate(validNumber))
		default:
			fields = append(fields, huh.NewInput().
				Key(f.Name).
				Title(title).
				Value(m.values[f.Name]))
		}
	}

	fields = append(fields, huh.NewSelect[string]().
		Key(schema.StatusField).
		Title("Status").
		Options(huh.NewOptions(mod.Statuses...)...).
		Value(m.values[schema.StatusField]))

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(44).WithShowHelp(false)
}

func validDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

func validNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return errors.New("not a number")
	}

	return nil
}

func (m EditorModel) Title() string {
	mod := m.editor.Module()
	if m.editor.Mode() == record.ModeEdit {
		return fmt.Sprintf("Edit %s #%d", mod.Title, m.editor.Draft().ID)
	}

	return "New " + mod.Title
}

func (m EditorModel) ShortHelp() string {
	help := "ctrl+s: save | Esc: close"
	if !m.editor.Module().Items {
		return help
	}

	switch m.focus {
	case focusComposer:
		return help + " | Tab: next input | Enter: add item | ctrl+n: next section"
	case focusItems:
		return help + " | ctrl+d: remove item | ctrl+n: next section"
	}

	return help + " | ctrl+n: next section"
}

func (m EditorModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.editor.Close()
			return m, func() tea.Msg { return EditorClosedMsg{} }
		case "ctrl+s":
			return m.save()
		case "ctrl+n":
			m.cycleFocus()
			return m, nil
		}
	}

	switch m.focus {
	case focusComposer:
		return m.updateComposer(msg)
	case focusItems:
		return m.updateItems(msg)
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.save()
	}

	return m, cmd
}

func (m *EditorModel) cycleFocus() {
	if !m.editor.Module().Items {
		return
	}

	m.focus = (m.focus + 1) % 3

	if m.focus == focusItems {
		m.items.Focus()
	} else {
		m.items.Blur()
	}
}

func (m EditorModel) updateComposer(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			m.moveInput(1)
			return m, nil
		case "shift+tab", "up":
			m.moveInput(-1)
			return m, nil
		case "enter":
			return m.addItem()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.active], cmd = m.inputs[m.active].Update(msg)

	field := composerInputs[m.active].field
	if err := m.composer.Update(field, m.inputs[m.active].Value()); err != nil {
		m.err = err
	} else {
		m.err = nil
	}

	return m, cmd
}

func (m *EditorModel) moveInput(delta int) {
	m.inputs[m.active].Blur()
	m.active = (m.active + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.active].Focus()
}

func (m EditorModel) addItem() (tea.Model, tea.Cmd) {
	for i, in := range m.inputs {
		if err := m.composer.Update(composerInputs[i].field, in.Value()); err != nil {
			m.err = err
			return m, nil
		}
	}

	item, err := m.composer.Build()
	if err != nil {
		m.err = err
		return m, nil
	}

	ctx, cancel := CallCtx()
	defer cancel()

	if err := m.editor.AppendItem(ctx, item); err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.composer.Reset()

	for i := range m.inputs {
		m.inputs[i].Reset()
	}

	m.moveInput(-m.active)
	m.refreshItems()

	return m, nil
}

func (m EditorModel) updateItems(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "ctrl+d" {
		ctx, cancel := CallCtx()
		defer cancel()

		m.err = m.editor.RemoveItem(ctx, m.items.Cursor())
		m.refreshItems()

		return m, nil
	}

	var cmd tea.Cmd
	m.items, cmd = m.items.Update(msg)

	return m, cmd
}

func (m EditorModel) save() (tea.Model, tea.Cmd) {
	for name, v := range m.values {
		m.editor.SetField(name, strings.TrimSpace(*v))
	}

	ctx, cancel := CallCtx()
	defer cancel()

	if _, err := m.editor.Save(ctx); err != nil {
		m.err = err

		if m.form.State != huh.StateNormal {
			m.form = m.newForm()
			return m, m.form.Init()
		}

		return m, nil
	}

	return m, func() tea.Msg { return EditorClosedMsg{Saved: true} }
}

func (m *EditorModel) refreshItems() {
	draft := m.editor.Draft()

	rows := make([]table.Row, 0, len(draft.Items))
	for _, it := range draft.Items {
		rows = append(rows, table.Row{
			it.Product,
			it.Unit,
			it.Quantity.String(),
			grid.Money(it.UnitPrice),
			grid.Money(it.TotalPrice),
		})
	}

	m.items.SetRows(rows)
	clampCursor(&m.items, len(rows))
}

func (m EditorModel) View() string {
	sections := []string{titleStyle.Render(m.Title()), m.section(focusFields, m.form.View())}

	if m.editor.Module().Items {
		inputs := make([]string, len(m.inputs))
		for i, in := range m.inputs {
			inputs[i] = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240")).
				Render(in.View())
		}

		composer := lipgloss.JoinVertical(lipgloss.Left,
			"Add item",
			lipgloss.JoinHorizontal(lipgloss.Top, inputs...),
			faintStyle.Render("Line total: "+grid.Money(m.composer.Draft().TotalPrice)),
		)

		items := lipgloss.JoinVertical(lipgloss.Left,
			m.items.View(),
			"Total: "+activeStyle(grid.Money(m.editor.Draft().Total())),
		)

		sections = append(sections, m.section(focusComposer, composer), m.section(focusItems, items))
	}

	if m.err != nil {
		sections = append(sections, errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	sections = append(sections, faintStyle.Render(m.ShortHelp()))

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// section frames one part of the dialog, highlighting the one with focus.
func (m EditorModel) section(f editorFocus, content string) string {
	color := lipgloss.Color("240")
	if m.focus == f {
		color = lipgloss.Color("205")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(color).
		PaddingLeft(1).
		MarginTop(1).
		Render(content)
}
