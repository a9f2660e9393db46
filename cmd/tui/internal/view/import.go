package view

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

type importState int

const (
	importStateFilePick importState = iota
	importStatePreview
	importStateResult
)

// ImportModel reads a CSV file into a module: pick a file, choose which parsed rows to keep,
// then create them one by one through the module's backend.
type ImportModel struct {
	module        *schema.Module
	backend       record.Backend
	importService *importer.Service

	state      importState
	filePicker filepicker.Model
	parsed     []record.Record
	rows       list.Model
	selected   map[int]bool

	status string
	err    error
}

func NewImportModel(m *schema.Module, backend record.Backend, impSvc *importer.Service) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt", ".xlsx"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		module:        m,
		backend:       backend,
		importService: impSvc,
		filePicker:    fp,
		selected:      make(map[int]bool),
	}
}

func (m ImportModel) Title() string { return "Import " + m.module.Title }

func (m ImportModel) ShortHelp() string {
	if m.state == importStatePreview {
		return "Space: toggle | a: all | n: none | Enter: import | Esc: cancel"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.filePicker.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

		switch m.state {
		case importStatePreview:
			return m.updatePreview(keyMsg)
		case importStateResult:
			return m, nil
		}
	}

	if m.state != importStateFilePick {
		return m, nil
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		return m.parse(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStatePreview:
		m.state = importStateFilePick
		m.parsed = nil
		m.selected = make(map[int]bool)

		return m, nil
	case importStateResult:
		if m.err != nil {
			m.state = importStateFilePick
			m.err = nil
			m.status = ""

			return m, nil
		}
	}

	return m, Back
}

func (m ImportModel) parse(path string) (tea.Model, tea.Cmd) {
	f, err := os.Open(path)
	if err != nil {
		return m.fail(err)
	}
	defer f.Close()

	recs, err := m.importService.Import(importer.FormatFor(path), m.module, f)
	if err != nil {
		return m.fail(err)
	}

	if len(recs) == 0 {
		return m.fail(fmt.Errorf("%s has no rows", path))
	}

	m.parsed = recs
	m.selected = make(map[int]bool, len(recs))

	items := make([]list.Item, len(recs))
	for i, r := range recs {
		items[i] = importItem{index: i, cells: grid.Row(m.module, r)[1:]}
		m.selected[i] = true
	}

	m.rows = list.New(items, importDelegate{selected: m.selected}, 100, 20)
	m.rows.Title = fmt.Sprintf("%d rows in %s", len(recs), path)
	m.rows.SetShowStatusBar(false)
	m.rows.SetFilteringEnabled(false)
	m.rows.SetShowHelp(false)
	m.state = importStatePreview

	return m, nil
}

func (m ImportModel) fail(err error) (tea.Model, tea.Cmd) {
	slog.Error("import failed", "module", m.module.Name, "error", err)

	m.state = importStateResult
	m.err = err
	m.status = fmt.Sprintf("Error: %v", err)

	return m, nil
}

func (m ImportModel) updatePreview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		idx := m.rows.Index()
		m.selected[idx] = !m.selected[idx]

		return m, nil
	case "a":
		for i := range m.parsed {
			m.selected[i] = true
		}

		return m, nil
	case "n":
		for i := range m.parsed {
			m.selected[i] = false
		}

		return m, nil
	case "enter":
		return m.store()
	}

	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)

	return m, cmd
}

// store creates the selected rows. It stops at the first failure and reports how many made it.
func (m ImportModel) store() (tea.Model, tea.Cmd) {
	var created int

	for i, rec := range m.parsed {
		if !m.selected[i] {
			continue
		}

		ctx, cancel := CallCtx()
		_, err := m.backend.Create(ctx, rec)
		cancel()

		if err != nil {
			return m.fail(fmt.Errorf("imported %d, then: %w", created, err))
		}

		created++
	}

	m.state = importStateResult
	m.err = nil
	m.status = fmt.Sprintf("Imported %d records.", created)

	return m, nil
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select a CSV file for %s:\n\n%s", m.module.Title, m.filePicker.View()),
		)
	case importStatePreview:
		return lipgloss.NewStyle().Padding(1).Render(m.rows.View())
	}

	style := lipgloss.NewStyle().Padding(2)
	if m.err != nil {
		return style.Render(errorStyle.Render(m.status) + "\n\n(Esc to go back)")
	}

	return style.Render(doneStyle.Render(m.status) + "\n\n(Esc to go back)")
}

type importItem struct {
	index int
	cells []string
}

func (i importItem) Title() string       { return strings.Join(i.cells, "  ") }
func (i importItem) Description() string { return "" }
func (i importItem) FilterValue() string { return i.Title() }

type importDelegate struct {
	selected map[int]bool
}

func (d importDelegate) Height() int                             { return 1 }
func (d importDelegate) Spacing() int                            { return 0 }
func (d importDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d importDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(importItem)
	if !ok {
		return
	}

	checkbox := "[ ]"
	if d.selected[item.index] {
		checkbox = "[x]"
	}

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	fmt.Fprintf(w, "%s%s %s", cursor, checkbox, item.Title())
}
