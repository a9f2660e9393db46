package view

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/backoffice/internal/export"
	"github.com/MrJamesThe3rd/backoffice/internal/gateway"
	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/prefs"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// RecordsModel lists a module's records a page at a time.
//
// Backend calls run inside Update so the local store is only ever touched from the event loop.
type RecordsModel struct {
	layout    *Layout
	module    *schema.Module
	backend   record.Backend
	prefs     *prefs.Store
	exportDir string

	table    table.Model
	recs     []record.Record
	page     int
	pageSize int

	status string
	err    error
}

type reloadMsg struct{}

func reload() tea.Msg { return reloadMsg{} }

func NewRecordsModel(layout *Layout, m *schema.Module, backend record.Backend, store *prefs.Store, exportDir string) RecordsModel {
	t := table.New(
		table.WithColumns(columns(m)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return RecordsModel{
		layout:    layout,
		module:    m,
		backend:   backend,
		prefs:     store,
		exportDir: exportDir,
		table:     t,
		pageSize:  store.Int(prefs.KeyPageSize, grid.PageSizes[0]),
	}
}

func columns(m *schema.Module) []table.Column {
	cols := grid.Columns(m)

	out := make([]table.Column, len(cols))
	for i, c := range cols {
		out[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	return out
}

func (m RecordsModel) Title() string { return m.module.Title }

func (m RecordsModel) ShortHelp() string {
	return "a: add | e/Enter: edit | d: delete | p: page size | ←/→: page | r: reload | x: export | i: import"
}

func (m RecordsModel) Module() *schema.Module { return m.module }

func (m *RecordsModel) Focus() { m.table.Focus() }
func (m *RecordsModel) Blur()  { m.table.Blur() }

func (m RecordsModel) Init() tea.Cmd {
	return reload
}

func (m RecordsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reloadMsg:
		return m.load()

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		if !m.table.Focused() {
			return m, nil
		}

		switch msg.String() {
		case "a":
			mod := m.module
			return m, func() tea.Msg { return OpenEditorMsg{Module: mod, Mode: record.ModeAdd} }
		case "e", "enter":
			rec, ok := m.selected()
			if !ok {
				return m, nil
			}

			mod := m.module

			return m, func() tea.Msg { return OpenEditorMsg{Module: mod, Mode: record.ModeEdit, Record: &rec} }
		case "d":
			return m.deleteSelected()
		case "p":
			m.pageSize = grid.NextPageSize(m.pageSize)
			m.page = 0

			if err := m.prefs.SetInt(prefs.KeyPageSize, m.pageSize); err != nil {
				slog.Error("failed to save page size", "error", err)
			}

			m.refreshTable()

			return m, nil
		case "left", "h":
			m.page--
			m.refreshTable()

			return m, nil
		case "right", "l":
			m.page++
			m.refreshTable()

			return m, nil
		case "r":
			return m.load()
		case "x":
			return m.export()
		case "i":
			mod := m.module
			return m, func() tea.Msg { return OpenImportMsg{Module: mod} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RecordsModel) load() (tea.Model, tea.Cmd) {
	ctx, cancel := CallCtx()
	defer cancel()

	recs, err := m.backend.Fetch(ctx)
	if err != nil {
		slog.Error("failed to fetch records", "module", m.module.Name, "error", err)

		if gateway.IsUnauthorized(err) {
			return m, func() tea.Msg { return UnauthorizedMsg{} }
		}

		m.err = err

		return m, nil
	}

	m.err = nil
	m.recs = recs
	m.refreshTable()

	return m, nil
}

func (m RecordsModel) deleteSelected() (tea.Model, tea.Cmd) {
	rec, ok := m.selected()
	if !ok {
		return m, nil
	}

	ctx, cancel := CallCtx()
	defer cancel()

	if err := m.backend.Delete(ctx, rec.ID); err != nil {
		slog.Error("failed to delete record", "module", m.module.Name, "record_id", rec.ID, "error", err)
		m.status = fmt.Sprintf("Error deleting #%d: %v", rec.ID, err)

		return m, nil
	}

	m.status = fmt.Sprintf("Deleted #%d.", rec.ID)

	return m.load()
}

func (m RecordsModel) export() (tea.Model, tea.Cmd) {
	path := filepath.Join(m.exportDir, export.FileName(m.module, time.Now()))

	if err := writeExport(path, m.module, m.recs); err != nil {
		slog.Error("failed to export records", "module", m.module.Name, "error", err)
		m.status = fmt.Sprintf("Export failed: %v", err)

		return m, nil
	}

	m.status = "Exported to " + path

	return m, nil
}

func writeExport(path string, mod *schema.Module, recs []record.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := export.Write(f, mod, recs); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// selected returns the record under the cursor on the current page.
func (m RecordsModel) selected() (record.Record, bool) {
	rows, page := grid.Paginate(m.recs, m.page, m.pageSize)

	idx := m.table.Cursor()
	if page != m.page || idx < 0 || idx >= len(rows) {
		return record.Record{}, false
	}

	return rows[idx], true
}

func (m *RecordsModel) refreshTable() {
	rows, page := grid.Paginate(m.recs, m.page, m.pageSize)
	m.page = page

	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		cells := grid.Row(m.module, r)
		cells[len(m.module.Fields)+1] = statusMarker(m.module, r.Status)
		out = append(out, table.Row(cells))
	}

	m.table.SetRows(out)
	clampCursor(&m.table, len(out))
}

func (m RecordsModel) View() string {
	header := fmt.Sprintf("%s  %s",
		titleStyle.Render(m.module.Title),
		faintStyle.Render(fmt.Sprintf("%d records", len(m.recs))),
	)

	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			header + "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + faintStyle.Render("r: retry"),
		)
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	footer := fmt.Sprintf("Page %s of %d | %s per page",
		activeStyle(fmt.Sprint(m.page+1)),
		grid.Pages(len(m.recs), m.pageSize),
		activeStyle(fmt.Sprint(m.pageSize)),
	)

	if rec, ok := m.selected(); ok {
		footer += " | #" + fmt.Sprint(rec.ID) + " " + StatusText(m.module, rec.Status)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		footer,
	)

	if m.status != "" {
		content = faintStyle.Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}
