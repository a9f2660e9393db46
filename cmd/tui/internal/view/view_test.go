package view

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/backoffice/internal/gateway"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/prefs"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/record/memstore"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

func module(t *testing.T, name string) *schema.Module {
	t.Helper()

	reg, err := schema.Default()
	require.NoError(t, err)

	m, ok := reg.Get(name)
	require.True(t, ok)

	return m
}

func memPrefs(t *testing.T) *prefs.Store {
	t.Helper()

	s, err := prefs.Open("")
	require.NoError(t, err)

	return s
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()

	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	return m
}

func loadedRecords(t *testing.T, store *memstore.Store, p *prefs.Store, dir string) RecordsModel {
	t.Helper()

	m := module(t, "purchase_order")

	next, _ := NewRecordsModel(&Layout{Width: 120, Height: 40}, m, store, p, dir).Update(reloadMsg{})

	return next.(RecordsModel)
}

func TestRecordsModel_Load(t *testing.T) {
	store := memstore.FromSchema(module(t, "purchase_order"))
	rm := loadedRecords(t, store, memPrefs(t), t.TempDir())

	require.Len(t, rm.recs, 2)
	assert.Len(t, rm.table.Rows(), 2)
	assert.Equal(t, "○ Pending", rm.table.Rows()[0][3])
	assert.Equal(t, "● Approved", rm.table.Rows()[1][3])
}

func TestRecordsModel_Delete(t *testing.T) {
	store := memstore.FromSchema(module(t, "purchase_order"))
	rm := loadedRecords(t, store, memPrefs(t), t.TempDir())

	next, _ := rm.Update(key("d"))
	rm = next.(RecordsModel)

	assert.Equal(t, 1, store.Len())
	require.Len(t, rm.recs, 1)
	assert.Equal(t, int64(2), rm.recs[0].ID)
}

func TestRecordsModel_OpenEditor(t *testing.T) {
	store := memstore.FromSchema(module(t, "purchase_order"))
	rm := loadedRecords(t, store, memPrefs(t), t.TempDir())

	_, cmd := rm.Update(key("e"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(OpenEditorMsg)
	require.True(t, ok)
	assert.Equal(t, record.ModeEdit, msg.Mode)
	require.NotNil(t, msg.Record)
	assert.Equal(t, int64(1), msg.Record.ID)

	_, cmd = rm.Update(key("a"))
	msg, ok = cmd().(OpenEditorMsg)
	require.True(t, ok)
	assert.Equal(t, record.ModeAdd, msg.Mode)
	assert.Nil(t, msg.Record)
}

func TestRecordsModel_ActionsAfterEmptyLoad(t *testing.T) {
	store := memstore.New("purchase_order")
	rm := loadedRecords(t, store, memPrefs(t), t.TempDir())
	require.Empty(t, rm.table.Rows())

	store.Add(record.Record{Fields: map[string]string{"vendor": "Vendor C", "date": "2024-04-01"}, Status: "Pending"})

	next, _ := rm.Update(reloadMsg{})
	rm = next.(RecordsModel)
	require.Len(t, rm.table.Rows(), 1)
	assert.Equal(t, 0, rm.table.Cursor())

	_, cmd := rm.Update(key("e"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(OpenEditorMsg)
	require.True(t, ok)
	require.NotNil(t, msg.Record)
	assert.Equal(t, "Vendor C", msg.Record.Field("vendor"))

	next, _ = rm.Update(key("d"))
	rm = next.(RecordsModel)
	assert.Zero(t, store.Len())
	assert.Empty(t, rm.recs)
}

func TestClampCursor(t *testing.T) {
	type testCase struct {
		name   string
		cursor int
		rows   int
		want   int
	}

	tests := []testCase{
		{name: "Unset", cursor: -1, rows: 3, want: 0},
		{name: "PastEnd", cursor: 5, rows: 3, want: 2},
		{name: "InRange", cursor: 1, rows: 3, want: 1},
		{name: "NoRows", cursor: -1, rows: 0, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := table.New(table.WithColumns([]table.Column{{Title: "A", Width: 4}}))

			rows := make([]table.Row, tt.rows)
			for i := range rows {
				rows[i] = table.Row{"x"}
			}

			tbl.SetRows(rows)
			tbl.SetCursor(tt.cursor)

			clampCursor(&tbl, tt.rows)
			assert.Equal(t, tt.want, tbl.Cursor())
		})
	}
}

func TestRecordsModel_Paging(t *testing.T) {
	m := module(t, "purchase_order")
	store := memstore.New(m.Name)

	for range 12 {
		store.Add(record.Record{Fields: map[string]string{"vendor": "V", "date": "2024-03-12"}, Status: "Pending"})
	}

	p := memPrefs(t)
	rm := loadedRecords(t, store, p, t.TempDir())

	assert.Len(t, rm.table.Rows(), 5)

	next, _ := rm.Update(tea.KeyMsg{Type: tea.KeyRight})
	rm = next.(RecordsModel)
	assert.Equal(t, 1, rm.page)

	next, _ = rm.Update(key("p"))
	rm = next.(RecordsModel)
	assert.Equal(t, 10, rm.pageSize)
	assert.Equal(t, 0, rm.page)
	assert.Len(t, rm.table.Rows(), 10)
	assert.Equal(t, 10, p.Int(prefs.KeyPageSize, 0))

	for range 5 {
		next, _ = rm.Update(tea.KeyMsg{Type: tea.KeyRight})
		rm = next.(RecordsModel)
	}

	assert.Equal(t, 1, rm.page, "page is clamped to the last one")
	assert.Len(t, rm.table.Rows(), 2)
}

func TestRecordsModel_Export(t *testing.T) {
	dir := t.TempDir()
	store := memstore.FromSchema(module(t, "purchase_order"))
	rm := loadedRecords(t, store, memPrefs(t), dir)

	next, _ := rm.Update(key("x"))
	rm = next.(RecordsModel)

	matches, err := filepath.Glob(filepath.Join(dir, "purchase_order_*.xlsx"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Contains(t, rm.status, matches[0])

	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func newEditor(t *testing.T, name string, store *memstore.Store) EditorModel {
	t.Helper()

	ed := record.NewEditor(module(t, name), store, record.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ed.Open(record.ModeAdd, nil)

	return NewEditorModel(&Layout{Width: 120, Height: 40}, ed)
}

func TestEditorModel_SaveRequiresFields(t *testing.T) {
	store := memstore.New("purchase_order")
	em := newEditor(t, "purchase_order", store)

	next, cmd := em.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	em = next.(EditorModel)

	assert.Nil(t, cmd)
	assert.ErrorIs(t, em.err, record.ErrValidation)
	assert.True(t, em.editor.IsOpen())
	assert.Zero(t, store.Len())

	*em.values["vendor"] = "Vendor C"
	*em.values["date"] = "2024-03-15"

	_, cmd = em.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	assert.Equal(t, EditorClosedMsg{Saved: true}, cmd())

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "Vendor C", store.List()[0].Field("vendor"))
	assert.Equal(t, record.StatusPending, store.List()[0].Status)
}

func TestEditorModel_ComposeAndRemoveItems(t *testing.T) {
	em := newEditor(t, "purchase_order", memstore.New("purchase_order"))

	var m tea.Model = em

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, focusComposer, m.(EditorModel).focus)

	m = typeText(t, m, "Laptop")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "pcs")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "2")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "1000")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	em = m.(EditorModel)
	require.NoError(t, em.err)

	draft := em.editor.Draft()
	require.Len(t, draft.Items, 1)
	assert.Equal(t, "Laptop", draft.Items[0].Product)
	assert.Equal(t, "2000", draft.Items[0].TotalPrice.String())
	assert.Len(t, em.items.Rows(), 1)
	assert.Empty(t, em.inputs[0].Value(), "composer is cleared after adding")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})

	em = m.(EditorModel)
	assert.Empty(t, em.editor.Draft().Items)
	assert.Empty(t, em.items.Rows())
}

func TestEditorModel_RejectsIncompleteItem(t *testing.T) {
	em := newEditor(t, "purchase_order", memstore.New("purchase_order"))

	var m tea.Model = em

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = typeText(t, m, "Laptop")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	em = m.(EditorModel)
	assert.ErrorIs(t, em.err, record.ErrValidation)
	assert.Empty(t, em.editor.Draft().Items)
}

func TestEditorModel_RejectsUnparsedQuantity(t *testing.T) {
	em := newEditor(t, "purchase_order", memstore.New("purchase_order"))

	var m tea.Model = em

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = typeText(t, m, "Laptop")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "pcs")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "15x")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "10")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	em = m.(EditorModel)
	assert.ErrorIs(t, em.err, record.ErrValidation)
	assert.Empty(t, em.editor.Draft().Items)
	assert.Equal(t, "15x", em.inputs[2].Value(), "input is kept for correction")
}

func TestEditorModel_Escape(t *testing.T) {
	store := memstore.New("employee")
	em := newEditor(t, "employee", store)

	_, cmd := em.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, EditorClosedMsg{}, cmd())
	assert.False(t, em.editor.IsOpen())
	assert.Zero(t, store.Len())
}

func TestSidebarModel_ToggleAndSelect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	p, err := prefs.Open(path)
	require.NoError(t, err)

	reg, err := schema.Default()
	require.NoError(t, err)

	sb := NewSidebarModel(&Layout{Width: 120, Height: 40}, p, reg.Groups())
	sb.Focus()

	next, _ := sb.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sb = next.(SidebarModel)
	assert.True(t, sb.IsOpen("Procurement"))

	reopened, err := prefs.Open(path)
	require.NoError(t, err)
	assert.True(t, reopened.Bool(prefs.MenuKey("Procurement"), false))

	next, _ = sb.Update(tea.KeyMsg{Type: tea.KeyDown})
	sb = next.(SidebarModel)

	_, cmd := sb.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(ModuleSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "requisition", msg.Module.Name)

	restored := NewSidebarModel(&Layout{}, reopened, reg.Groups())
	assert.True(t, restored.IsOpen("Procurement"))
	assert.False(t, restored.IsOpen("HR"))
}

func TestSidebarModel_SetActivePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	p, err := prefs.Open(path)
	require.NoError(t, err)

	reg, err := schema.Default()
	require.NoError(t, err)

	sb := NewSidebarModel(&Layout{Width: 120, Height: 40}, p, reg.Groups())
	sb.Focus()
	sb.SetActive("employee")

	assert.True(t, sb.IsOpen("HR"))
	assert.Equal(t, "employee", sb.entries()[sb.cursor].module.Name)

	reopened, err := prefs.Open(path)
	require.NoError(t, err)
	assert.True(t, reopened.Bool(prefs.MenuKey("HR"), false))

	next, _ := sb.Update(tea.KeyMsg{Type: tea.KeyUp})
	sb = next.(SidebarModel)
	next, _ = sb.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sb = next.(SidebarModel)

	assert.False(t, sb.IsOpen("HR"))
	assert.Less(t, sb.cursor, len(sb.entries()))
	assert.Nil(t, sb.entries()[sb.cursor].module)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestImportModel_PreviewAndStore(t *testing.T) {
	m := module(t, "purchase_order")
	store := memstore.New(m.Name)

	im := NewImportModel(m, store, importer.NewService())

	next, _ := im.parse(writeCSV(t, "Vendor;Order Date\nVendor C;2024-04-01\nVendor D;2024-04-02\n"))
	im = next.(ImportModel)

	require.Equal(t, importStatePreview, im.state)
	require.NoError(t, im.err)
	require.Len(t, im.parsed, 2)
	assert.True(t, im.selected[0])
	assert.True(t, im.selected[1])

	next, _ = im.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	im = next.(ImportModel)
	assert.False(t, im.selected[0])

	next, _ = im.Update(tea.KeyMsg{Type: tea.KeyEnter})
	im = next.(ImportModel)

	assert.Equal(t, importStateResult, im.state)
	assert.Equal(t, "Imported 1 records.", im.status)
	require.Equal(t, 1, store.Len())
	assert.Equal(t, "Vendor D", store.List()[0].Field("vendor"))
}

func TestImportModel_ParseFailure(t *testing.T) {
	m := module(t, "purchase_order")
	store := memstore.New(m.Name)

	im := NewImportModel(m, store, importer.NewService())

	next, _ := im.parse(writeCSV(t, "a;b\n1;2\n"))
	im = next.(ImportModel)

	assert.Equal(t, importStateResult, im.state)
	assert.ErrorContains(t, im.err, "no header row")

	next, cmd := im.Update(tea.KeyMsg{Type: tea.KeyEsc})
	im = next.(ImportModel)
	assert.Nil(t, cmd)
	assert.Equal(t, importStateFilePick, im.state)
	assert.Zero(t, store.Len())
}

func loginServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}

		if r.URL.Path != "/api/v1/auth/login" || json.NewDecoder(r.Body).Decode(&body) != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if body.Username != "admin" || body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))

			return
		}

		_, _ = w.Write([]byte(`{"token":"signed"}`))
	}))
	t.Cleanup(ts.Close)

	return ts
}

func submitLogin(lm LoginModel, password string) (tea.Model, tea.Cmd) {
	lm.creds.password = password
	lm.form.State = huh.StateCompleted

	return lm.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
}

func TestLoginModel_Submit(t *testing.T) {
	type testCase struct {
		name      string
		password  string
		wantToken string
		wantErr   string
	}

	tests := []testCase{
		{name: "Success", password: "hunter2", wantToken: "signed"},
		{name: "WrongPassword", password: "hunter3", wantErr: "wrong username or password"},
	}

	ts := loginServer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := NewLoginModel(gateway.New(ts.URL), "admin")

			next, cmd := submitLogin(lm, tt.password)
			lm = next.(LoginModel)

			if tt.wantErr != "" {
				assert.ErrorContains(t, lm.err, tt.wantErr)
				assert.Empty(t, lm.creds.password)
				assert.Equal(t, huh.StateNormal, lm.form.State)

				return
			}

			require.NoError(t, lm.err)
			require.NotNil(t, cmd)
			assert.Equal(t, LoggedInMsg{Token: tt.wantToken}, cmd())
		})
	}
}

func TestLoginModel_EscapeGoesBack(t *testing.T) {
	lm := NewLoginModel(gateway.New("http://127.0.0.1:1"), "admin")

	_, cmd := lm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}
