package main

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/backoffice/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/backoffice/internal/config"
	"github.com/MrJamesThe3rd/backoffice/internal/gateway"
	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/logging"
	"github.com/MrJamesThe3rd/backoffice/internal/prefs"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/record/memstore"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

type focus int

const (
	focusSidebar focus = iota
	focusRecords
	focusEditor
	focusImport
	focusLogin
)

type model struct {
	cfg      *config.Config
	layout   *view.Layout
	registry *schema.Registry
	backends view.Backends
	prefs    *prefs.Store
	client   *gateway.Client
	policy   record.ErrorPolicy

	importService *importer.Service

	focus   focus
	sidebar view.SidebarModel
	records *view.RecordsModel
	editor  *view.EditorModel
	imports *view.ImportModel
	login   *view.LoginModel
}

func initialModel(cfg *config.Config, store *prefs.Store) (model, error) {
	registry, err := schema.Load(cfg.Modules.Path)
	if err != nil {
		return model{}, fmt.Errorf("loading modules: %w", err)
	}

	policy, err := record.ParsePolicy(cfg.Console.ErrorPolicy)
	if err != nil {
		return model{}, err
	}

	view.SetCallTimeout(cfg.Console.Timeout)

	layout := &view.Layout{}

	m := model{
		cfg:           cfg,
		layout:        layout,
		registry:      registry,
		prefs:         store,
		policy:        policy,
		importService: importer.NewService(),
		sidebar:       view.NewSidebarModel(layout, store, registry.Groups()),
	}

	switch cfg.Console.Mode {
	case "remote":
		token, _ := store.Get(prefs.KeyToken)
		client := gateway.New(cfg.Console.APIURL, gateway.WithTimeout(cfg.Console.Timeout), gateway.WithToken(token))
		m.client = client
		m.backends = func(mod *schema.Module) record.Backend { return client.Records(mod.Name) }

		if token == "" {
			login := view.NewLoginModel(m.client, cfg.Auth.Username)
			m.login = &login
			m.focus = focusLogin
		}
	default:
		stores := make(map[string]*memstore.Store)
		m.backends = func(mod *schema.Module) record.Backend {
			s, ok := stores[mod.Name]
			if !ok {
				s = memstore.FromSchema(mod)
				stores[mod.Name] = s
			}

			return s
		}
	}

	if mods := registry.Modules(); len(mods) > 0 {
		m.showModule(mods[0])
	}

	if m.focus != focusLogin {
		m.focus = focusRecords
	}

	m.applyFocus()

	return m, nil
}

func (m *model) showModule(mod *schema.Module) {
	records := view.NewRecordsModel(m.layout, mod, m.backends(mod), m.prefs, m.cfg.Console.ExportDir)
	m.records = &records
	m.sidebar.SetActive(mod.Name)
}

func (m *model) applyFocus() {
	m.sidebar.Blur()

	if m.records != nil {
		m.records.Blur()
	}

	switch m.focus {
	case focusSidebar:
		m.sidebar.Focus()
	case focusRecords:
		if m.records != nil {
			m.records.Focus()
		}
	}
}

func (m model) Init() tea.Cmd {
	if m.focus == focusLogin {
		return m.login.Init()
	}

	if m.records != nil {
		return m.records.Init()
	}

	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Width = msg.Width
		m.layout.Height = msg.Height

		if m.records != nil {
			m.updateRecords(msg)
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.focus == focusSidebar || m.focus == focusRecords {
				return m, tea.Quit
			}
		case "ctrl+b":
			m.layout.SidebarCollapsed = !m.layout.SidebarCollapsed
			if m.layout.SidebarCollapsed && m.focus == focusSidebar {
				m.focus = focusRecords
				m.applyFocus()
			}

			return m, nil
		case "tab":
			switch {
			case m.focus == focusSidebar:
				m.focus = focusRecords
			case m.focus == focusRecords && !m.layout.SidebarCollapsed:
				m.focus = focusSidebar
			}

			if m.focus == focusSidebar || m.focus == focusRecords {
				m.applyFocus()
				return m, nil
			}
		}

	case view.ModuleSelectedMsg:
		m.showModule(msg.Module)
		m.focus = focusRecords
		m.applyFocus()

		return m, m.records.Init()

	case view.OpenEditorMsg:
		ed := record.NewEditor(msg.Module, m.backends(msg.Module), record.WithPolicy(m.policy))
		ed.Open(msg.Mode, msg.Record)

		editor := view.NewEditorModel(m.layout, ed)
		m.editor = &editor
		m.focus = focusEditor
		m.applyFocus()

		return m, editor.Init()

	case view.EditorClosedMsg:
		m.editor = nil
		m.focus = focusRecords
		m.applyFocus()

		return m, m.records.Init()

	case view.OpenImportMsg:
		imp := view.NewImportModel(msg.Module, m.backends(msg.Module), m.importService)
		m.imports = &imp
		m.focus = focusImport
		m.applyFocus()

		return m, imp.Init()

	case view.LoggedInMsg:
		m.client.SetToken(msg.Token)

		if err := m.prefs.Set(prefs.KeyToken, msg.Token); err != nil {
			slog.Error("failed to save token", "error", err)
		}

		m.login = nil
		m.focus = focusRecords
		m.applyFocus()

		return m, m.records.Init()

	case view.UnauthorizedMsg:
		if m.client == nil {
			return m, nil
		}

		if err := m.prefs.Delete(prefs.KeyToken); err != nil {
			slog.Error("failed to clear token", "error", err)
		}

		m.client.SetToken("")

		login := view.NewLoginModel(m.client, m.cfg.Auth.Username)
		m.login = &login
		m.focus = focusLogin
		m.applyFocus()

		return m, login.Init()

	case view.BackMsg:
		m.imports = nil
		m.login = nil
		m.focus = focusRecords
		m.applyFocus()

		return m, m.records.Init()
	}

	var cmd tea.Cmd

	switch m.focus {
	case focusSidebar:
		var next tea.Model
		next, cmd = m.sidebar.Update(msg)
		m.sidebar = next.(view.SidebarModel)
	case focusRecords:
		cmd = m.updateRecords(msg)
	case focusEditor:
		var next tea.Model
		next, cmd = m.editor.Update(msg)
		editor := next.(view.EditorModel)
		m.editor = &editor
	case focusImport:
		var next tea.Model
		next, cmd = m.imports.Update(msg)
		imp := next.(view.ImportModel)
		m.imports = &imp
	case focusLogin:
		var next tea.Model
		next, cmd = m.login.Update(msg)
		login := next.(view.LoginModel)
		m.login = &login
	}

	return m, cmd
}

func (m *model) updateRecords(msg tea.Msg) tea.Cmd {
	if m.records == nil {
		return nil
	}

	next, cmd := m.records.Update(msg)
	records := next.(view.RecordsModel)
	m.records = &records

	return cmd
}

func (m model) View() string {
	var (
		content string
		help    string
	)

	switch {
	case m.focus == focusLogin && m.login != nil:
		content, help = m.login.View(), m.login.ShortHelp()
	case m.focus == focusEditor && m.editor != nil:
		content, help = m.editor.View(), m.editor.ShortHelp()
	case m.focus == focusImport && m.imports != nil:
		content, help = m.imports.View(), m.imports.ShortHelp()
	case m.records != nil:
		content = m.records.View()
		help = m.records.ShortHelp()

		if m.focus == focusSidebar {
			help = m.sidebar.ShortHelp()
		}
	default:
		content = "No modules configured."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.sidebar.View(),
		lipgloss.NewStyle().Width(m.layout.ContentWidth()).Render(content),
	)

	footer := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(
		fmt.Sprintf("%s | %s mode | Tab: switch pane | q: quit", help, m.cfg.Console.Mode),
	)

	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logOpts := cfg.Logging()
	logOpts.Output = cfg.Console.LogFile

	closeLog, err := logging.Setup(logOpts)
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	store, err := prefs.Open(cfg.Console.PrefsPath)
	if err != nil {
		slog.Error("failed to open preferences", "error", err)
		os.Exit(1)
	}

	m, err := initialModel(cfg, store)
	if err != nil {
		slog.Error("failed to start console", "error", err)
		os.Exit(1)
	}

	slog.Info("console started", "mode", cfg.Console.Mode, "modules", len(m.registry.Modules()))

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
