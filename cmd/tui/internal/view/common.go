package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// View is the interface that all TUI screens implement.
type View interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// Layout is the application-wide screen state. main owns it and hands the same pointer to every
// screen so they agree on the terminal size and whether the sidebar is collapsed.
type Layout struct {
	Width            int
	Height           int
	SidebarCollapsed bool
}

const (
	sidebarWidth          = 28
	sidebarCollapsedWidth = 4
)

func (l *Layout) SidebarWidth() int {
	if l.SidebarCollapsed {
		return sidebarCollapsedWidth
	}

	return sidebarWidth
}

// ContentWidth is what is left for the active screen next to the sidebar.
func (l *Layout) ContentWidth() int {
	return max(l.Width-l.SidebarWidth()-2, 40)
}

// Backends resolves the persistence backend for a module: a memory store in local mode, the
// remote gateway otherwise.
type Backends func(m *schema.Module) record.Backend

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// ModuleSelectedMsg is sent by the sidebar when a module is picked.
type ModuleSelectedMsg struct {
	Module *schema.Module
}

// OpenEditorMsg asks the shell to open the editor, on a copy of Record in edit mode.
type OpenEditorMsg struct {
	Module *schema.Module
	Mode   record.Mode
	Record *record.Record
}

// EditorClosedMsg is sent when the editor closes. Saved is false when it was cancelled.
type EditorClosedMsg struct {
	Saved bool
}

// OpenImportMsg asks the shell to show the CSV import screen for Module.
type OpenImportMsg struct {
	Module *schema.Module
}

// LoggedInMsg carries a fresh API token.
type LoggedInMsg struct {
	Token string
}

// UnauthorizedMsg is sent when the API rejects the stored token.
type UnauthorizedMsg struct{}
