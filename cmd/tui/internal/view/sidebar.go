package view

import (
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/backoffice/internal/prefs"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// sidebarEntry is one visible line: a group header, or a module when module is set.
type sidebarEntry struct {
	group  string
	module *schema.Module
}

// SidebarModel is the module menu: groups that expand into their modules. Which groups are open
// survives restarts through the prefs store.
type SidebarModel struct {
	layout *Layout
	prefs  *prefs.Store

	groups  []schema.Group
	open    map[string]bool
	cursor  int
	active  string
	focused bool
}

func NewSidebarModel(layout *Layout, store *prefs.Store, groups []schema.Group) SidebarModel {
	open := make(map[string]bool, len(groups))
	for _, g := range groups {
		open[g.Title] = store.Bool(prefs.MenuKey(g.Title), false)
	}

	return SidebarModel{
		layout: layout,
		prefs:  store,
		groups: groups,
		open:   open,
	}
}

func (m SidebarModel) Title() string { return "Menu" }

func (m SidebarModel) ShortHelp() string {
	return "↑/↓: move | Enter: open | ctrl+b: collapse"
}

func (m SidebarModel) Init() tea.Cmd { return nil }

func (m *SidebarModel) Focus() { m.focused = true }
func (m *SidebarModel) Blur()  { m.focused = false }

// SetActive marks a module as the one shown, opening its group.
func (m *SidebarModel) SetActive(name string) {
	m.active = name

	for _, g := range m.groups {
		for _, mod := range g.Modules {
			if mod.Name == name && !m.open[g.Title] {
				m.setOpen(g.Title, true)
			}
		}
	}

	for i, e := range m.entries() {
		if e.module != nil && e.module.Name == name {
			m.cursor = i
		}
	}
}

func (m SidebarModel) IsOpen(group string) bool {
	return m.open[group]
}

func (m SidebarModel) entries() []sidebarEntry {
	var out []sidebarEntry

	for _, g := range m.groups {
		out = append(out, sidebarEntry{group: g.Title})

		if !m.open[g.Title] {
			continue
		}

		for _, mod := range g.Modules {
			out = append(out, sidebarEntry{group: g.Title, module: mod})
		}
	}

	return out
}

func (m SidebarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	entries := m.entries()

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(entries)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.cursor >= len(entries) {
			return m, nil
		}

		e := entries[m.cursor]
		if e.module == nil {
			m.toggle(e.group)
			return m, nil
		}

		m.active = e.module.Name
		mod := e.module

		return m, func() tea.Msg { return ModuleSelectedMsg{Module: mod} }
	}

	return m, nil
}

func (m *SidebarModel) toggle(group string) {
	m.setOpen(group, !m.open[group])
	m.cursor = min(m.cursor, len(m.entries())-1)
}

func (m *SidebarModel) setOpen(group string, open bool) {
	m.open[group] = open

	if err := m.prefs.SetBool(prefs.MenuKey(group), open); err != nil {
		slog.Error("failed to save menu state", "group", group, "error", err)
	}
}

func (m SidebarModel) View() string {
	width := m.layout.SidebarWidth()
	box := lipgloss.NewStyle().
		Width(width).
		Height(max(m.layout.Height-2, 1)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(lipgloss.Color("240"))

	if m.layout.SidebarCollapsed {
		return box.Render("≡")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Backoffice"))
	b.WriteString("\n\n")

	for i, e := range m.entries() {
		var line string

		if e.module == nil {
			arrow := "▸"
			if m.open[e.group] {
				arrow = "▾"
			}

			line = arrow + " " + e.group
		} else {
			line = "   " + e.module.Title
			if e.module.Name == m.active {
				line = activeStyle(line)
			}
		}

		if m.focused && i == m.cursor {
			line = lipgloss.NewStyle().Reverse(true).Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}

	return box.Render(b.String())
}
