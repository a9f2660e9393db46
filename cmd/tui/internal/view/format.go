package view

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

var callTimeout = 5 * time.Second

// SetCallTimeout sets the deadline for each backend call made by the screens.
func SetCallTimeout(d time.Duration) {
	if d > 0 {
		callTimeout = d
	}
}

// CallCtx returns a context with the standard timeout for backend calls.
func CallCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), callTimeout)
}

var (
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
)

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

// StatusText renders a status green when the module counts it as done and red otherwise.
func StatusText(m *schema.Module, status record.Status) string {
	if grid.StatusTone(m, status) == grid.ToneDone {
		return doneStyle.Render(string(status))
	}

	return pendingStyle.Render(string(status))
}

// statusMarker prefixes a status for table cells, which are rendered without colour.
func statusMarker(m *schema.Module, status record.Status) string {
	if grid.StatusTone(m, status) == grid.ToneDone {
		return "● " + string(status)
	}

	return "○ " + string(status)
}

// clampCursor keeps a table's cursor on a row. SetRows on an empty table leaves the cursor at -1
// and it stays there once rows arrive.
func clampCursor(t *table.Model, rows int) {
	if rows == 0 {
		return
	}

	if c := t.Cursor(); c < 0 || c >= rows {
		t.SetCursor(min(max(c, 0), rows-1))
	}
}
