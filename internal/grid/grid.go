// Package grid lays out a module's records as table rows: which columns a module gets, how each
// cell is formatted, how statuses are toned and how rows are split into pages.
package grid

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

const (
	KeyID     = "id"
	KeyStatus = schema.StatusField
	KeyTotal  = "total"
)

// PageSizes are the page sizes a user can pick from, smallest first.
var PageSizes = []int{5, 10, 25}

const DisplayDate = "Jan 2, 2006"

type Column struct {
	Key   string
	Title string
	Width int
}

// Columns returns the id column, one column per scalar field, the status column and, for modules
// with line items, the item total.
func Columns(m *schema.Module) []Column {
	cols := make([]Column, 0, len(m.Fields)+3)
	cols = append(cols, Column{Key: KeyID, Title: "ID", Width: 5})

	for _, f := range m.Fields {
		cols = append(cols, Column{Key: f.Name, Title: f.Label, Width: fieldWidth(f)})
	}

	cols = append(cols, Column{Key: KeyStatus, Title: "Status", Width: 10})

	if m.Items {
		cols = append(cols, Column{Key: KeyTotal, Title: "Total", Width: 12})
	}

	return cols
}

func fieldWidth(f schema.Field) int {
	switch f.Type {
	case schema.FieldDate:
		return 13
	case schema.FieldNumber:
		return 10
	}

	return max(len(f.Label)+2, 16)
}

// Row formats a record's cells in Columns order.
func Row(m *schema.Module, r record.Record) []string {
	cells := make([]string, 0, len(m.Fields)+3)
	cells = append(cells, strconv.FormatInt(r.ID, 10))

	for _, f := range m.Fields {
		cells = append(cells, Cell(f, r.Field(f.Name)))
	}

	cells = append(cells, string(r.Status))

	if m.Items {
		cells = append(cells, Money(r.Total()))
	}

	return cells
}

// Cell formats a field value for display. Dates stored as YYYY-MM-DD read as "Mar 12, 2024";
// anything unparseable is shown as stored.
func Cell(f schema.Field, v string) string {
	if f.Type == schema.FieldDate {
		return Date(v)
	}

	return v
}

func Date(v string) string {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return v
	}

	return t.Format(DisplayDate)
}

func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Tone is how a status is coloured.
type Tone int

const (
	TonePending Tone = iota
	ToneDone
)

// StatusTone is ToneDone for the module's completed statuses (Approved, Received, Paid, Issued...)
// and TonePending for everything else.
func StatusTone(m *schema.Module, status record.Status) Tone {
	if m.IsDone(string(status)) {
		return ToneDone
	}

	return TonePending
}

// Pages is the number of pages n rows fill at the given size. An empty table still has one page.
func Pages(n, size int) int {
	if size <= 0 || n == 0 {
		return 1
	}

	return (n + size - 1) / size
}

// Paginate returns the rows on page (0-based) and the page actually shown, clamped to the
// available range.
func Paginate[T any](rows []T, page, size int) ([]T, int) {
	if size <= 0 {
		return rows, 0
	}

	page = min(max(page, 0), Pages(len(rows), size)-1)

	start := page * size
	end := min(start+size, len(rows))

	return rows[start:end], page
}

// NextPageSize cycles through PageSizes.
func NextPageSize(current int) int {
	for i, s := range PageSizes {
		if s == current {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}

	return PageSizes[0]
}
