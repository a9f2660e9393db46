package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/backoffice/internal/grid"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

const (
	RecordsSheet = "Records"
	ItemsSheet   = "Items"
)

var itemHeader = []any{"Record ID", "Product", "Unit", "Quantity", "Unit Price", "Total Price"}

// FileName is the download name for a module export made at t.
func FileName(m *schema.Module, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", m.Name, t.Format("20060102"))
}

// Write renders the records of m as an XLSX workbook: one row per record on the Records sheet,
// with the columns the console shows, and for modules with line items one row per item on the
// Items sheet keyed by the record id.
func Write(w io.Writer, m *schema.Module, recs []record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), RecordsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	cols := grid.Columns(m)

	titles := make([]any, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}

	if err := writeRow(f, RecordsSheet, 1, titles, header); err != nil {
		return err
	}

	for i, rec := range recs {
		if err := writeRow(f, RecordsSheet, i+2, recordCells(m, rec), 0); err != nil {
			return err
		}
	}

	if !m.Items {
		return writeTo(f, w)
	}

	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("creating items sheet: %w", err)
	}

	if err := writeRow(f, ItemsSheet, 1, itemHeader, header); err != nil {
		return err
	}

	row := 2

	for _, rec := range recs {
		for _, it := range rec.Items {
			cells := []any{rec.ID, it.Product, it.Unit, number(it.Quantity), number(it.UnitPrice), number(it.TotalPrice)}
			if err := writeRow(f, ItemsSheet, row, cells, 0); err != nil {
				return err
			}

			row++
		}
	}

	return writeTo(f, w)
}

func recordCells(m *schema.Module, rec record.Record) []any {
	cells := make([]any, 0, len(m.Fields)+3)
	cells = append(cells, rec.ID)

	for _, f := range m.Fields {
		v := rec.Field(f.Name)

		if f.Type == schema.FieldNumber {
			if d, err := decimal.NewFromString(v); err == nil {
				cells = append(cells, number(d))
				continue
			}
		}

		cells = append(cells, v)
	}

	cells = append(cells, string(rec.Status))

	if m.Items {
		cells = append(cells, number(rec.Total()))
	}

	return cells
}

func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func writeRow(f *excelize.File, sheet string, row int, cells []any, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, start, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}

	if style == 0 || len(cells) == 0 {
		return nil
	}

	end, err := excelize.CoordinatesToCellName(len(cells), row)
	if err != nil {
		return err
	}

	return f.SetCellStyle(sheet, start, end, style)
}

func writeTo(f *excelize.File, w io.Writer) error {
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}
