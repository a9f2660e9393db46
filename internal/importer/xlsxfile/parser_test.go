package xlsxfile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/backoffice/internal/export"
	"github.com/MrJamesThe3rd/backoffice/internal/importer/xlsxfile"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
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

func TestParser_ReadsExport(t *testing.T) {
	m := module(t, "purchase_order")

	recs := []record.Record{
		{
			ID:     1,
			Module: m.Name,
			Fields: map[string]string{"vendor": "Vendor A", "date": "2024-03-12"},
			Status: "Pending",
			Items: []record.LineItem{
				{ID: 1, Product: "Laptop", Unit: "pcs", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(900), TotalPrice: decimal.NewFromInt(900)},
			},
		},
		{ID: 2, Module: m.Name, Fields: map[string]string{"vendor": "Vendor B", "date": "2024-03-14"}, Status: "Approved"},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, m, recs))

	got, err := xlsxfile.NewParser().Parse(m, &buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Vendor A", got[0].Field("vendor"))
	assert.Equal(t, "2024-03-12", got[0].Field("date"))
	assert.Equal(t, record.Status("Pending"), got[0].Status)
	assert.Empty(t, got[0].Items)
	assert.Equal(t, record.Status("Approved"), got[1].Status)
}

func TestParser_FirstSheetFallback(t *testing.T) {
	m := module(t, "employee")

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Staff list"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Name", "Email", "Contact", "Position"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"Ana Silva", "ana@example.com", "912345678", "Buyer"}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	got, err := xlsxfile.NewParser().Parse(m, &buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana@example.com", got[0].Field("email"))
	assert.Equal(t, record.Status("Active"), got[0].Status)
}

func TestParser_NotAWorkbook(t *testing.T) {
	_, err := xlsxfile.NewParser().Parse(module(t, "employee"), strings.NewReader("name,email\n"))
	assert.ErrorContains(t, err, "open workbook")
}
