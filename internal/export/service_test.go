package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/backoffice/internal/export"
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

func TestWrite_WithItems(t *testing.T) {
	m := module(t, "purchase_order")

	recs := []record.Record{
		{
			ID:     1,
			Fields: map[string]string{"vendor": "Vendor A", "date": "2024-03-12"},
			Status: "Pending",
			Items: []record.LineItem{
				{Product: "Laptop", Unit: "pcs", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1000), TotalPrice: decimal.NewFromInt(2000)},
				{Product: "Mouse", Unit: "pcs", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(25), TotalPrice: decimal.NewFromInt(50)},
			},
		},
		{
			ID:     2,
			Fields: map[string]string{"vendor": "Vendor B", "date": "2024-03-10"},
			Status: "Approved",
			Items:  []record.LineItem{},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, m, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.RecordsSheet, export.ItemsSheet}, f.GetSheetList())

	rows, err := f.GetRows(export.RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Vendor", "Order Date", "Status", "Total"}, rows[0])
	assert.Equal(t, []string{"1", "Vendor A", "2024-03-12", "Pending", "2050"}, rows[1])
	assert.Equal(t, []string{"2", "Vendor B", "2024-03-10", "Approved", "0"}, rows[2])

	items, err := f.GetRows(export.ItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"1", "Laptop", "pcs", "2", "1000", "2000"}, items[1])
	assert.Equal(t, []string{"1", "Mouse", "pcs", "2", "25", "50"}, items[2])
}

func TestWrite_WithoutItems(t *testing.T) {
	m := module(t, "employee")

	recs := []record.Record{{
		ID:     1,
		Fields: map[string]string{"name": "Jane", "email": "jane@example.com", "contact": "555", "position": "Buyer"},
		Status: "Active",
	}}

	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, m, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.RecordsSheet}, f.GetSheetList())

	rows, err := f.GetRows(export.RecordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane", rows[1][1])
}

func TestFileName(t *testing.T) {
	m := module(t, "goods_issued")
	assert.Equal(t, "goods_issued_20240312.xlsx", export.FileName(m, time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)))
}
