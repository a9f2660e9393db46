package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/backoffice/internal/importer"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

func TestService_Import(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)

	m, _ := reg.Get("goods_issued")

	csv := "issueNumber;product;quantity;warehouse;issuedBy;date;status\n" +
		"ISSUE003;Monitor;3;Main Warehouse;John Doe;2024-03-15;Issued\n"

	svc := importer.NewService()

	recs, err := svc.Import(importer.FormatCSV, m, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Monitor", recs[0].Field("product"))

	_, err = svc.Import("xml", m, strings.NewReader(csv))
	assert.ErrorContains(t, err, "unknown import format")
}

func TestFormatFor(t *testing.T) {
	type testCase struct {
		path string
		want importer.Format
	}

	tests := []testCase{
		{path: "orders.csv", want: importer.FormatCSV},
		{path: "orders.txt", want: importer.FormatCSV},
		{path: "purchase_order_20240312.XLSX", want: importer.FormatXLSX},
		{path: "noext", want: importer.FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, importer.FormatFor(tt.path))
		})
	}
}
