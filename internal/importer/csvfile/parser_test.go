package csvfile_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/backoffice/internal/importer/csvfile"
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

func TestParser_LabelsWithPreamble(t *testing.T) {
	csv := `Requisitions export;2024-03-31
Generated by;admin

Department;Vendor;Requisition Date;Expire Date;Remark;Status
IT;Vendor A;2024-03-12;2024-04-12;Urgent;Pending
HR;Vendor B;2024-03-10;2024-04-10;Regular;Approved
;;;;;
`

	recs, err := csvfile.NewParser().Parse(module(t, "requisition"), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "IT", recs[0].Field("department"))
	assert.Equal(t, "Vendor A", recs[0].Field("vendor"))
	assert.Equal(t, "2024-03-12", recs[0].Field("date"))
	assert.Equal(t, "2024-04-12", recs[0].Field("expireDate"))
	assert.Equal(t, record.StatusPending, recs[0].Status)
	assert.NotNil(t, recs[0].Items)

	assert.Equal(t, record.Status("Approved"), recs[1].Status)
}

func TestParser_CommaDelimitedFieldNames(t *testing.T) {
	csv := "invoiceNumber,supplier,totalAmount,date\n" +
		"INV1234,ABC Supplies,1500,2024-03-12\n" +
		"INV1235,XYZ Corp,\"2.500,75\",2024-03-10\n"

	recs, err := csvfile.NewParser().Parse(module(t, "purchase_invoice"), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "1500", recs[0].Field("totalAmount"))
	assert.Equal(t, "2500.75", recs[1].Field("totalAmount"))
	assert.Equal(t, record.StatusPending, recs[1].Status)
	assert.Nil(t, recs[1].Items)
}

func TestParser_Windows1252(t *testing.T) {
	text := "Name;Email;Contact;Position;Department\nJoão Gonçalves;joao@example.com;912345678;Técnico;Operações\n"

	latin1, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)

	recs, err := csvfile.NewParser().Parse(module(t, "employee"), bytes.NewReader([]byte(latin1)))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	assert.Equal(t, "João Gonçalves", recs[0].Field("name"))
	assert.Equal(t, record.Status("Active"), recs[0].Status)
}

func TestParser_Errors(t *testing.T) {
	type testCase struct {
		name    string
		module  string
		csv     string
		wantErr string
	}

	tests := []testCase{
		{
			name:    "NoHeader",
			module:  "purchase_order",
			csv:     "foo;bar\n1;2\n",
			wantErr: "no header row found for purchase_order",
		},
		{
			name:    "MissingRequiredValue",
			module:  "purchase_order",
			csv:     "vendor;date\nVendor A;2024-03-12\n;2024-03-13\n",
			wantErr: "row 3: missing required fields: vendor",
		},
		{
			name:    "BadNumber",
			module:  "purchase_invoice",
			csv:     "invoiceNumber;supplier;totalAmount\nINV1;ABC;lots\n",
			wantErr: "row 2: totalAmount",
		},
		{
			name:    "UnknownStatus",
			module:  "purchase_order",
			csv:     "vendor;date;status\nVendor A;2024-03-12;Shipped\n",
			wantErr: `row 2: unknown status "Shipped"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := csvfile.NewParser().Parse(module(t, tt.module), strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
