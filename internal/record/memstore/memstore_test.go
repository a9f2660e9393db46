package memstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/record/memstore"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

func rec(fields map[string]string) record.Record {
	return record.Record{Fields: fields, Status: record.StatusPending}
}

func TestStore_AddAssignsSequentialIDs(t *testing.T) {
	s := memstore.New("purchase_order")

	for want := int64(1); want <= 5; want++ {
		got := s.Add(rec(map[string]string{"vendor": "V"}))
		assert.Equal(t, want, got.ID)
	}

	ids := make([]int64, 0, s.Len())
	for _, r := range s.List() {
		ids = append(ids, r.ID)
	}

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestStore_AddIgnoresIncomingID(t *testing.T) {
	s := memstore.New("purchase_order")

	r := rec(map[string]string{"vendor": "Vendor A", "date": "2024-03-12"})
	r.ID = 42
	r.Items = []record.LineItem{}

	got := s.Add(r)
	assert.Equal(t, int64(1), got.ID)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, "Vendor A", list[0].Field("vendor"))
	assert.Equal(t, "purchase_order", list[0].Module)
}

func TestStore_AddUsesMaxIDAfterRemove(t *testing.T) {
	s := memstore.New("m")
	s.Add(rec(nil))
	s.Add(rec(nil))
	s.Add(rec(nil))
	s.Remove(1)

	got := s.Add(rec(nil))
	assert.Equal(t, int64(4), got.ID)
}

func TestStore_Replace(t *testing.T) {
	s := memstore.New("m")
	s.Add(rec(map[string]string{"vendor": "A"}))
	s.Add(rec(map[string]string{"vendor": "B"}))

	replacement := rec(map[string]string{"vendor": "B2"})
	replacement.ID = 99
	s.Replace(2, replacement)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID)
	assert.Equal(t, "B2", list[1].Field("vendor"))
	assert.Equal(t, "A", list[0].Field("vendor"))
}

func TestStore_ReplaceMissingIsNoop(t *testing.T) {
	s := memstore.New("m")
	s.Add(rec(map[string]string{"vendor": "A"}))
	s.Add(rec(map[string]string{"vendor": "B"}))

	before := s.List()
	s.Replace(7, rec(map[string]string{"vendor": "Z"}))

	assert.Equal(t, before, s.List())
}

func TestStore_Remove(t *testing.T) {
	type testCase struct {
		name    string
		id      int64
		wantLen int
	}

	tests := []testCase{
		{name: "Present", id: 2, wantLen: 2},
		{name: "Absent", id: 9, wantLen: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memstore.New("m")
			s.Add(rec(nil))
			s.Add(rec(nil))
			s.Add(rec(nil))

			s.Remove(tt.id)
			assert.Equal(t, tt.wantLen, s.Len())
		})
	}
}

func TestStore_ListIsACopy(t *testing.T) {
	s := memstore.New("m")
	s.Add(rec(map[string]string{"vendor": "A"}))

	list := s.List()
	list[0].Fields["vendor"] = "mutated"

	assert.Equal(t, "A", s.List()[0].Field("vendor"))
}

func TestFromSchema(t *testing.T) {
	reg, err := schema.Default()
	require.NoError(t, err)

	m, _ := reg.Get("requisition")
	s := memstore.FromSchema(m)

	list, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, int64(1), list[0].ID)
	assert.Equal(t, "IT", list[0].Field("department"))
	assert.Equal(t, record.StatusPending, list[0].Status)
	assert.Equal(t, record.Status("Approved"), list[1].Status)
	assert.NotNil(t, list[1].Items)
	assert.Empty(t, list[1].Items)
}
