// Package memstore keeps a module's parent records in memory, in insertion order.
//
// A Store is not safe for concurrent use. The console only touches it from its update loop.
package memstore

import (
	"context"
	"slices"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

type Store struct {
	module  string
	records []record.Record
}

func New(module string, seed ...record.Record) *Store {
	s := &Store{module: module}
	for _, r := range seed {
		s.Add(r)
	}

	return s
}

// FromSchema builds a store holding the module's seed rows.
func FromSchema(m *schema.Module) *Store {
	s := New(m.Name)

	for _, row := range m.Seed {
		rec := record.Record{Fields: make(map[string]string, len(row))}

		for k, v := range row {
			if k == schema.StatusField {
				rec.Status = record.Status(v)
				continue
			}

			rec.Fields[k] = v
		}

		if rec.Status == "" {
			rec.Status = record.Status(m.DefaultStatus)
		}

		if m.Items {
			rec.Items = []record.LineItem{}
		}

		s.Add(rec)
	}

	return s
}

// List returns the records in insertion order. The slice is a copy.
func (s *Store) List() []record.Record {
	out := make([]record.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}

	return out
}

func (s *Store) Len() int {
	return len(s.records)
}

// Add stores rec under the next id (highest existing id plus one, or 1 when empty) and
// returns the stored copy. Any id on rec is ignored.
func (s *Store) Add(rec record.Record) record.Record {
	var maxID int64
	for _, r := range s.records {
		maxID = max(maxID, r.ID)
	}

	stored := rec.Clone()
	stored.ID = maxID + 1
	stored.Module = s.module
	s.records = append(s.records, stored)

	return stored.Clone()
}

// Replace overwrites the record with the given id. The id on rec is forced to match.
// An unknown id is skipped silently.
func (s *Store) Replace(id int64, rec record.Record) {
	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}

		stored := rec.Clone()
		stored.ID = id
		stored.Module = s.module
		s.records[i] = stored

		return
	}
}

// Remove drops the record with the given id, if present.
func (s *Store) Remove(id int64) {
	s.records = slices.DeleteFunc(s.records, func(r record.Record) bool {
		return r.ID == id
	})
}

var _ record.Backend = (*Store)(nil)

// Fetch, Create, Update and Delete adapt the store to record.Backend for local mode.

func (s *Store) Fetch(_ context.Context) ([]record.Record, error) {
	return s.List(), nil
}

func (s *Store) Create(_ context.Context, rec record.Record) (record.Record, error) {
	return s.Add(rec), nil
}

func (s *Store) Update(_ context.Context, id int64, rec record.Record) (record.Record, error) {
	s.Replace(id, rec)

	stored := rec.Clone()
	stored.ID = id

	return stored, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.Remove(id)
	return nil
}
