package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanRecord reads a record row. Expected column order: id, module, status, fields.
func scanRecord(s scanner) (*record.Record, error) {
	var (
		rec    record.Record
		status string
		fields []byte
	)

	if err := s.Scan(&rec.ID, &rec.Module, &status, &fields); err != nil {
		return nil, err
	}

	rec.Status = record.Status(status)
	rec.Items = []record.LineItem{}

	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decoding fields of record %d: %w", rec.ID, err)
	}

	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}

	return &rec, nil
}

const selectRecordColumns = `r.id, r.module, r.status, r.fields`

const selectItemColumns = `ri.record_id, ri.id, ri.product, ri.unit, ri.quantity, ri.unit_price, ri.total_price`

func scanItem(s scanner) (int64, record.LineItem, error) {
	var (
		recordID int64
		it       record.LineItem
	)

	err := s.Scan(&recordID, &it.ID, &it.Product, &it.Unit, &it.Quantity, &it.UnitPrice, &it.TotalPrice)

	return recordID, it, err
}

func (s *Store) ListRecords(ctx context.Context, module string) ([]*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM records r
		WHERE r.module = $1
		ORDER BY r.id ASC`

	rows, err := s.db.QueryContext(ctx, query, module)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []*record.Record

	byID := make(map[int64]*record.Record)

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
		byID[rec.ID] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	if len(recs) == 0 {
		return recs, nil
	}

	itemQuery := `SELECT ` + selectItemColumns + `
		FROM record_items ri
		JOIN records r ON r.id = ri.record_id
		WHERE r.module = $1
		ORDER BY ri.record_id ASC, ri.position ASC`

	if err := s.attachItems(ctx, itemQuery, byID, module); err != nil {
		return nil, err
	}

	return recs, nil
}

func (s *Store) GetRecord(ctx context.Context, module string, id int64) (*record.Record, error) {
	query := `SELECT ` + selectRecordColumns + `
		FROM records r
		WHERE r.id = $1 AND r.module = $2`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id, module))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, record.ErrNotFound
		}

		return nil, fmt.Errorf("getting record: %w", err)
	}

	itemQuery := `SELECT ` + selectItemColumns + `
		FROM record_items ri
		WHERE ri.record_id = $1
		ORDER BY ri.position ASC`

	if err := s.attachItems(ctx, itemQuery, map[int64]*record.Record{rec.ID: rec}, rec.ID); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Store) attachItems(ctx context.Context, query string, byID map[int64]*record.Record, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		recordID, it, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("scanning item: %w", err)
		}

		if rec, ok := byID[recordID]; ok {
			rec.Items = append(rec.Items, it)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating items: %w", err)
	}

	return nil
}

func (s *Store) CreateRecord(ctx context.Context, rec *record.Record) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := insertRecord(ctx, dbTx, rec); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// UpdateRecord replaces the record's status, fields and item list.
func (s *Store) UpdateRecord(ctx context.Context, rec *record.Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE records
		SET status = $1, fields = $2, updated_at = NOW()
		WHERE id = $3 AND module = $4
	`

	res, err := dbTx.ExecContext(ctx, query, rec.Status, fields, rec.ID, rec.Module)
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}

	if err := expectRow(res); err != nil {
		return err
	}

	if _, err := dbTx.ExecContext(ctx, "DELETE FROM record_items WHERE record_id = $1", rec.ID); err != nil {
		return fmt.Errorf("clearing items: %w", err)
	}

	for i := range rec.Items {
		if err := insertItem(ctx, dbTx, rec.ID, i, &rec.Items[i]); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, module string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE id = $1 AND module = $2", id, module)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	return expectRow(res)
}

// CreateItem appends an item after the record's last one. The parent row is locked so concurrent
// appends get distinct positions.
func (s *Store) CreateItem(ctx context.Context, module string, recordID int64, item *record.LineItem) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var id int64

	err = dbTx.QueryRowContext(ctx,
		"SELECT id FROM records WHERE id = $1 AND module = $2 FOR UPDATE", recordID, module,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record.ErrNotFound
		}

		return fmt.Errorf("locking record: %w", err)
	}

	var position int
	if err := dbTx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(position) + 1, 0) FROM record_items WHERE record_id = $1", recordID,
	).Scan(&position); err != nil {
		return fmt.Errorf("finding item position: %w", err)
	}

	if err := insertItem(ctx, dbTx, recordID, position, item); err != nil {
		return err
	}

	if _, err := dbTx.ExecContext(ctx, "UPDATE records SET updated_at = NOW() WHERE id = $1", recordID); err != nil {
		return fmt.Errorf("touching record: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) DeleteItem(ctx context.Context, module string, recordID, itemID int64) error {
	query := `
		DELETE FROM record_items ri
		USING records r
		WHERE ri.id = $1 AND ri.record_id = $2 AND r.id = ri.record_id AND r.module = $3
	`

	res, err := s.db.ExecContext(ctx, query, itemID, recordID, module)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	return expectRow(res)
}

type batchTx struct {
	tx *sql.Tx
}

func (s *Store) BeginBatch(ctx context.Context) (record.BatchTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning batch tx: %w", err)
	}

	return &batchTx{tx: dbTx}, nil
}

func (b *batchTx) Commit() error   { return b.tx.Commit() }
func (b *batchTx) Rollback() error { return b.tx.Rollback() }

func (b *batchTx) CreateRecords(ctx context.Context, recs []*record.Record) error {
	for _, rec := range recs {
		if err := insertRecord(ctx, b.tx, rec); err != nil {
			return err
		}
	}

	return nil
}

func insertRecord(ctx context.Context, q querier, rec *record.Record) error {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding fields: %w", err)
	}

	query := `
		INSERT INTO records (module, status, fields, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`

	if err := q.QueryRowContext(ctx, query, rec.Module, rec.Status, fields).Scan(&rec.ID); err != nil {
		return fmt.Errorf("creating record: %w", err)
	}

	for i := range rec.Items {
		if err := insertItem(ctx, q, rec.ID, i, &rec.Items[i]); err != nil {
			return err
		}
	}

	return nil
}

func insertItem(ctx context.Context, q querier, recordID int64, position int, it *record.LineItem) error {
	query := `
		INSERT INTO record_items (record_id, position, product, unit, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		recordID,
		position,
		it.Product,
		it.Unit,
		it.Quantity,
		it.UnitPrice,
		it.TotalPrice,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return record.ErrNotFound
	}

	return nil
}
