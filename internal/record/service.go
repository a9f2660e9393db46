package record

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=record
type Repository interface {
	ListRecords(ctx context.Context, module string) ([]*Record, error)
	GetRecord(ctx context.Context, module string, id int64) (*Record, error)
	CreateRecord(ctx context.Context, rec *Record) error
	UpdateRecord(ctx context.Context, rec *Record) error
	DeleteRecord(ctx context.Context, module string, id int64) error

	CreateItem(ctx context.Context, module string, recordID int64, item *LineItem) error
	DeleteItem(ctx context.Context, module string, recordID, itemID int64) error

	BeginBatch(ctx context.Context) (BatchTx, error)
}

type BatchTx interface {
	CreateRecords(ctx context.Context, recs []*Record) error
	Commit() error
	Rollback() error
}

// Service is the server side of the records API: it checks incoming records against their
// module definition before handing them to the repository.
type Service struct {
	repo    Repository
	modules *schema.Registry
}

func NewService(repo Repository, modules *schema.Registry) *Service {
	return &Service{repo: repo, modules: modules}
}

// Module resolves a module name against the registry.
func (s *Service) Module(name string) (*schema.Module, error) {
	m, ok := s.modules.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}

	return m, nil
}

func (s *Service) Modules() []*schema.Module {
	return s.modules.Modules()
}

func (s *Service) List(ctx context.Context, module string) ([]*Record, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	recs, err := s.repo.ListRecords(ctx, module)
	if err != nil {
		return nil, err
	}

	for _, r := range recs {
		shape(m, r)
	}

	return recs, nil
}

func (s *Service) Get(ctx context.Context, module string, id int64) (*Record, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetRecord(ctx, module, id)
	if err != nil {
		return nil, err
	}

	shape(m, rec)

	return rec, nil
}

func (s *Service) Create(ctx context.Context, module string, in Record) (*Record, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	rec, err := prepare(m, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// CreateBatch creates all records in one transaction. Nothing is stored when any record is invalid.
func (s *Service) CreateBatch(ctx context.Context, module string, in []Record) ([]*Record, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	if len(in) == 0 {
		return nil, nil
	}

	recs := make([]*Record, len(in))

	for i, r := range in {
		rec, err := prepare(m, r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}

		recs[i] = rec
	}

	btx, err := s.repo.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer btx.Rollback()

	if err := btx.CreateRecords(ctx, recs); err != nil {
		return nil, fmt.Errorf("create records: %w", err)
	}

	if err := btx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}

	return recs, nil
}

// Update replaces the record with the given id, items included.
func (s *Service) Update(ctx context.Context, module string, id int64, in Record) (*Record, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	rec, err := prepare(m, in)
	if err != nil {
		return nil, err
	}

	rec.ID = id

	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) Delete(ctx context.Context, module string, id int64) error {
	if _, err := s.Module(module); err != nil {
		return err
	}

	return s.repo.DeleteRecord(ctx, module, id)
}

// AddItem appends one line item to an existing record. The total is recomputed from quantity and
// unit price; whatever total the caller sent is ignored.
func (s *Service) AddItem(ctx context.Context, module string, recordID int64, in LineItem) (*LineItem, error) {
	m, err := s.Module(module)
	if err != nil {
		return nil, err
	}

	if !m.Items {
		return nil, &ValidationError{Field: "items", Reason: "module has no line items"}
	}

	item, err := prepareItem(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateItem(ctx, module, recordID, &item); err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *Service) RemoveItem(ctx context.Context, module string, recordID, itemID int64) error {
	if _, err := s.Module(module); err != nil {
		return err
	}

	return s.repo.DeleteItem(ctx, module, recordID, itemID)
}

// prepare copies the declared fields of in, defaults its status and validates it for m.
// Fields the module does not declare are dropped.
func prepare(m *schema.Module, in Record) (*Record, error) {
	if missing := m.Missing(in.Fields); len(missing) > 0 {
		return nil, &MissingFieldError{Fields: missing}
	}

	rec := &Record{
		Module: m.Name,
		Fields: make(map[string]string, len(m.Fields)),
		Status: in.Status,
	}

	for _, f := range m.Fields {
		if v, ok := in.Fields[f.Name]; ok {
			rec.Fields[f.Name] = v
		}
	}

	if rec.Status == "" {
		rec.Status = Status(m.DefaultStatus)
	}

	if !m.HasStatus(string(rec.Status)) {
		return nil, &ValidationError{Field: schema.StatusField, Reason: fmt.Sprintf("%q is not a status of %s", rec.Status, m.Name)}
	}

	if !m.Items {
		if len(in.Items) > 0 {
			return nil, &ValidationError{Field: "items", Reason: "module has no line items"}
		}

		return rec, nil
	}

	rec.Items = make([]LineItem, 0, len(in.Items))

	for _, it := range in.Items {
		item, err := prepareItem(it)
		if err != nil {
			return nil, err
		}

		rec.Items = append(rec.Items, item)
	}

	return rec, nil
}

// shape drops the item list of records whose module has no line items, so they encode without
// an items key.
func shape(m *schema.Module, rec *Record) {
	if !m.Items {
		rec.Items = nil
	} else if rec.Items == nil {
		rec.Items = []LineItem{}
	}
}

func prepareItem(it LineItem) (LineItem, error) {
	it.ID = 0
	it.TotalPrice = it.Quantity.Mul(it.UnitPrice)

	if err := ValidateItem(it); err != nil {
		return LineItem{}, err
	}

	return it, nil
}
