package record

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// Mode is the editor's state.
type Mode int

const (
	ModeClosed Mode = iota
	ModeAdd
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	}

	return "closed"
}

// Editor is the master-detail editing session for one module: it holds a draft parent record,
// collects line items into it and persists it through a Backend on save.
type Editor struct {
	module  *schema.Module
	backend Backend
	policy  ErrorPolicy
	log     *slog.Logger

	mode  Mode
	draft Record
	err   error
}

type EditorOption func(*Editor)

func WithPolicy(p ErrorPolicy) EditorOption {
	return func(e *Editor) { e.policy = p }
}

func WithLogger(l *slog.Logger) EditorOption {
	return func(e *Editor) { e.log = l }
}

func NewEditor(module *schema.Module, backend Backend, opts ...EditorOption) *Editor {
	e := &Editor{
		module:  module,
		backend: backend,
		policy:  PolicyLog,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.reset()

	return e
}

func (e *Editor) Module() *schema.Module { return e.module }
func (e *Editor) Mode() Mode             { return e.mode }
func (e *Editor) IsOpen() bool           { return e.mode != ModeClosed }

// Draft returns a copy of the record being edited.
func (e *Editor) Draft() Record { return e.draft.Clone() }

// Err returns the error from the last save or item call, if the editor kept it.
func (e *Editor) Err() error { return e.err }

// Open starts an add session with an empty draft, or an edit session on a copy of rec.
// Records without items get an empty item list.
func (e *Editor) Open(mode Mode, rec *Record) {
	e.reset()

	switch {
	case mode == ModeEdit && rec != nil:
		e.draft = rec.Clone()
		if e.draft.Fields == nil {
			e.draft.Fields = map[string]string{}
		}

		if e.draft.Items == nil {
			e.draft.Items = []LineItem{}
		}

		e.mode = ModeEdit
	case mode == ModeAdd:
		e.mode = ModeAdd
	}
}

// SetField sets a scalar field on the draft. The status field updates the draft status.
// Nothing is validated until save.
func (e *Editor) SetField(name, value string) {
	if !e.IsOpen() {
		return
	}

	if name == schema.StatusField {
		e.draft.Status = Status(value)
		return
	}

	e.draft.Fields[name] = value
}

// AppendItem appends a composed line item to the draft. In an edit session on a backend that
// persists items individually, the item is created remotely first and the stored copy, with its
// server id, is appended.
func (e *Editor) AppendItem(ctx context.Context, item LineItem) error {
	if !e.IsOpen() {
		return ErrEditorClosed
	}

	if ib, ok := e.itemBackend(); ok {
		created, err := ib.CreateItem(ctx, e.draft.ID, item)
		if err != nil {
			e.log.Error("failed to add item", "module", e.module.Name, "record_id", e.draft.ID, "error", err)

			if e.policy == PolicySurface {
				e.err = err
				return err
			}
		} else {
			item = created
		}
	}

	e.draft.Items = append(e.draft.Items, item)

	return nil
}

// RemoveItem removes the item at index from the draft. When items are persisted individually
// the remote delete is attempted first; its failure is logged and the item is removed locally
// regardless.
func (e *Editor) RemoveItem(ctx context.Context, index int) error {
	if !e.IsOpen() {
		return ErrEditorClosed
	}

	if index < 0 || index >= len(e.draft.Items) {
		return fmt.Errorf("%w: %d", ErrItemIndex, index)
	}

	var callErr error

	item := e.draft.Items[index]
	if ib, ok := e.itemBackend(); ok && item.ID != 0 {
		if err := ib.DeleteItem(ctx, e.draft.ID, item.ID); err != nil {
			e.log.Error("failed to delete item",
				"module", e.module.Name, "record_id", e.draft.ID, "item_id", item.ID, "error", err)

			if e.policy == PolicySurface {
				e.err = err
				callErr = err
			}
		}
	}

	e.draft.Items = slices.Delete(e.draft.Items, index, index+1)

	return callErr
}

// Save validates required fields and persists the draft: create for an add session, full
// replace by id for an edit session. A missing required field keeps the editor open. Backend
// failures follow the error policy; under PolicyLog they are logged and the editor closes as
// if the save had succeeded.
func (e *Editor) Save(ctx context.Context) (Record, error) {
	if !e.IsOpen() {
		return Record{}, ErrEditorClosed
	}

	if missing := e.module.Missing(e.draft.Fields); len(missing) > 0 {
		e.err = &MissingFieldError{Fields: missing}
		return Record{}, e.err
	}

	draft := e.draft.Clone()
	draft.Module = e.module.Name

	if draft.Status == "" {
		draft.Status = Status(e.module.DefaultStatus)
	}

	var (
		saved Record
		err   error
	)

	switch e.mode {
	case ModeAdd:
		saved, err = e.backend.Create(ctx, draft)
	case ModeEdit:
		saved, err = e.backend.Update(ctx, draft.ID, draft)
	}

	if err != nil {
		e.log.Error("failed to save record",
			"module", e.module.Name, "mode", e.mode.String(), "record_id", draft.ID, "error", err)

		if e.policy == PolicySurface {
			e.err = err
			return Record{}, err
		}

		e.reset()

		return Record{}, nil
	}

	e.reset()

	return saved, nil
}

// Close discards the draft.
func (e *Editor) Close() {
	e.reset()
}

func (e *Editor) reset() {
	e.mode = ModeClosed
	e.err = nil
	e.draft = Record{
		Module: e.module.Name,
		Fields: map[string]string{},
		Status: Status(e.module.DefaultStatus),
		Items:  []LineItem{},
	}
}

func (e *Editor) itemBackend() (ItemBackend, bool) {
	if e.mode != ModeEdit || !e.module.SyncItems {
		return nil, false
	}

	ib, ok := e.backend.(ItemBackend)

	return ib, ok
}
