package record

import "context"

// Backend is where the console persists parent records: the in-memory store in local mode or
// the remote gateway.
type Backend interface {
	Fetch(ctx context.Context) ([]Record, error)
	Create(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, id int64, rec Record) (Record, error)
	Delete(ctx context.Context, id int64) error
}

// ItemBackend is implemented by backends that persist line items individually, as they are
// appended or removed, independent of the parent save.
type ItemBackend interface {
	CreateItem(ctx context.Context, parentID int64, item LineItem) (LineItem, error)
	DeleteItem(ctx context.Context, parentID, itemID int64) error
}

// ErrorPolicy decides what happens to backend failures inside the editor.
type ErrorPolicy string

const (
	// PolicyLog logs backend failures and carries on as if the call succeeded.
	PolicyLog ErrorPolicy = "log"
	// PolicySurface returns backend failures to the caller and keeps the editor open.
	PolicySurface ErrorPolicy = "surface"
)

func ParsePolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(s) {
	case "", PolicyLog:
		return PolicyLog, nil
	case PolicySurface:
		return PolicySurface, nil
	}

	return "", &ValidationError{Field: "error_policy", Reason: "must be log or surface"}
}
