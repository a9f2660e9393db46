package record

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Status is a module-specific lifecycle state such as Pending, Approved or Paid.
type Status string

const StatusPending Status = "Pending"

// Record is a parent record: a requisition, purchase order, goods receipt/issue, invoice or
// employee entry, with free-form scalar fields and an ordered list of line items.
type Record struct {
	ID     int64
	Module string
	Fields map[string]string
	Status Status
	Items  []LineItem
}

// LineItem is one product/quantity/price entry owned by a parent record.
type LineItem struct {
	ID         int64           `json:"id,omitempty"`
	Product    string          `json:"product"`
	Unit       string          `json:"unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// Field returns a scalar field value, or "" when unset.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

// Clone copies the record so that mutating the copy's fields or items leaves r untouched.
func (r Record) Clone() Record {
	c := r
	c.Fields = maps.Clone(r.Fields)
	c.Items = slices.Clone(r.Items)

	return c
}

// Total sums the line totals.
func (r Record) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.TotalPrice)
	}

	return total
}

// MarshalJSON writes the record as one flat object: scalar fields next to id, status and items.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+3)
	for k, v := range r.Fields {
		out[k] = v
	}

	if r.ID != 0 {
		out["id"] = r.ID
	}

	if r.Status != "" {
		out["status"] = r.Status
	}

	if r.Items != nil {
		out["items"] = r.Items
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads a flat record object. Scalar values of any JSON type are kept as their
// text form; a missing items key leaves Items nil.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{Fields: make(map[string]string, len(raw))}

	for k, v := range raw {
		switch k {
		case "id":
			if err := json.Unmarshal(v, &r.ID); err != nil {
				return fmt.Errorf("decoding id: %w", err)
			}
		case "status":
			if err := json.Unmarshal(v, &r.Status); err != nil {
				return fmt.Errorf("decoding status: %w", err)
			}
		case "items":
			if err := json.Unmarshal(v, &r.Items); err != nil {
				return fmt.Errorf("decoding items: %w", err)
			}
		default:
			r.Fields[k] = scalarText(v)
		}
	}

	return nil
}

func scalarText(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}

	if string(v) == "null" {
		return ""
	}

	return string(v)
}
