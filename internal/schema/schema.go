package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldType controls how a field is edited and rendered.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldDate   FieldType = "date"
	FieldNumber FieldType = "number"
	FieldSelect FieldType = "select"
)

// StatusField is the reserved field name holding a record's status.
const StatusField = "status"

// Field describes one scalar field of a module's parent record.
type Field struct {
	Name     string    `yaml:"name" json:"name"`
	Label    string    `yaml:"label" json:"label"`
	Type     FieldType `yaml:"type" json:"type"`
	Required bool      `yaml:"required" json:"required"`
	Options  []string  `yaml:"options,omitempty" json:"options,omitempty"`
}

// Module is the definition of one master-detail screen: its scalar fields, status domain
// and whether records carry a line-item sub-table.
type Module struct {
	Name          string              `yaml:"name" json:"name"`
	Title         string              `yaml:"title" json:"title"`
	Group         string              `yaml:"group" json:"group"`
	Fields        []Field             `yaml:"fields" json:"fields"`
	Statuses      []string            `yaml:"statuses" json:"statuses"`
	DefaultStatus string              `yaml:"default_status" json:"default_status"`
	DoneStatuses  []string            `yaml:"done_statuses" json:"done_statuses"`
	Items         bool                `yaml:"items" json:"items"`
	SyncItems     bool                `yaml:"sync_items" json:"sync_items"`
	Seed          []map[string]string `yaml:"seed,omitempty" json:"-"`
}

var validate = validator.New()

// Field returns the field definition with the given name.
func (m *Module) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}

	return Field{}, false
}

// Required returns the names of the required fields in declaration order.
func (m *Module) Required() []string {
	var names []string

	for _, f := range m.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}

	return names
}

// Missing returns the required fields whose value is blank.
func (m *Module) Missing(values map[string]string) []string {
	var missing []string

	for _, name := range m.Required() {
		if err := validate.Var(strings.TrimSpace(values[name]), "required"); err != nil {
			missing = append(missing, name)
		}
	}

	return missing
}

// IsDone reports whether the status is one of the module's completed states.
func (m *Module) IsDone(status string) bool {
	return slices.Contains(m.DoneStatuses, status)
}

// HasStatus reports whether status belongs to the module's status domain.
func (m *Module) HasStatus(status string) bool {
	return slices.Contains(m.Statuses, status)
}

func (m *Module) check() error {
	if m.Name == "" {
		return errors.New("module name is required")
	}

	if m.Title == "" {
		m.Title = m.Name
	}

	if len(m.Statuses) == 0 {
		m.Statuses = []string{"Pending"}
	}

	if m.DefaultStatus == "" {
		m.DefaultStatus = "Pending"
	}

	if !m.HasStatus(m.DefaultStatus) {
		return fmt.Errorf("module %s: default status %q not in statuses", m.Name, m.DefaultStatus)
	}

	seen := make(map[string]struct{}, len(m.Fields))

	for i := range m.Fields {
		f := &m.Fields[i]

		if f.Name == "" || f.Name == "id" || f.Name == StatusField || f.Name == "items" {
			return fmt.Errorf("module %s: invalid field name %q", m.Name, f.Name)
		}

		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("module %s: duplicate field %q", m.Name, f.Name)
		}

		seen[f.Name] = struct{}{}

		if f.Label == "" {
			f.Label = f.Name
		}

		switch f.Type {
		case "":
			f.Type = FieldText
		case FieldText, FieldDate, FieldNumber:
		case FieldSelect:
			if len(f.Options) == 0 {
				return fmt.Errorf("module %s: select field %q has no options", m.Name, f.Name)
			}
		default:
			return fmt.Errorf("module %s: field %q has unknown type %q", m.Name, f.Name, f.Type)
		}
	}

	return nil
}
