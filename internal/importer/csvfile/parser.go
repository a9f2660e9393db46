package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/backoffice/internal/encoding"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// Parser reads spreadsheet CSV exports of parent records for one module.
// The header row is found by scanning for the first row that names every required field,
// by field name or label, so report preambles above the table are skipped.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(m *schema.Module, r io.Reader) ([]record.Record, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return ParseRows(m, rows)
}

// ParseRows builds records from already split rows, locating the header the same way Parse does.
func ParseRows(m *schema.Module, rows [][]string) ([]record.Record, error) {
	cols, headerIdx, ok := detectHeader(m, rows)
	if !ok {
		return nil, fmt.Errorf("no header row found for %s: expected columns %s",
			m.Name, strings.Join(m.Required(), ", "))
	}

	return parseRows(m, cols, rows[headerIdx+1:], headerIdx)
}

// colIndex maps field names (and the status column) to their index in the row.
type colIndex map[string]int

// sniffDelimiter picks ';' or ',' by counting both in the first lines.
func sniffDelimiter(data []byte) rune {
	var semis, commas int

	for i, line := range bytes.SplitN(data, []byte("\n"), 11) {
		if i == 10 {
			break
		}

		semis += bytes.Count(line, []byte(";"))
		commas += bytes.Count(line, []byte(","))
	}

	if semis > 0 && semis >= commas {
		return ';'
	}

	return ','
}

func detectHeader(m *schema.Module, rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cells := make(map[string]int, len(row))

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if _, dup := cells[name]; name != "" && !dup {
				cells[name] = i
			}
		}

		cols := make(colIndex)

		for _, f := range m.Fields {
			if i, ok := cells[strings.ToLower(f.Name)]; ok {
				cols[f.Name] = i
			} else if i, ok := cells[strings.ToLower(f.Label)]; ok {
				cols[f.Name] = i
			}
		}

		if i, ok := cells[schema.StatusField]; ok {
			cols[schema.StatusField] = i
		}

		if matchesModule(m, cols) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

// matchesModule checks that every required field has a column. Modules without required fields
// need at least one recognised column.
func matchesModule(m *schema.Module, cols colIndex) bool {
	required := m.Required()
	if len(required) == 0 {
		return len(cols) > 0
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows builds records from the data rows under the header. headerRow is the 0-based index
// of the header in the file, for error messages. Blank rows are skipped.
func parseRows(m *schema.Module, cols colIndex, rows [][]string, headerRow int) ([]record.Record, error) {
	var recs []record.Record

	for i, row := range rows {
		rowNum := headerRow + i + 2 // 1-based, skipping header

		if blank(row) {
			continue
		}

		rec := record.Record{
			Fields: make(map[string]string, len(m.Fields)),
			Status: record.Status(m.DefaultStatus),
		}

		for _, f := range m.Fields {
			idx, ok := cols[f.Name]
			if !ok {
				continue
			}

			v := cellValue(row, idx)

			if f.Type == schema.FieldNumber && v != "" {
				n, err := parseNumber(v)
				if err != nil {
					return nil, fmt.Errorf("row %d: %s: %q is not a number", rowNum, f.Name, v)
				}

				v = n
			}

			rec.Fields[f.Name] = v
		}

		if missing := m.Missing(rec.Fields); len(missing) > 0 {
			return nil, fmt.Errorf("row %d: %w", rowNum, &record.MissingFieldError{Fields: missing})
		}

		if idx, ok := cols[schema.StatusField]; ok {
			if s := cellValue(row, idx); s != "" {
				if !m.HasStatus(s) {
					return nil, fmt.Errorf("row %d: unknown status %q", rowNum, s)
				}

				rec.Status = record.Status(s)
			}
		}

		if m.Items {
			rec.Items = []record.LineItem{}
		}

		recs = append(recs, rec)
	}

	return recs, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
