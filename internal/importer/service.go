package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/backoffice/internal/importer/csvfile"
	"github.com/MrJamesThe3rd/backoffice/internal/importer/xlsxfile"
	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

type Service struct {
	csvImporter  Importer
	xlsxImporter Importer
}

func NewService() *Service {
	return &Service{
		csvImporter:  csvfile.NewParser(),
		xlsxImporter: xlsxfile.NewParser(),
	}
}

// Import parses r into records of module m. The records are not stored.
func (s *Service) Import(format Format, m *schema.Module, r io.Reader) ([]record.Record, error) {
	var importer Importer

	switch format {
	case FormatCSV, "":
		importer = s.csvImporter
	case FormatXLSX:
		importer = s.xlsxImporter
	default:
		return nil, fmt.Errorf("unknown import format: %s", format)
	}

	return importer.Parse(m, r)
}
