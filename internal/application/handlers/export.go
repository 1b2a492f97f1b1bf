package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/popolo-core/internal/domain/services"
	"github.com/ersonp/popolo-core/internal/infrastructure/parsers"
)

// ValidExportFormats lists the formats accepted by ExportHandler.
var ValidExportFormats = []string{"json", "csv", "markdown"}

// ExportHandler writes the dataset in one of the export formats.
type ExportHandler struct {
	service *services.ExportService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(service *services.ExportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// ExportResult counts what was written.
type ExportResult struct {
	Persons       int
	Organizations int
	Memberships   int
	Identifiers   int
}

// Handle writes the dataset to w. json is a Popolo document that import
// reads back; csv holds the identifiers in the identifier CSV layout.
func (h *ExportHandler) Handle(ctx context.Context, w io.Writer, format string) (*ExportResult, error) {
	doc, err := h.service.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting: %w", err)
	}

	rows := services.IdentifierRows(doc)
	switch format {
	case "json":
		err = FormatJSON(w, doc)
	case "csv":
		err = FormatCSV(w, rows)
	case "markdown":
		err = FormatMarkdown(w, doc)
	default:
		return nil, fmt.Errorf("invalid format %q, valid formats: %v", format, ValidExportFormats)
	}
	if err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}

	return &ExportResult{
		Persons:       len(doc.Persons),
		Organizations: len(doc.Organizations),
		Memberships:   len(doc.Memberships),
		Identifiers:   len(rows),
	}, nil
}

// FormatJSON writes doc as indented Popolo JSON.
func FormatJSON(w io.Writer, doc *parsers.Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// FormatCSV writes identifier rows with the header the CSV importer expects.
func FormatCSV(w io.Writer, rows []parsers.IdentifierRow) error {
	writer := csv.NewWriter(w)

	header := []string{"owner_kind", "owner_id", "scheme", "identifier", "start_date", "end_date", "source"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.OwnerKind,
			r.OwnerID,
			r.Scheme,
			r.Identifier,
			r.StartDate.String(),
			r.EndDate.String(),
			r.Source,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// FormatMarkdown writes a persons table and an organizations table.
func FormatMarkdown(w io.Writer, doc *parsers.Document) error {
	if _, err := fmt.Fprintf(w, "# Popolo Export\n\n%d persons, %d organizations, %d memberships\n\n",
		len(doc.Persons), len(doc.Organizations), len(doc.Memberships)); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "## Persons\n\n| Name | Born | Died | Other names |\n|------|------|------|-------------|\n"); err != nil {
		return err
	}
	for _, p := range doc.Persons {
		names := make([]string, len(p.OtherNames))
		for i, n := range p.OtherNames {
			names[i] = n.Name
		}
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdown(p.Name),
			p.BirthDate,
			p.DeathDate,
			escapeMarkdown(strings.Join(names, ", ")),
		); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprint(w, "\n## Organizations\n\n| Name | Classification | Founded | Dissolved |\n|------|----------------|---------|-----------|\n"); err != nil {
		return err
	}
	for _, o := range doc.Organizations {
		if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
			escapeMarkdown(o.Name),
			escapeMarkdown(o.Classification),
			o.FoundingDate,
			o.DissolutionDate,
		); err != nil {
			return err
		}
	}

	return nil
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
