package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ersonp/popolo-core/internal/domain/partialdate"
)

// IdentifierCSVParser parses identifiers for existing entities from CSV.
type IdentifierCSVParser struct{}

// Parse reads CSV from the reader and returns a document holding only identifiers.
// Expected columns: owner_kind, owner_id, scheme, identifier, start_date, end_date, source
func (p *IdentifierCSVParser) Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	rows, err := p.readRecords(reader, colIndex)
	if err != nil {
		return nil, err
	}
	return &Document{Identifiers: rows}, nil
}

// readHeader reads and validates the CSV header row.
func (p *IdentifierCSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"owner_kind", "owner_id", "scheme", "identifier"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to IdentifierRows.
func (p *IdentifierCSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]IdentifierRow, error) {
	var rows []IdentifierRow
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		row, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseRecord converts a CSV record to an IdentifierRow.
func (p *IdentifierCSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (IdentifierRow, error) {
	row := IdentifierRow{
		OwnerKind:  strings.ToLower(getColumn(record, colIndex, "owner_kind")),
		OwnerID:    getColumn(record, colIndex, "owner_id"),
		Scheme:     getColumn(record, colIndex, "scheme"),
		Identifier: getColumn(record, colIndex, "identifier"),
		Source:     getColumn(record, colIndex, "source"),
		LineNum:    lineNum,
	}

	var err error
	if row.StartDate, err = partialdate.Parse(getColumn(record, colIndex, "start_date")); err != nil {
		return IdentifierRow{}, fmt.Errorf("line %d: invalid start_date: %w", lineNum, err)
	}
	if row.EndDate, err = partialdate.Parse(getColumn(record, colIndex, "end_date")); err != nil {
		return IdentifierRow{}, fmt.Errorf("line %d: invalid end_date: %w", lineNum, err)
	}

	return row, nil
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
