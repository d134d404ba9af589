package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pricelens/backend/internal/currency"
	"github.com/pricelens/backend/internal/domain"
)

// csvColumns are the training dataset columns. "state" holds the item condition.
var csvColumns = []string{"type", "color", "brand", "material", "style", "state", "price"}

// RowError reports a CSV row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ReadCSV parses a training CSV into normalized records.
// Extra columns are ignored; "condition" is accepted in place of "state".
// Rows with an unreadable price are skipped and reported, never stored as zero.
func ReadCSV(r io.Reader) ([]domain.HistoricalRecord, []RowError, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("csv is empty")
		}
		return nil, nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	positions, err := columnPositions(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []domain.HistoricalRecord
		skipped []RowError
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped = append(skipped, RowError{Line: parseErr.Line, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string { return row[positions[name]] }

		price, err := currency.Parse(field("price"))
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}

		records = append(records, domain.HistoricalRecord{
			Descriptor: domain.ItemDescriptor{
				Type:      field("type"),
				Color:     field("color"),
				Brand:     field("brand"),
				Material:  field("material"),
				Style:     field("style"),
				Condition: field("state"),
			}.Normalized(),
			Price: price,
		})
	}

	return records, skipped, nil
}

func columnPositions(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(csvColumns))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "condition" {
			name = "state"
		}
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	for _, col := range csvColumns {
		if _, ok := positions[col]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", col)
		}
	}
	return positions, nil
}
