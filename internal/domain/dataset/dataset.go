package dataset

import (
	"fmt"

	"github.com/kailas-cloud/glossameta/internal/domain"
)

// Dataset is a pre-parsed metadata table. Column 0 is always the record id.
type Dataset struct {
	columns []string
	rows    [][]string
}

// New validates and creates a Dataset.
// idColumn must be the first column; every row must match the header width
// and carry a unique, non-empty id.
func New(idColumn string, columns []string, rows [][]string) (Dataset, error) {
	if len(columns) == 0 {
		return Dataset{}, fmt.Errorf("%w: header is empty", domain.ErrInvalidDataset)
	}
	if columns[0] != idColumn {
		return Dataset{}, fmt.Errorf(
			"%w: id column %q must be first, got %q", domain.ErrInvalidDataset, idColumn, columns[0],
		)
	}

	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return Dataset{}, fmt.Errorf(
				"%w: row %d has %d cells, want %d", domain.ErrInvalidDataset, i+1, len(row), len(columns),
			)
		}
		id := row[0]
		if id == "" {
			return Dataset{}, fmt.Errorf("%w: row %d has no id", domain.ErrInvalidDataset, i+1)
		}
		if prev, dup := seen[id]; dup {
			return Dataset{}, fmt.Errorf(
				"%w: id %q repeated in rows %d and %d", domain.ErrInvalidDataset, id, prev+1, i+1,
			)
		}
		seen[id] = i
	}

	return Dataset{columns: columns, rows: rows}, nil
}

// Columns returns the header.
func (d Dataset) Columns() []string { return d.columns }

// Rows returns the data rows.
func (d Dataset) Rows() [][]string { return d.rows }

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.rows) }

// ColumnIndex returns the position of a column in the header.
func (d Dataset) ColumnIndex(name string) (int, bool) {
	for i, c := range d.columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}
