// Package dataset reads metadata tables and map coordinates from disk and
// watches them for changes.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kailas-cloud/glossameta/internal/domain"
	domds "github.com/kailas-cloud/glossameta/internal/domain/dataset"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
)

const bom = "\ufeff"

// LoadTSV reads a tab-separated metadata table with a header row.
func LoadTSV(path, idColumn string) (domds.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := ReadTSV(f, idColumn)
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ReadTSV parses a metadata table. The id column must come first.
func ReadTSV(r io.Reader, idColumn string) (domds.Dataset, error) {
	records, err := newTSVReader(r).ReadAll()
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("%w: %w", domain.ErrInvalidDataset, err)
	}
	if len(records) == 0 {
		return domds.Dataset{}, fmt.Errorf("%w: missing header row", domain.ErrInvalidDataset)
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], bom)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	ds, err := domds.New(idColumn, header, records[1:])
	if err != nil {
		return domds.Dataset{}, fmt.Errorf("parse dataset: %w", err)
	}
	return ds, nil
}

// LoadCoordinates reads location<TAB>lat<TAB>lng rows.
func LoadCoordinates(path string) (geo.Coordinates, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open coordinates: %w", err)
	}
	defer func() { _ = f.Close() }()

	coords, err := ReadCoordinates(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return coords, nil
}

// ReadCoordinates parses coordinate rows. A first row whose latitude is not
// a number is taken as a header. Lines starting with '#' are ignored.
func ReadCoordinates(r io.Reader) (geo.Coordinates, error) {
	tr := newTSVReader(r)
	tr.FieldsPerRecord = 3

	coords := make(geo.Coordinates)
	for first := true; ; first = false {
		rec, err := tr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDataset, err)
		}

		line, _ := tr.FieldPos(0)
		loc := strings.TrimSpace(strings.TrimPrefix(rec[0], bom))
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		lng, lngErr := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if first && latErr != nil {
			continue
		}
		if err := errors.Join(latErr, lngErr); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", domain.ErrInvalidDataset, line, err)
		}
		if loc == "" {
			return nil, fmt.Errorf("%w: line %d: empty location", domain.ErrInvalidDataset, line)
		}
		if !geo.ValidateCoordinates(lat, lng) {
			return nil, fmt.Errorf("%w: line %d: coordinates out of range", domain.ErrInvalidDataset, line)
		}
		if _, dup := coords[loc]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate location %q", domain.ErrInvalidDataset, line, loc)
		}
		coords[loc] = geo.Point{Lat: lat, Lng: lng}
	}
	return coords, nil
}

func newTSVReader(r io.Reader) *csv.Reader {
	tr := csv.NewReader(r)
	tr.Comma = '\t'
	tr.Comment = '#'
	tr.LazyQuotes = true
	tr.FieldsPerRecord = 0
	return tr
}
