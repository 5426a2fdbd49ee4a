// Package csvsource loads a CSV file as the grid's local row set.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Data is a parsed CSV file
type Data struct {
	Headers []string
	Rows    []models.Row
}

// Load reads the CSV file at path
func Load(path, idColumn string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	return Read(f, idColumn)
}

// Read parses CSV with a header line. The idColumn field identifies rows;
// when it is empty or absent the 1-based line number is used. Numeric
// fields are kept as json.Number so they sort numerically.
func Read(r io.Reader, idColumn string) (*Data, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv has no header line")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	idIdx := -1
	for i, h := range headers {
		if h == idColumn {
			idIdx = i
		}
	}

	data := &Data{Headers: headers}
	seen := make(map[string]struct{})
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		row := models.Row{ID: strconv.Itoa(line), Values: make(map[string]any, len(headers))}
		for i, h := range headers {
			if i < len(record) {
				row.Values[h] = typed(record[i])
			} else {
				row.Values[h] = nil
			}
		}
		if idIdx >= 0 && idIdx < len(record) && record[idIdx] != "" {
			row.ID = record[idIdx]
		}
		if _, dup := seen[row.ID]; dup {
			return nil, fmt.Errorf("duplicate row id %q on line %d", row.ID, line+1)
		}
		seen[row.ID] = struct{}{}
		data.Rows = append(data.Rows, row)
	}
	return data, nil
}

// Columns returns one flex-width column definition per header
func (d *Data) Columns(idColumn string) []models.ColumnDef {
	defs := make([]models.ColumnDef, len(d.Headers))
	for i, h := range d.Headers {
		defs[i] = models.ColumnDef{
			Key:        h,
			Title:      h,
			Sortable:   true,
			Filterable: true,
			Resizable:  true,
			Editable:   h != idColumn,
		}
		if h == idColumn {
			defs[i].Pinned = models.PinLeft
			defs[i].AlwaysVisible = true
		}
	}
	return defs
}

func typed(field string) any {
	f, err := strconv.ParseFloat(field, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(field, "xXpP_") {
		return field
	}
	return json.Number(field)
}
