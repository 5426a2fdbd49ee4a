// Package export writes grid rows to CSV, JSON or YAML.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Format is an export file format
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat parses a format name, accepting "yml" for YAML
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// FormatForPath guesses the format from a file extension
func FormatForPath(path string) (Format, error) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", fmt.Errorf("cannot infer export format from %q", path)
	}
	return ParseFormat(path[i+1:])
}

// Write writes rows to w restricted to columns, in column order
func Write(w io.Writer, format Format, columns []models.ColumnDef, rows []models.Row) error {
	switch format {
	case CSV:
		return writeCSV(w, columns, rows)
	case JSON:
		return writeJSON(w, columns, rows)
	case YAML:
		return writeYAML(w, columns, rows)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// ToFile writes rows to a new file at path
func ToFile(path string, format Format, columns []models.ColumnDef, rows []models.Row) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	buf := bufio.NewWriter(file)
	if err := Write(buf, format, columns, rows); err != nil {
		_ = file.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return file.Close()
}

func writeCSV(w io.Writer, columns []models.ColumnDef, rows []models.Row) error {
	writer := csv.NewWriter(w)

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Title
		if header[i] == "" {
			header[i] = c.Key
		}
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, c := range columns {
			v, _ := row.Get(c.Key)
			record[i] = cell.String(v)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// orderedRow marshals a row's columns as a JSON object in column order
type orderedRow struct {
	columns []models.ColumnDef
	row     models.Row
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range o.columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		v, _ := o.row.Get(c.Key)
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Key, err)
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(val)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func writeJSON(w io.Writer, columns []models.ColumnDef, rows []models.Row) error {
	out := make([]orderedRow, len(rows))
	for i, row := range rows {
		out[i] = orderedRow{columns: columns, row: row}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, columns []models.ColumnDef, rows []models.Row) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, row := range rows {
		m := &yaml.Node{Kind: yaml.MappingNode}
		for _, c := range columns {
			v, _ := row.Get(c.Key)
			val := &yaml.Node{}
			if err := val.Encode(yamlValue(v)); err != nil {
				return fmt.Errorf("column %s: %w", c.Key, err)
			}
			m.Content = append(m.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: c.Key},
				val,
			)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal rows to YAML: %w", err)
	}
	return enc.Close()
}

// yamlValue maps values yaml.v3 cannot encode natively to plain forms
func yamlValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []byte:
		return string(val)
	default:
		return v
	}
}
