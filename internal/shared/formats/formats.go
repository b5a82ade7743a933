// Package formats renders record lists as JSON, CSV, YAML or TOML.
package formats

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format is an output encoding
type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	YAML Format = "yaml"
	TOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown format")

// Parse resolves a format name, accepting yml as yaml
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case YAML:
		return "application/yaml; charset=utf-8"
	case TOML:
		return "application/toml; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Filename returns the attachment name used for downloads
func (f Format) Filename() string {
	return "scraped_data." + string(f)
}

// Render encodes records in format f
func Render(f Format, records []map[string]any) ([]byte, error) {
	if records == nil {
		records = []map[string]any{}
	}
	switch f {
	case JSON:
		return RenderJSON(records)
	case CSV:
		return RenderCSV(records)
	case YAML:
		return yaml.Marshal(records)
	case TOML:
		return toml.Marshal(map[string]any{"records": dropNils(records)})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
}

// RenderJSON encodes records as indented JSON with sorted keys
func RenderJSON(records []map[string]any) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(records, "", "  ")
}

// RenderCSV writes one row per record. The header is the union of record
// keys: each record's keys sorted, new keys appended as they first appear.
// Missing cells are empty and nested values are written as JSON.
func RenderCSV(records []map[string]any) ([]byte, error) {
	header := Columns(records)
	if len(header) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(header))
	for _, record := range records {
		for i, col := range header {
			cell, err := Cell(record[col])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col, err)
			}
			row[i] = cell
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Columns returns the CSV header for records
func Columns(records []map[string]any) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, record := range records {
		keys := make([]string, 0, len(record))
		for k := range record {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}

// Cell formats one value for a CSV cell
func Cell(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []any, map[string]any:
		out, err := sonic.ConfigStd.Marshal(x)
		return string(out), err
	}
	return fmt.Sprint(v), nil
}

func dropNils(records []map[string]any) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, record := range records {
		clean := make(map[string]any, len(record))
		for k, v := range record {
			if v != nil {
				clean[k] = v
			}
		}
		out[i] = clean
	}
	return out
}
