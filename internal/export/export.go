// Package export encodes tabular datasets for download as CSV or
// pretty-printed JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExport is returned when a dataset has no rows. Callers surface
// this instead of serving a headers-only file.
var ErrEmptyExport = errors.New("export: dataset is empty")

// Format selects the output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("export: unknown format %q", s)
	}
}

// Extension returns the file extension for the format.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv"
	}
}

// Dataset is an ordered table plus the typed records behind it. Rows drive
// the CSV encoding; Records drives the JSON encoding. The two must describe
// the same entities in the same order.
type Dataset struct {
	Name    string
	Headers []string
	Rows    [][]string
	Records any
}

// Encode renders the dataset in the requested format. An empty dataset
// returns ErrEmptyExport regardless of format.
func Encode(ds *Dataset, f Format) ([]byte, error) {
	if ds == nil || len(ds.Rows) == 0 {
		return nil, ErrEmptyExport
	}
	switch f {
	case FormatJSON:
		return encodeJSON(ds)
	case FormatCSV:
		return encodeCSV(ds), nil
	default:
		return nil, fmt.Errorf("export: unknown format %q", f)
	}
}

// encodeCSV writes the header row then every data row. Every cell is
// quoted, with embedded quotes doubled, so consumers never have to guess
// at delimiter or newline handling.
func encodeCSV(ds *Dataset) []byte {
	var b strings.Builder
	writeRow(&b, ds.Headers)
	for _, row := range ds.Rows {
		writeRow(&b, row)
	}
	return []byte(b.String())
}

func writeRow(b *strings.Builder, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func encodeJSON(ds *Dataset) ([]byte, error) {
	payload, err := json.MarshalIndent(ds.Records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return payload, nil
}
