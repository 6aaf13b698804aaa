// Package sink writes export rows to a file or standard output.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
)

// Output formats.
const (
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// Sink receives rows in output order.
type Sink interface {
	Write(row models.Row) error
	Close() error
}

// DetectFormat returns format when set, otherwise the format implied by the
// output path's extension. Standard output defaults to JSONL.
func DetectFormat(path, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		if strings.ToLower(filepath.Ext(path)) == ".parquet" {
			return FormatParquet, nil
		}
		return FormatJSONL, nil
	}
	switch format {
	case FormatJSONL, "json", "ndjson":
		return FormatJSONL, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (supported: jsonl, parquet)", format)
	}
}

// Open creates the sink for path, or standard output when path is empty.
// A file at path is created or truncated; standard output is never closed.
func Open(path, format string) (Sink, error) {
	format, err := DetectFormat(path, format)
	if err != nil {
		return nil, err
	}

	var (
		w      io.Writer = os.Stdout
		closer io.Closer
	)
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		w, closer = file, file
	}

	if format == FormatParquet {
		return NewParquet(w, closer), nil
	}
	return NewJSONL(w, closer), nil
}

// JSONL writes one JSON object per line.
type JSONL struct {
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONL writes to w. closer, when non-nil, is closed by Close.
func NewJSONL(w io.Writer, closer io.Closer) *JSONL {
	enc := json.NewEncoder(w)
	// image URLs carry query strings; keep '&' readable
	enc.SetEscapeHTML(false)
	return &JSONL{enc: enc, closer: closer}
}

func (s *JSONL) Write(row models.Row) error {
	if err := s.enc.Encode(row); err != nil {
		return fmt.Errorf("failed to write row %s: %w", row.ID, err)
	}
	return nil
}

func (s *JSONL) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
