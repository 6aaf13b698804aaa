package sink

import (
	"fmt"
	"io"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/parquet-go/parquet-go"
)

// ParquetRow is the flattened row layout of Parquet output.
type ParquetRow struct {
	ID           string            `parquet:"id"`
	CollectionID string            `parquet:"collection_id"`
	Title        string            `parquet:"title"`
	URL          string            `parquet:"url"`
	ImageID      string            `parquet:"image_id"`
	ImageURLs    []models.ImageURL `parquet:"image_urls,list"`
	Location     *string           `parquet:"location,optional"`
	Date         *string           `parquet:"date,optional"`
}

func toParquetRow(row models.Row) ParquetRow {
	return ParquetRow{
		ID:           row.ID,
		CollectionID: row.CollectionID,
		Title:        row.Data.Title,
		URL:          row.Data.URL,
		ImageID:      row.Data.ImageID,
		ImageURLs:    row.Data.ImageURLs,
		Location:     optional(row.Data.Location),
		Date:         optional(row.Data.Date),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Parquet writes rows to a Parquet file. The file footer is written by
// Close, so output is only readable after a successful Close.
type Parquet struct {
	writer *parquet.GenericWriter[ParquetRow]
	closer io.Closer
}

// NewParquet writes to w. closer, when non-nil, is closed by Close.
func NewParquet(w io.Writer, closer io.Closer) *Parquet {
	return &Parquet{
		writer: parquet.NewGenericWriter[ParquetRow](w),
		closer: closer,
	}
}

func (s *Parquet) Write(row models.Row) error {
	if _, err := s.writer.Write([]ParquetRow{toParquetRow(row)}); err != nil {
		return fmt.Errorf("failed to write row %s: %w", row.ID, err)
	}
	return nil
}

func (s *Parquet) Close() error {
	err := s.writer.Close()
	if err != nil {
		err = fmt.Errorf("failed to finish parquet output: %w", err)
	}
	if s.closer != nil {
		if closeErr := s.closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
