package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []models.Row {
	return []models.Row{
		{
			ID:           "a",
			CollectionID: "col",
			Data: models.RowData{
				Title:     "Broadway & 14th",
				URL:       "http://digitalcollections.nypl.org/items/a",
				ImageID:   "1",
				ImageURLs: []models.ImageURL{{Size: 760, URL: "http://images.nypl.org/index.php?id=1&t=w"}},
				Location:  "Manhattan",
				Date:      "1910",
			},
		},
		{
			ID:           "b",
			CollectionID: "col",
			Data: models.RowData{
				Title:     "Untitled",
				URL:       "http://digitalcollections.nypl.org/items/b",
				ImageID:   "2",
				ImageURLs: []models.ImageURL{{Size: 760, URL: "http://images.nypl.org/index.php?id=2&t=w"}},
			},
		},
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		format   string
		expected string
		wantErr  bool
	}{
		{name: "stdout default", expected: FormatJSONL},
		{name: "jsonl extension", path: "out.jsonl", expected: FormatJSONL},
		{name: "parquet extension", path: "out.PARQUET", expected: FormatParquet},
		{name: "explicit wins", path: "out.parquet", format: "jsonl", expected: FormatJSONL},
		{name: "ndjson alias", format: "ndjson", expected: FormatJSONL},
		{name: "unknown", format: "csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.path, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONL(&buf, nil)
	for _, row := range sampleRows() {
		require.NoError(t, s.Write(row))
	}
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	assert.JSONEq(t, `{"id":"a","collection_id":"col","data":{"title":"Broadway & 14th","url":"http://digitalcollections.nypl.org/items/a","image_id":"1","image_urls":[{"size":760,"url":"http://images.nypl.org/index.php?id=1&t=w"}],"location":"Manhattan","date":"1910"}}`, lines[0])
	assert.Contains(t, lines[0], "&t=w")
	assert.NotContains(t, lines[1], "location")
	assert.NotContains(t, lines[1], "date")
}

func TestOpenFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("stale\nstale\nstale\n"), 0644))

	s, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, s.Write(sampleRows()[1]))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.NotContains(t, string(data), "stale")
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "out.jsonl"), "")
	assert.Error(t, err)
}

func TestParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")

	s, err := Open(path, "")
	require.NoError(t, err)
	require.IsType(t, &Parquet{}, s)
	for _, row := range sampleRows() {
		require.NoError(t, s.Write(row))
	}
	require.NoError(t, s.Close())

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	info, err := file.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(file, info.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(2), pf.NumRows())

	reader := parquet.NewGenericReader[ParquetRow](pf)
	defer reader.Close()

	rows := make([]ParquetRow, 2)
	n, _ := reader.Read(rows)
	require.Equal(t, 2, n)

	assert.Equal(t, "a", rows[0].ID)
	require.NotNil(t, rows[0].Location)
	assert.Equal(t, "Manhattan", *rows[0].Location)
	require.Len(t, rows[0].ImageURLs, 1)
	assert.Equal(t, 760, rows[0].ImageURLs[0].Size)
	assert.Nil(t, rows[1].Location)
	assert.Nil(t, rows[1].Date)
}
