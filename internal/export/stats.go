package export

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// counter is implemented by enrichers that track cache use.
type counter interface {
	Hits() int64
	Fetches() int64
}

// Stats summarizes an export run.
type Stats struct {
	Collections    int
	Captures       int
	Representative int
	CacheHits      int64
	Fetches        int64
	Written        int
	Duration       time.Duration
}

// Log records the statistics at info level.
func (s Stats) Log() {
	slog.Info("Export finished",
		"collections", s.Collections,
		"captures", s.Captures,
		"representative", s.Representative,
		"cache_hits", s.CacheHits,
		"fetches", s.Fetches,
		"rows_written", s.Written,
		"duration", s.Duration.Round(time.Millisecond).String())
}

// Table renders the statistics as a two-column table.
func (s Stats) Table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"Collections", strconv.Itoa(s.Collections)},
		{"Captures listed", strconv.Itoa(s.Captures)},
		{"Representative captures", strconv.Itoa(s.Representative)},
		{"Cache hits", strconv.FormatInt(s.CacheHits, 10)},
		{"MODS fetched", strconv.FormatInt(s.Fetches, 10)},
		{"Rows written", strconv.Itoa(s.Written)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
