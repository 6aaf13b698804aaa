package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/lehigh-university-libraries/dc-export/internal/storage"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the metadata cache",
		Long: `Read-only views of the MODS metadata cache written by export.

The cache is opened with a shared lock, so inspection fails while an export
is using the same cache file.`,
	}
	cmd.PersistentFlags().StringVar(&path, "cache", "./mods_cache.db", "Metadata cache database")

	cmd.AddCommand(newCacheStatsCmd(&path))
	cmd.AddCommand(newCacheListCmd(&path))
	cmd.AddCommand(newCacheShowCmd(&path))

	return cmd
}

func newCacheStatsCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of cached records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(*path, func(store *storage.SQLiteStore) error {
				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				var size int64
				if info, err := os.Stat(store.Path()); err == nil {
					size = info.Size()
				}

				tw := table.NewWriter()
				tw.SetStyle(table.StyleRounded)
				tw.AppendHeader(table.Row{"Cache", "Records", "Bytes"})
				tw.AppendRow(table.Row{store.Path(), n, size})
				fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
				return nil
			})
		},
	}
}

func newCacheListCmd(path *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached records, newest first",
		Args:  cobra.NoArgs,
		Example: `  # Show the 20 most recently cached records
  dc-export cache list --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(*path, func(store *storage.SQLiteStore) error {
				entries, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				renderEntries(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum records to list (0 for all)")

	return cmd
}

func newCacheShowCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the cached metadata for a capture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(*path, func(store *storage.SQLiteStore) error {
				value, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no cached metadata for %s", args[0])
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(value))
				return err
			})
		},
	}
}

// withCache opens an existing cache read-only for the duration of fn.
func withCache(path string, fn func(*storage.SQLiteStore) error) (err error) {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open metadata cache: %w", err)
	}
	store, err := storage.OpenSQLite(path, true)
	if err != nil {
		return fmt.Errorf("failed to open metadata cache: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	return fn(store)
}

func renderEntries(w io.Writer, entries []storage.Entry) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Location", "Date", "Cached"})
	for _, e := range entries {
		var meta models.Metadata
		if err := json.Unmarshal(e.Value, &meta); err != nil {
			meta.Location = "(unreadable)"
		}
		tw.AppendRow(table.Row{e.ID, meta.Location, meta.Date, e.CachedAt.Local().Format(time.DateTime)})
	}
	tw.AppendFooter(table.Row{"", "", "Total", strconv.Itoa(len(entries))})
	fmt.Fprintln(w, tw.Render())
}
