package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/dc-export/internal/collections"
	"github.com/lehigh-university-libraries/dc-export/internal/digitalcollections"
	"github.com/lehigh-university-libraries/dc-export/internal/enrich"
	"github.com/lehigh-university-libraries/dc-export/internal/export"
	"github.com/lehigh-university-libraries/dc-export/internal/logging"
	"github.com/lehigh-university-libraries/dc-export/internal/rows"
	"github.com/lehigh-university-libraries/dc-export/internal/sink"
	"github.com/lehigh-university-libraries/dc-export/internal/storage"
	"github.com/spf13/cobra"
)

const (
	tokenEnv   = "DIGITAL_COLLECTIONS_TOKEN"
	baseURLEnv = "DIGITAL_COLLECTIONS_API"
)

type exportOptions struct {
	token       string
	output      string
	collections string
	cache       string
	format      string
	concurrency int
	rate        float64
	baseURL     string
	verbose     bool
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export representative captures of the selected collections",
		Long: `Lists every capture of each included collection, keeps the first capture of
each item and writes it as a row with title, item URL, image URLs, and the
location and date from the item's MODS record.

Rows are written in capture order. The first failed request stops the export;
rows already written are kept, and metadata already cached is reused on the
next run.`,
		Example: `  # Export to stdout using DIGITAL_COLLECTIONS_TOKEN from the environment or .env
  dc-export export > items.jsonl

  # Export to parquet with four metadata workers, at most 5 requests per second
  dc-export export --output items.parquet --concurrency 4 --rate 5

  # Use a TOML collection list and an in-memory cache
  dc-export export --collections collections.toml --cache ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(cmd.ErrOrStderr(), opts.verbose)
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.token, "token", "t", "", "API token (defaults to $"+tokenEnv+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().StringVar(&opts.collections, "collections", "data/collections.json", "Collection list (.json, .yaml, .yml or .toml)")
	cmd.Flags().StringVar(&opts.cache, "cache", "./mods_cache.db", "Metadata cache database (empty for an in-memory cache)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format (jsonl or parquet, inferred from --output when empty)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 1, "Number of metadata lookups in flight")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Maximum API requests per second (0 for unlimited)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "API base URL (defaults to $"+baseURLEnv+" or "+digitalcollections.DefaultBaseURL+")")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	return cmd
}

func runExport(cmd *cobra.Command, opts exportOptions) (err error) {
	if opts.token == "" {
		opts.token = os.Getenv(tokenEnv)
	}
	if opts.token == "" {
		return fmt.Errorf("an API token is required: pass --token or set %s", tokenEnv)
	}
	if opts.baseURL == "" {
		opts.baseURL = os.Getenv(baseURLEnv)
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", opts.concurrency)
	}

	list, err := collections.NewLoader(opts.collections).Load()
	if err != nil {
		return err
	}
	slog.Info("Loaded collections", "path", opts.collections, "count", len(list))

	store, err := openCache(opts.cache)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close metadata cache: %w", closeErr))
		}
	}()

	out, err := sink.Open(opts.output, opts.format)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close output: %w", closeErr))
		}
	}()

	client := digitalcollections.NewClient(opts.baseURL, opts.token,
		digitalcollections.WithRateLimit(opts.rate))

	exporter := &export.Exporter{
		Source:      client,
		Rows:        rows.NewBuilder(),
		Enricher:    enrich.New(store, client, nil),
		Sink:        out,
		Concurrency: opts.concurrency,
	}

	stats, err := exporter.Run(cmd.Context(), list)
	if err != nil {
		slog.Error("Export stopped", "rows_written", stats.Written, "err", err)
		return err
	}

	stats.Log()
	fmt.Fprintln(cmd.ErrOrStderr(), stats.Table())
	return nil
}

func openCache(path string) (storage.Store, error) {
	if path == "" {
		slog.Warn("No cache path given; metadata will not persist past this run")
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.OpenSQLite(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}
	slog.Info("Opened metadata cache", "path", store.Path())
	return store, nil
}
