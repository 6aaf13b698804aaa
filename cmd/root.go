package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dc-export",
		Short: "Export NYPL Digital Collections items with cached MODS metadata",
		Long: `dc-export streams the captures of selected NYPL Digital Collections,
keeps one representative capture per item, enriches each with a location and
date taken from its MODS record, and writes one row per item.

MODS lookups are cached in a local SQLite database so repeated runs only
fetch records they have not seen before.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}
