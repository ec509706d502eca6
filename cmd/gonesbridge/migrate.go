package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gonesbridge/internal/adapters/legacy"
	"github.com/bft-labs/gonesbridge/internal/adapters/sqlite"
	"github.com/bft-labs/gonesbridge/internal/ports"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import legacy saves into the database",
		Long: "Create the database, importing --legacy-dir and --legacy-dump on first open.\n" +
			"With --force the import also runs against an existing database; records\n" +
			"already present are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}

			var sources []ports.LegacySource
			if len(cfg.LegacyDirs) > 0 {
				sources = append(sources, legacy.NewDirSource(cfg.LegacyDirs...))
			}
			if cfg.LegacyDump != "" {
				sources = append(sources, legacy.NewDumpSource(cfg.LegacyDump))
			}
			if len(sources) == 0 {
				return errors.New("nothing to import: set --legacy-dir or --legacy-dump")
			}
			src := legacy.Multi(sources...)

			opts := []sqlite.Option{sqlite.WithLogger(logger)}
			if !force {
				opts = append(opts, sqlite.WithLegacySource(src))
			}
			store, err := sqlite.Open(cmd.Context(), cfg.DBPath, opts...)
			if err != nil {
				return err
			}

			if force {
				report, err := store.ImportLegacy(cmd.Context(), src)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records: %d states, %d saves (%d skipped, %d conflicts, %d failed)\n",
					report.Imported(), report.States, report.Saves, report.Skipped, report.Conflicts, report.Failed)
				return nil
			}

			version, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database %s at schema version %d\n", store.Path(), version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "import into an existing database")
	return cmd
}
