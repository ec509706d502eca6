package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gonesbridge/internal/adapters/sqlite"
	"github.com/bft-labs/gonesbridge/internal/domain"
)

func newDBCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Read and write records in the save database",
	}
	cmd.AddCommand(newDBGetCmd(c), newDBPutCmd(c))
	return cmd
}

func newDBGetCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <collection> <name>",
		Short: "Write a record to stdout or a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			collection, err := domain.ParseCollection(args[0])
			if err != nil {
				return err
			}

			store, err := sqlite.Open(cmd.Context(), cfg.DBPath, sqlite.WithLogger(logger))
			if err != nil {
				return err
			}
			data, err := store.Get(cmd.Context(), collection, args[1])
			if err != nil {
				return err
			}
			if data == nil {
				return fmt.Errorf("%s/%s: no such record", collection, args[1])
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newDBPutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "put <collection> <name> <file>",
		Short: "Store a file (or stdin, with -) as a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			collection, err := domain.ParseCollection(args[0])
			if err != nil {
				return err
			}

			var data []byte
			if args[2] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[2])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[2], err)
			}

			store, err := sqlite.Open(cmd.Context(), cfg.DBPath, sqlite.WithLogger(logger))
			if err != nil {
				return err
			}
			return store.Put(cmd.Context(), collection, args[1], data)
		},
	}
}
