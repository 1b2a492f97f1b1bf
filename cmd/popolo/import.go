package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
	prefix string
	policy policyFlags
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a Popolo JSON document or an identifier CSV",
		Long: `Imports areas, organizations, posts, persons and memberships from a
Popolo JSON document, or identifier rows from a CSV file with the header
owner_kind,owner_id,scheme,identifier,start_date,end_date,source.

Each record keeps its source id as an identifier, so importing the same
file again updates the stored records. A failing record is reported and
skipped; the rest of the file is still imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (popolo, json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "", "Scheme prefix of source-id identifiers (default from config)")
	flags.policy.register(cmd, true)

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		prefix := flags.prefix
		if prefix == "" {
			prefix = d.Config.Import.IDPrefix
		}

		opts := handlers.ImportOptions{
			Format:   flags.format,
			DryRun:   flags.dryRun,
			IDPrefix: prefix,
			Policy:   flags.policy.policy(),
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.Import.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nRecord errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", color.RedString(e.Error()))
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Print("Dry run: ")
		}
		fmt.Printf("%d created, %d updated, %d facts", result.Created, result.Updated, result.Facts)
		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}
		fmt.Println()

		return nil
	})
}
