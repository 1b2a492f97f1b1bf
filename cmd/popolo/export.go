package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/application/handlers"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dataset",
		Long: `Exports the dataset as a Popolo JSON document, as identifier CSV rows,
or as markdown tables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(handlers.ValidExportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, handlers.ValidExportFormats)
	}

	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		w, closeFn, err := openOutput(flags.output)
		if err != nil {
			return err
		}

		result, err := d.Export.Handle(ctx, w, flags.format)
		if cerr := closeFn(); err == nil && cerr != nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}

		if flags.output != "" {
			fmt.Printf("Exported %d persons, %d organizations, %d memberships and %d identifiers to %s\n",
				result.Persons, result.Organizations, result.Memberships, result.Identifiers, flags.output)
		}
		return nil
	})
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
