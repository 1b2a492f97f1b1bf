// Package main provides the entry point for the popolo CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version       = "0.1.0-dev"
	globalDataset string
	globalVerbose bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "popolo",
		Short:         "A store of Popolo persons, organizations and their dated facts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDataset, "dataset", "d", "", "Dataset to operate on (required)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Log reconciliation decisions")

	rootCmd.AddCommand(
		newInitCmd(),
		newDatasetsCmd(),
		newPersonCmd(),
		newOrgCmd(),
		newPostCmd(),
		newAreaCmd(),
		newIdentifierCmd(),
		newOtherNameCmd(),
		newMembershipCmd(),
		newOwnershipCmd(),
		newShowCmd(),
		newImportCmd(),
		newExportCmd(),
		newSearchCmd(),
		newAuditCmd(),
	)

	return rootCmd
}
