package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new popolo workspace",
		Long: `Creates a .popolo directory with default configuration.
With --dataset, the dataset is created as well.`,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	path, err := handlers.WriteConfig(cwd)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)

	if globalDataset != "" {
		return runDatasetsCreate(cmd, globalDataset, "")
	}

	fmt.Println(color.GreenString("Popolo initialized successfully!"))
	fmt.Println("Use 'popolo datasets create NAME' to create a dataset.")
	return nil
}
