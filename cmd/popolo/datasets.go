package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ersonp/popolo-core/internal/application/handlers"
	"github.com/ersonp/popolo-core/internal/domain/services"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

func newDatasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage datasets",
		RunE:  runDatasetsList,
	}

	cmd.AddCommand(
		newDatasetsListCmd(),
		newDatasetsCreateCmd(),
		newDatasetsDeleteCmd(),
	)

	return cmd
}

func newDatasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all datasets",
		RunE:  runDatasetsList,
	}
}

func runDatasetsList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	datasets, err := config.LoadDatasets(cwd)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	if len(datasets.Datasets) == 0 {
		fmt.Println("No datasets configured.")
		fmt.Println("Use 'popolo datasets create NAME' to create a dataset.")
		return nil
	}

	fmt.Printf("%-20s %-25s %s\n", "NAME", "COLLECTION", "DESCRIPTION")
	fmt.Printf("%-20s %-25s %s\n", "----", "----------", "-----------")

	for _, name := range datasets.Names() {
		entry := datasets.Datasets[name]
		fmt.Printf("%-20s %-25s %s\n", name, entry.Collection, entry.Description)
	}

	return nil
}

func newDatasetsCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetsCreate(cmd, args[0], description)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Dataset description")

	return cmd
}

func runDatasetsCreate(cmd *cobra.Command, name string, description string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if !config.Exists(cwd) {
		path, err := handlers.WriteConfig(cwd)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized popolo in %s\n", path)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	entry, err := addDataset(cwd, name, description)
	if err != nil {
		return err
	}

	relationalDB, err := openRelationalDB(ctx, cwd, cfg, name)
	if err != nil {
		return err
	}
	defer relationalDB.Close()

	index, err := openNameIndex(cfg, entry.Collection)
	if err != nil {
		return err
	}
	if index != nil {
		defer index.repo.Close()
	}

	result, err := handlers.NewInitHandler(relationalDB, index.collectionManager(), index.dimensions()).Handle(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Created dataset %q in %s\n", name, config.DatasetDir(cwd, name))
	if result.Indexed {
		fmt.Printf("Created Qdrant collection: %s\n", entry.Collection)
	} else {
		fmt.Println(color.YellowString("Name index disabled: set qdrant.host and an embedder API key to enable semantic search."))
	}

	return nil
}

func newDatasetsDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasetsDelete(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Delete even if the dataset contains entities")

	return cmd
}

func runDatasetsDelete(cmd *cobra.Command, name string, force bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	datasets, err := config.LoadDatasets(cwd)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	entry, err := datasets.Get(name)
	if err != nil {
		return err
	}

	if !force {
		relationalDB, err := openRelationalDB(ctx, cwd, cfg, name)
		if err != nil {
			return err
		}
		persons, organizations, err := services.NewEntityService(relationalDB).Counts(ctx)
		relationalDB.Close()
		if err != nil {
			return err
		}
		if persons+organizations > 0 {
			return fmt.Errorf("dataset %q contains %d persons and %d organizations, use --force to delete", name, persons, organizations)
		}
	}

	index, err := openNameIndex(cfg, entry.Collection)
	if err != nil {
		return err
	}
	if index != nil {
		if err := index.repo.DeleteCollection(ctx); err != nil {
			fmt.Println(color.YellowString("Warning: could not delete collection %q: %v", entry.Collection, err))
		}
		index.repo.Close()
	}

	if err := removeDataset(cwd, name); err != nil {
		return err
	}

	fmt.Printf("Deleted dataset %q\n", name)

	return nil
}

// addDataset registers a new dataset and returns its entry.
func addDataset(basePath, name, description string) (config.DatasetEntry, error) {
	datasets, err := config.LoadDatasets(basePath)
	if err != nil {
		return config.DatasetEntry{}, fmt.Errorf("loading datasets: %w", err)
	}

	if datasets.Exists(name) {
		return config.DatasetEntry{}, fmt.Errorf("dataset %q already exists", name)
	}

	entry := config.DatasetEntry{
		Collection:  config.GenerateCollectionName(name),
		Description: description,
	}
	datasets.Add(name, entry)

	if err := datasets.Save(basePath); err != nil {
		return config.DatasetEntry{}, fmt.Errorf("saving datasets: %w", err)
	}

	return entry, nil
}

// removeDataset unregisters a dataset and deletes its directory.
func removeDataset(basePath, name string) error {
	datasets, err := config.LoadDatasets(basePath)
	if err != nil {
		return fmt.Errorf("loading datasets: %w", err)
	}

	datasets.Remove(name)
	if err := datasets.Save(basePath); err != nil {
		return fmt.Errorf("saving datasets: %w", err)
	}

	if err := os.RemoveAll(config.DatasetDir(basePath, name)); err != nil {
		return fmt.Errorf("removing dataset directory: %w", err)
	}

	return nil
}
