package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/application/handlers"
	"github.com/ersonp/popolo-core/internal/domain/entities"
	"github.com/ersonp/popolo-core/internal/domain/partialdate"
	"github.com/ersonp/popolo-core/internal/domain/reconcile"
	"github.com/ersonp/popolo-core/internal/domain/services"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

func TestAddDataset(t *testing.T) {
	tmpDir := t.TempDir()

	entry, err := addDataset(tmpDir, "Camera 2008", "XVI legislatura")
	require.NoError(t, err)
	assert.Equal(t, "popolo_camera_2008", entry.Collection)

	datasets, err := config.LoadDatasets(tmpDir)
	require.NoError(t, err)
	require.Contains(t, datasets.Datasets, "Camera 2008")
	assert.Equal(t, "XVI legislatura", datasets.Datasets["Camera 2008"].Description)
}

func TestAddDataset_Duplicate(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := addDataset(tmpDir, "senato", "")
	require.NoError(t, err)

	_, err = addDataset(tmpDir, "senato", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRemoveDataset(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := addDataset(tmpDir, "to-delete", "")
	require.NoError(t, err)
	_, err = addDataset(tmpDir, "kept", "")
	require.NoError(t, err)

	dir := config.DatasetDir(tmpDir, "to-delete")
	require.NoError(t, os.MkdirAll(dir, 0755))

	require.NoError(t, removeDataset(tmpDir, "to-delete"))

	datasets, err := config.LoadDatasets(tmpDir)
	require.NoError(t, err)
	assert.NotContains(t, datasets.Datasets, "to-delete")
	assert.Contains(t, datasets.Datasets, "kept")

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveDataset_NonExistent(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := addDataset(tmpDir, "existing", "")
	require.NoError(t, err)

	require.NoError(t, removeDataset(tmpDir, "non-existent"))

	datasets, err := config.LoadDatasets(tmpDir)
	require.NoError(t, err)
	assert.Contains(t, datasets.Datasets, "existing")
}

func TestDatasetLifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	_, err := addDataset(tmpDir, "test-dataset", "")
	require.NoError(t, err)

	relationalDB, err := openRelationalDB(ctx, tmpDir, config.Default(), "test-dataset")
	require.NoError(t, err)

	entityService := services.NewEntityService(relationalDB)
	require.NoError(t, entityService.CreatePerson(ctx, &entities.Person{ID: "p1", Name: "Mario Rossi"}))

	facts := handlers.NewFactsHandler(relationalDB, nil, nil)
	owner := entities.OwnerRef{Kind: entities.OwnerPerson, ID: "p1"}
	first := entities.Identifier{Scheme: "X", Identifier: "A1", Dateframe: entities.Dateframe{
		StartDate: partialdate.MustParse("2000"), EndDate: partialdate.MustParse("2010"),
	}}
	_, err = facts.AddIdentifier(ctx, owner, first, reconcile.DefaultPolicy())
	require.NoError(t, err)

	touching := first
	touching.Dateframe = entities.Dateframe{StartDate: partialdate.MustParse("2010"), EndDate: partialdate.MustParse("2015")}
	res, err := facts.AddIdentifier(ctx, owner, touching, reconcile.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, "updated", res.Outcome)

	view, err := facts.Show(ctx, owner)
	require.NoError(t, err)
	require.Len(t, view.Identifiers, 1)
	assert.Equal(t, "2000 => 2015", view.Identifiers[0].Interval().String())

	require.NoError(t, relationalDB.Close())

	dbPath := config.SQLitePathForDataset(tmpDir, "test-dataset")
	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	require.NoError(t, removeDataset(tmpDir, "test-dataset"))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
}
