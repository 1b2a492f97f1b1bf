package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDatasets_MissingFile(t *testing.T) {
	ds, err := LoadDatasets(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, ds.Datasets)
	assert.Empty(t, ds.Datasets)
}

func TestDatasets_SaveAndReload(t *testing.T) {
	dir := t.TempDir()

	ds, err := LoadDatasets(dir)
	require.NoError(t, err)
	ds.Add("camera", DatasetEntry{Collection: GenerateCollectionName("camera"), Description: "Chamber of deputies"})
	ds.Add("senato", DatasetEntry{Collection: GenerateCollectionName("senato")})
	require.NoError(t, ds.Save(dir))

	reloaded, err := LoadDatasets(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"camera", "senato"}, reloaded.Names())

	collection, err := reloaded.GetCollection("camera")
	require.NoError(t, err)
	assert.Equal(t, "popolo_camera", collection)

	reloaded.Remove("camera")
	assert.False(t, reloaded.Exists("camera"))
	assert.True(t, reloaded.Exists("senato"))
}

func TestDatasets_GetErrors(t *testing.T) {
	empty := &DatasetsConfig{}
	_, err := empty.Get("x")
	assert.EqualError(t, err, "no datasets configured")

	ds := &DatasetsConfig{}
	ds.Add("camera", DatasetEntry{Collection: "popolo_camera"})
	_, err = ds.Get("senato")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: camera")
}
