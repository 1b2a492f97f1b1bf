package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/domain/mocks"
	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

func TestWriteConfig(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := WriteConfig(tmpDir)
	require.NoError(t, err)
	assert.Contains(t, path, "config.yaml")
	assert.True(t, config.Exists(tmpDir))

	_, err = WriteConfig(tmpDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_Success(t *testing.T) {
	collections := &mocks.CollectionManager{}
	handler := NewInitHandler(mocks.NewRelationalDB(), collections, 1536)

	result, err := handler.Handle(t.Context())

	require.NoError(t, err)
	assert.True(t, result.Indexed)
	assert.Equal(t, 1, collections.EnsureCollectionCallCount)
	assert.Equal(t, uint64(1536), collections.LastVectorSize)
}

func TestInitHandler_Handle_WithoutIndex(t *testing.T) {
	handler := NewInitHandler(mocks.NewRelationalDB(), nil, 0)

	result, err := handler.Handle(t.Context())

	require.NoError(t, err)
	assert.False(t, result.Indexed)
}

func TestInitHandler_Handle_CollectionError(t *testing.T) {
	collections := &mocks.CollectionManager{
		EnsureErr: errors.New("connection failed"),
	}
	handler := NewInitHandler(mocks.NewRelationalDB(), collections, 1536)

	_, err := handler.Handle(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")
	assert.Contains(t, err.Error(), "connection failed")
}
