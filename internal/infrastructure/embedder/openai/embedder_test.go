package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/popolo-core/internal/infrastructure/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EmbedderConfig
		wantDims uint64
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid config",
			cfg:      config.EmbedderConfig{APIKey: "test-key"},
			wantDims: VectorSize,
		},
		{
			name: "valid config with model and dimensions",
			cfg: config.EmbedderConfig{
				APIKey:     "test-key",
				Model:      "text-embedding-3-large",
				Dimensions: 256,
			},
			wantDims: 256,
		},
		{
			name:    "missing API key",
			cfg:     config.EmbedderConfig{},
			wantErr: true,
			errMsg:  "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder, err := NewEmbedder(tt.cfg)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, embedder)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDims, embedder.Dimensions())
		})
	}
}

func TestEmbedBatch_Empty(t *testing.T) {
	embedder, err := NewEmbedder(config.EmbedderConfig{APIKey: "test-key"})
	require.NoError(t, err)

	got, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
