//go:build integration

package embedding

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_Embed_RealEndpoint(t *testing.T) {
	baseURL := os.Getenv("EMBEDDING_BASE_URL")
	if baseURL == "" {
		t.Skip("EMBEDDING_BASE_URL not set, skipping integration test")
	}

	client := NewClient(Config{
		APIKey:  os.Getenv("EMBEDDING_API_KEY"),
		BaseURL: baseURL,
		Model:   os.Getenv("EMBEDDING_MODEL"),
	})

	vector, err := client.Embed(context.Background(), "This is a test document for generating embeddings.")

	require.NoError(t, err)
	assert.NotEmpty(t, vector)
}
