//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/cloo-solutions/kbagent/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_S3Client_ArchiveRoundTrip(t *testing.T) {
	ctx := context.Background()
	rustfs := testutil.NewRustFSContainer(ctx, t)
	defer rustfs.Terminate(ctx)

	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rustfs.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "kbagent-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	data := []byte("%PDF-1.4\n%%EOF\n")
	require.NoError(t, client.PutPDF(ctx, "documents/1/test.pdf", data))

	meta, err := client.Stat(ctx, "documents/1/test.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), meta.ContentLength)
	assert.Equal(t, "application/pdf", meta.ContentType)

	_, err = client.Stat(ctx, "documents/2/absent.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
