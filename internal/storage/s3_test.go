package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func newFakeS3(t *testing.T) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		mu.Unlock()

		switch {
		case r.Method == http.MethodHead && strings.Contains(r.URL.Path, "missing"):
			w.WriteHeader(http.StatusNotFound)
			return
		case strings.HasPrefix(r.URL.Path, "/forbidden"):
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("ETag", `"etag-1"`)
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Length", "8")
			w.Header().Set("Last-Modified", "Mon, 19 Oct 2026 10:00:00 GMT")
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(t *testing.T, endpoint, bucket string) *S3Client {
	t.Helper()
	client, err := NewS3Client(context.Background(), S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Bucket:          bucket,
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return client
}

func TestS3Client_PutPDF(t *testing.T) {
	srv, requests := newFakeS3(t)
	client := newTestClient(t, srv.URL, "docs")

	err := client.PutPDF(context.Background(), "documents/doc-1/report.pdf", []byte("%PDF-1.4"))

	require.NoError(t, err)
	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodPut, req.method)
	assert.Equal(t, "/docs/documents/doc-1/report.pdf", req.path)
	assert.Equal(t, "application/pdf", req.contentType)
	assert.Contains(t, string(req.body), "%PDF-1.4")
}

func TestS3Client_EnsureBucket(t *testing.T) {
	srv, requests := newFakeS3(t)

	require.NoError(t, newTestClient(t, srv.URL, "docs").EnsureBucket(context.Background()))
	require.Len(t, *requests, 1)
	assert.Equal(t, http.MethodHead, (*requests)[0].method)

	require.NoError(t, newTestClient(t, srv.URL, "missing-bucket").EnsureBucket(context.Background()))
	require.Len(t, *requests, 3)
	assert.Equal(t, http.MethodPut, (*requests)[2].method)
	assert.Equal(t, "/missing-bucket", (*requests)[2].path)
}

func TestS3Client_EnsureBucket_Forbidden(t *testing.T) {
	srv, requests := newFakeS3(t)

	err := newTestClient(t, srv.URL, "forbidden").EnsureBucket(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach bucket forbidden")
	for _, r := range *requests {
		assert.NotEqual(t, http.MethodPut, r.method)
	}
}

func TestS3Client_Stat(t *testing.T) {
	srv, _ := newFakeS3(t)
	client := newTestClient(t, srv.URL, "docs")

	meta, err := client.Stat(context.Background(), "documents/doc-1/report.pdf")

	require.NoError(t, err)
	assert.Equal(t, int64(8), meta.ContentLength)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, `"etag-1"`, meta.ETag)
	assert.Equal(t, 2026, meta.LastModified.Year())
}

func TestS3Client_Stat_NotFound(t *testing.T) {
	srv, _ := newFakeS3(t)
	client := newTestClient(t, srv.URL, "docs")

	_, err := client.Stat(context.Background(), "documents/missing.pdf")

	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3ClientConfig{Region: "us-east-1"})

	assert.Error(t, err)
}
