package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, endpoint string) *S3Store {
	t.Helper()
	store, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "assets",
		Region:    "us-east-1",
		Endpoint:  endpoint,
		AccessKey: "test-access",
		SecretKey: "test-secret",
		PathStyle: true,
	})
	require.NoError(t, err)
	return store
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{})
	assert.Error(t, err)
}

func TestPut(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)

	err := store.Put(context.Background(), "deadbeef.webp", []byte("image bytes"), "image/webp")
	require.NoError(t, err)

	assert.Equal(t, "/assets/deadbeef.webp", gotPath)
	assert.Equal(t, "image/webp", gotContentType)
	assert.Equal(t, []byte("image bytes"), gotBody)
}

func TestPut_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<Error><Code>InternalError</Code></Error>`))
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)

	err := store.Put(context.Background(), "key.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key.png")
}
