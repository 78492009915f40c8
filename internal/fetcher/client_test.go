package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("fake image bytes"))
	}))
	defer server.Close()

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Get(context.Background(), server.URL+"/img.png")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("fake image bytes"), resp.Body)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.NotEmpty(t, gotUserAgent)
}

func TestGet_CustomUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{UserAgent: "pagesync-test/1.0"})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "pagesync-test/1.0", gotUserAgent)
}

func TestGet_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), server.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestGet_InvalidURL(t *testing.T) {
	client, err := NewClient(DefaultClientOptions())
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(context.Background(), "://not-a-url")
	assert.Error(t, err)
}

func TestRandomUserAgent(t *testing.T) {
	ua := RandomUserAgent()
	assert.True(t, strings.Contains(ua, "Mozilla"))
}
