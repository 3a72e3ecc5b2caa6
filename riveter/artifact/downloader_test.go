package artifact

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDownloader(client *http.Client) *Downloader {
	return &Downloader{Client: client, MaxAttempts: 3, RetryDelay: 0}
}

func TestDownloadSuccess(t *testing.T) {
	payload := []byte("release artifact payload")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "artifact.bin")
	err := testDownloader(server.Client()).Download(context.Background(), server.URL, dst, 1)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Write([]byte("eventually fine"))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "artifact.bin")
	err := testDownloader(server.Client()).Download(context.Background(), server.URL, dst, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDownloadGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "still broken", http.StatusBadGateway)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "artifact.bin")
	err := testDownloader(server.Client()).Download(context.Background(), server.URL, dst, 1)

	var dlErr *DownloadError
	require.True(t, errors.As(err, &dlErr))
	assert.Equal(t, 3, attempts)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "partial file should be removed")
}

func TestDownloadNotFoundIsNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.NotFound(w, r)
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "artifact.bin")
	err := testDownloader(server.Client()).Download(context.Background(), server.URL, dst, 1)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDownloadTooSmallRemovesPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "artifact.bin")
	err := testDownloader(server.Client()).Download(context.Background(), server.URL, dst, 100*1024*1024)

	assert.True(t, errors.Is(err, ErrArtifactTooSmall))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "undersized file should be removed")
}
