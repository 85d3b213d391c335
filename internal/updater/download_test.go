package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	content := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != userAgent {
			t.Errorf("unexpected User-Agent: %s", got)
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(content)))
		w.Write([]byte(content))
	}))
	defer server.Close()

	d := NewDownloader(filepath.Join(t.TempDir(), "_updates"))

	var percents []int
	path, err := d.Download(context.Background(), server.URL, func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))

	assert.True(t, strings.HasPrefix(filepath.Base(path), "update_"))
	assert.True(t, strings.HasSuffix(path, ".zip"))

	require.NotEmpty(t, percents)
	assert.Equal(t, 100, percents[len(percents)-1])
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1], "progress must not go backwards")
	}
}

func TestDownloader_Download_UnknownLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Chunked response: no Content-Length.
		flusher := w.(http.Flusher)
		w.Write([]byte("some data"))
		flusher.Flush()
		w.Write([]byte("more data"))
	}))
	defer server.Close()

	d := NewDownloader(t.TempDir())

	var percents []int
	_, err := d.Download(context.Background(), server.URL, func(p int) {
		percents = append(percents, p)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, percents, "unknown size reports 0 exactly once")
}

func TestDownloader_Download_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(dir)

	_, err := d.Download(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDownloadFailed))

	// Non-2xx aborts before any file is written.
	matches, _ := filepath.Glob(filepath.Join(dir, artifactGlob))
	assert.Empty(t, matches)
}

func TestDownloader_Download_InterruptedStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.WriteHeader(http.StatusOK)
		w.Write(make([]byte, 100)) // then hang up early
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(dir)

	_, err := d.Download(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDownloadFailed))

	// The partial file must be removed, so nothing looks ready later.
	matches, _ := filepath.Glob(filepath.Join(dir, artifactGlob))
	assert.Empty(t, matches)

	mgr := New(Config{VersionFile: filepath.Join(dir, "app", "version.json"), UpdatesDir: dir})
	assert.False(t, mgr.HasUpdateReady())
}

func TestDownloader_Download_PrunesToThree(t *testing.T) {
	content := make([]byte, 2048)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	dir := t.TempDir()
	d := NewDownloader(dir)

	for i := 0; i < 5; i++ {
		_, err := d.Download(context.Background(), server.URL, nil)
		require.NoError(t, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, artifactGlob))
	require.NoError(t, err)
	assert.Len(t, matches, retainArtifacts)
}

func TestListArtifacts_NewestFirst(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"update_1.zip", "update_2.zip", "update_3.zip"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), make([]byte, 10), 0644))
	}

	artifacts, err := listArtifacts(dir)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)
	// Equal mtimes fall back to the name ordering, newest token first.
	assert.Equal(t, "update_3.zip", filepath.Base(artifacts[0].Path))
}
