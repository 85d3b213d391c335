package updater

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nvkhoa/tracuu/internal/logging"
)

const (
	// downloadTimeout bounds the initial connection and response read.
	// Once streaming has begun there is no per-chunk timeout.
	downloadTimeout = 60 * time.Second

	// artifactGlob matches downloaded update artifacts in the updates dir.
	artifactGlob = "update_*.zip"

	// retainArtifacts is how many downloaded artifacts are kept on disk.
	retainArtifacts = 3
)

// ProgressFunc receives download progress as a whole percentage (0-100).
type ProgressFunc func(percent int)

// Downloader streams release artifacts into the updates directory.
type Downloader struct {
	httpClient *http.Client
	dir        string
}

// NewDownloader creates a Downloader writing into dir.
func NewDownloader(dir string) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: downloadTimeout},
		dir:        dir,
	}
}

// Dir returns the updates directory.
func (d *Downloader) Dir() string {
	return d.dir
}

// Download streams url into a timestamp-named zip inside the updates
// directory and returns its path. Progress is reported per chunk when the
// response declares a content length; otherwise onProgress(0) is called
// once. Non-2xx responses abort before any file is written; a failed write
// removes the partial file. After a successful download the directory is
// pruned to the newest artifacts.
func (d *Downloader) Download(ctx context.Context, url string, onProgress ProgressFunc) (string, error) {
	log := logging.WithComponent("updater")

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create updates dir: %v", ErrDownloadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	destPath := filepath.Join(d.dir, fmt.Sprintf("update_%d.zip", time.Now().UnixNano()))
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", ErrDownloadFailed, err)
	}

	var reader io.Reader = resp.Body
	if onProgress != nil {
		if resp.ContentLength > 0 {
			reader = &progressReader{reader: resp.Body, total: resp.ContentLength, onProgress: onProgress}
		} else {
			// Unknown size: report once, no estimation after that.
			onProgress(0)
		}
	}

	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("%w: close file: %v", ErrDownloadFailed, err)
	}

	d.prune(log)

	log.Info("update downloaded", "path", destPath)
	return destPath, nil
}

// prune keeps only the newest retained artifacts. Deletion failures are
// logged, never fatal.
func (d *Downloader) prune(log *slog.Logger) {
	artifacts, err := listArtifacts(d.dir)
	if err != nil {
		log.Warn("cannot scan updates dir for pruning", "error", err)
		return
	}
	for _, a := range artifacts[min(len(artifacts), retainArtifacts):] {
		if err := os.Remove(a.Path); err != nil {
			log.Warn("cannot remove old update artifact", "path", a.Path, "error", err)
		}
	}
}

// artifactInfo describes one downloaded artifact on disk.
type artifactInfo struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// listArtifacts returns the artifacts in dir, newest first.
func listArtifacts(dir string) ([]artifactInfo, error) {
	matches, err := filepath.Glob(filepath.Join(dir, artifactGlob))
	if err != nil {
		return nil, err
	}

	artifacts := make([]artifactInfo, 0, len(matches))
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		artifacts = append(artifacts, artifactInfo{Path: m, ModTime: fi.ModTime(), Size: fi.Size()})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		if !artifacts[i].ModTime.Equal(artifacts[j].ModTime) {
			return artifacts[i].ModTime.After(artifacts[j].ModTime)
		}
		// Names embed a nanosecond timestamp, so this settles equal mtimes.
		return artifacts[i].Path > artifacts[j].Path
	})
	return artifacts, nil
}

// progressReader reports whole-percent progress after every chunk.
type progressReader struct {
	reader     io.Reader
	total      int64
	done       int64
	onProgress ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.done += int64(n)
		pct := int(pr.done * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		pr.onProgress(pct)
	}
	return n, err
}
