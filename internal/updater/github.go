package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nvkhoa/tracuu/internal/logging"
)

const (
	githubAPIURL = "https://api.github.com"
	userAgent    = "tracuu-updater/1.0"

	// checkTimeout bounds a single release-feed query.
	checkTimeout = 10 * time.Second

	// maxResponseBytes caps API response bodies to keep a hostile or
	// malformed feed from exhausting memory.
	maxResponseBytes = 4 << 20
)

// Client queries the GitHub Releases API for a single repository.
type Client struct {
	httpClient *http.Client
	repo       string // "owner/name"
	baseURL    string // overridable for tests
}

// Release mirrors the GitHub latest-release response.
type Release struct {
	TagName     string  `json:"tag_name"`
	Body        string  `json:"body"`
	PublishedAt string  `json:"published_at"`
	Assets      []Asset `json:"assets"`
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ReleaseInfo describes one available update, produced when the upstream
// tag compares newer than the installed version.
type ReleaseInfo struct {
	Version     string
	DownloadURL string
	AssetID     int64
	AssetName   string
	Changelog   string
	PublishedAt string
}

// NewClient creates a release-feed client for repo ("owner/name").
func NewClient(repo string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: checkTimeout},
		repo:       repo,
		baseURL:    githubAPIURL,
	}
}

// CheckUpdate fetches the latest release and compares it against
// currentVersion. It returns a ReleaseInfo when a newer release with a zip
// asset exists, ErrNoUpdateAvailable when up to date or no asset qualifies,
// and a sentinel-wrapped error for feed failures. It never panics; every
// failure is logged and returned.
func (c *Client) CheckUpdate(ctx context.Context, currentVersion string) (*ReleaseInfo, error) {
	log := logging.WithComponent("updater")

	release, err := c.fetchLatestRelease(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrReleaseNotFound):
			log.Error("repository missing or has no releases (404)", "repo", c.repo)
		case errors.Is(err, ErrRateLimited):
			log.Error("release feed rate limited (403)", "repo", c.repo)
		case errors.Is(err, ErrUnauthorized):
			log.Error("release feed access denied", "repo", c.repo, "error", err)
		default:
			log.Error("update check failed", "error", err)
		}
		return nil, err
	}

	if !CompareVersions(currentVersion, release.TagName) {
		log.Info("already on latest version", "version", currentVersion)
		return nil, ErrNoUpdateAvailable
	}

	asset, ok := firstZipAsset(release.Assets)
	if !ok {
		log.Warn("release has no zip asset", "tag", release.TagName)
		return nil, fmt.Errorf("%w: tag %s", ErrAssetNotFound, release.TagName)
	}

	log.Info("new version available", "tag", release.TagName, "asset", asset.Name)
	return &ReleaseInfo{
		Version:     normalizeVersion(release.TagName),
		DownloadURL: asset.BrowserDownloadURL,
		AssetID:     asset.ID,
		AssetName:   asset.Name,
		Changelog:   release.Body,
		PublishedAt: release.PublishedAt,
	}, nil
}

// LatestVersion fetches the latest release tag without logging. It is used
// by the cross-process recovery path to resolve the version of an artifact
// found on disk; the "v" prefix is stripped.
func (c *Client) LatestVersion(ctx context.Context) (string, error) {
	release, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return "", err
	}
	if release.TagName == "" {
		return "", fmt.Errorf("%w: empty tag", ErrReleaseNotFound)
	}
	return normalizeVersion(release.TagName), nil
}

func (c *Client) fetchLatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	var release Release
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes))
	if err := dec.Decode(&release); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrNetworkError, err)
	}
	return &release, nil
}

func checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrReleaseNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
		return fmt.Errorf("%w: forbidden", ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%w: status %d: %s", ErrNetworkError, resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// firstZipAsset selects the first asset whose name ends in ".zip".
// No other asset type is ever used as a fallback.
func firstZipAsset(assets []Asset) (Asset, bool) {
	for _, a := range assets {
		if strings.HasSuffix(a.Name, ".zip") {
			return a, true
		}
	}
	return Asset{}, false
}
