package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvkhoa/tracuu/internal/logging"
)

// updatesDirName is the updates directory created next to the app dir.
const updatesDirName = "_updates"

// StatusFunc receives background cycle progress for the host UI.
// state is one of "downloading", "ready", "error".
type StatusFunc func(state string, percent int, message string)

// Config configures a Manager.
type Config struct {
	// VersionFile is the path to version.json inside the app directory.
	// The updates and backup directories are derived from its location.
	VersionFile string

	// UpdatesDir overrides the derived updates directory. Optional.
	UpdatesDir string

	// OnStatus, if set, receives background check/download progress.
	OnStatus StatusFunc
}

// Manager coordinates the update cycle: it sequences check, download and
// install, and owns the update-ready state. The host constructs exactly one
// Manager per process and talks only to it.
//
// Because the host runs as a fresh process on every invocation, the ready
// state is recovered from disk when no in-memory state exists.
type Manager struct {
	store      *VersionFile
	downloader *Downloader
	installer  *Installer
	scanner    artifactScanner
	onStatus   StatusFunc
	baseURL    string // release feed override, used by tests

	mu            sync.Mutex
	status        Status
	ready         bool
	artifactPath  string
	latestVersion string
}

// New creates a Manager from cfg.
func New(cfg Config) *Manager {
	store := NewVersionFile(cfg.VersionFile)

	updatesDir := cfg.UpdatesDir
	if updatesDir == "" {
		appDir := filepath.Dir(cfg.VersionFile)
		updatesDir = filepath.Join(filepath.Dir(appDir), updatesDirName)
	}

	return &Manager{
		store:      store,
		downloader: NewDownloader(updatesDir),
		installer:  NewInstaller(store),
		scanner:    dirScanner{dir: updatesDir},
		onStatus:   cfg.OnStatus,
	}
}

// Store exposes the version metadata record.
func (m *Manager) Store() *VersionFile {
	return m.store
}

// Status returns the coordinator's current position in the update cycle.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LatestVersion returns the version tag of the pending update, if resolved.
func (m *Manager) LatestVersion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestVersion
}

// CheckUpdate queries the release feed. It returns ErrRepoNotConfigured
// (silently, without logging) when no repository is configured,
// ErrNoUpdateAvailable when up to date, and a ReleaseInfo otherwise.
// The last-check time is recorded on every attempt.
func (m *Manager) CheckUpdate(ctx context.Context) (*ReleaseInfo, error) {
	log := logging.WithComponent("updater")

	info := m.store.Load()
	if !info.RepoConfigured() {
		return nil, ErrRepoNotConfigured
	}

	m.setStatus(StatusChecking)
	log.Info("checking for updates", "repo", info.GitHubRepo, "version", info.Version)

	now := time.Now().UTC()
	info.LastCheck = &now
	if err := m.store.Save(info); err != nil {
		log.Debug("cannot record last-check time", "error", err)
	}

	rel, err := m.client(info.GitHubRepo).CheckUpdate(ctx, info.Version)
	if err != nil {
		m.setStatus(StatusIdle)
		return nil, err
	}

	m.mu.Lock()
	m.latestVersion = rel.Version
	m.status = StatusIdle
	m.mu.Unlock()
	return rel, nil
}

// DownloadUpdate streams the artifact at url into the updates directory and
// flips the ready flag. The ready flag is never observable without an
// artifact path.
func (m *Manager) DownloadUpdate(ctx context.Context, url string, onProgress ProgressFunc) (string, error) {
	m.setStatus(StatusDownloading)

	path, err := m.downloader.Download(ctx, url, onProgress)
	if err != nil {
		m.setStatus(StatusFailed)
		return "", err
	}

	m.mu.Lock()
	m.artifactPath = path
	m.ready = true
	m.status = StatusReadyToInstall
	m.mu.Unlock()
	return path, nil
}

// InstallUpdate applies the artifact over appDir's parent. Whatever the
// outcome, the coordinator returns to Idle with the ready flag cleared: on
// success the artifact is consumed, on failure the tree was rolled back.
func (m *Manager) InstallUpdate(zipPath, appDir string) error {
	m.mu.Lock()
	version := m.latestVersion
	m.status = StatusInstalling
	m.mu.Unlock()

	err := m.installer.Install(zipPath, appDir, version)

	m.mu.Lock()
	m.ready = false
	m.artifactPath = ""
	m.status = StatusIdle
	m.mu.Unlock()
	return err
}

// StartBackgroundCheck runs one check→download cycle in a detached
// goroutine after delay. It never blocks the caller and never lets a
// failure escape into the host.
func (m *Manager) StartBackgroundCheck(delay time.Duration) {
	go func() {
		log := logging.WithComponent("updater")
		defer func() {
			if r := recover(); r != nil {
				log.Error("background update check panicked", "panic", r)
			}
		}()

		time.Sleep(delay)
		log.Info("background update check starting")
		m.checkAndDownload(context.Background())
	}()
}

// checkAndDownload performs the background cycle body: check, then
// download, strictly in that order.
func (m *Manager) checkAndDownload(ctx context.Context) {
	log := logging.WithComponent("updater")

	rel, err := m.CheckUpdate(ctx)
	if err != nil {
		// Every check failure means "no update this cycle"; the next
		// scheduled check retries. CheckUpdate already logged the cause.
		return
	}

	m.notify("downloading", 0, fmt.Sprintf("Downloading update %s...", rel.Version))
	path, err := m.DownloadUpdate(ctx, rel.DownloadURL, func(percent int) {
		m.notify("downloading", percent, fmt.Sprintf("Downloading update %s... %d%%", rel.Version, percent))
	})
	if err != nil {
		log.Error("update download failed", "version", rel.Version, "error", err)
		m.notify("error", 0, "Update download failed")
		return
	}

	log.Info("update ready to install", "version", rel.Version, "artifact", path)
	m.notify("ready", 100, fmt.Sprintf("Update %s ready", rel.Version))
}

// HasUpdateReady reports whether a validated artifact is available. When
// the in-memory state is empty it scans the updates directory for the most
// recent plausible artifact and adopts it; this is the cross-process
// recovery path. A recovered artifact without a resolved version gets a
// silent version lookup; resolution failure is non-fatal.
func (m *Manager) HasUpdateReady() bool {
	m.mu.Lock()
	if m.ready && m.artifactPath != "" {
		m.mu.Unlock()
		return true
	}
	m.mu.Unlock()

	// Unguarded scan: side-effect free until adoption.
	art, ok := m.scanner.LatestArtifact()
	if !ok {
		return false
	}

	log := logging.WithComponent("updater")
	log.Info("found downloaded update artifact", "path", art.Path)

	m.mu.Lock()
	m.ready = true
	m.artifactPath = art.Path
	m.status = StatusReadyToInstall
	needVersion := m.latestVersion == ""
	m.mu.Unlock()

	if needVersion {
		if v, err := m.resolveLatestVersion(); err == nil {
			m.mu.Lock()
			if m.latestVersion == "" {
				m.latestVersion = v
			}
			m.mu.Unlock()
		} else {
			log.Debug("cannot resolve version for recovered artifact", "error", err)
		}
	}
	return true
}

// ApplyOnExit installs a ready update, if any. Without one it returns
// false with no side effects; a stale in-memory path whose artifact is
// gone (consumed by another process) also reports nothing to install.
func (m *Manager) ApplyOnExit(appDir string) bool {
	if !m.HasUpdateReady() {
		return false
	}

	m.mu.Lock()
	path := m.artifactPath
	m.mu.Unlock()

	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	return m.InstallUpdate(path, appDir) == nil
}

// resolveLatestVersion performs the silent (non-logging) tag lookup used
// for recovered artifacts.
func (m *Manager) resolveLatestVersion() (string, error) {
	info := m.store.Load()
	if !info.RepoConfigured() {
		return "", ErrRepoNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	return m.client(info.GitHubRepo).LatestVersion(ctx)
}

func (m *Manager) client(repo string) *Client {
	c := NewClient(repo)
	if m.baseURL != "" {
		c.baseURL = m.baseURL
	}
	return c
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}

func (m *Manager) notify(state string, percent int, message string) {
	if m.onStatus != nil {
		m.onStatus(state, percent, message)
	}
}
