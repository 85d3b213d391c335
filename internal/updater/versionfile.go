package updater

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// defaultVersion is assumed when no version file exists yet.
	defaultVersion = "1.0.0"

	// placeholderRepo is the template value shipped in version.json.
	// A placeholder (or empty) repo disables update checks entirely.
	placeholderRepo = "owner/repo-name"
)

// VersionInfo is the persisted version metadata record.
//
// Version always reflects the last successfully installed version. It is
// committed only after an install completes, never mid-install.
type VersionInfo struct {
	Version    string     `json:"version"`
	GitHubRepo string     `json:"github_repo"`
	LastCheck  *time.Time `json:"last_check"`
}

// RepoConfigured reports whether a real repository is configured.
func (v VersionInfo) RepoConfigured() bool {
	repo := strings.TrimSpace(v.GitHubRepo)
	return repo != "" && repo != placeholderRepo
}

// VersionFile loads and persists VersionInfo at a fixed path.
//
// The file is the durable source of truth for the installed version and is
// safe to read from multiple processes: writes are whole-file replacements.
type VersionFile struct {
	path string
}

// NewVersionFile returns a VersionFile bound to path.
func NewVersionFile(path string) *VersionFile {
	return &VersionFile{path: path}
}

// Path returns the location of the version file.
func (f *VersionFile) Path() string {
	return f.path
}

// Load reads the persisted record. A missing, unreadable or malformed file
// yields the default record; Load never fails.
func (f *VersionFile) Load() VersionInfo {
	info := VersionInfo{Version: defaultVersion}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return info
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return VersionInfo{Version: defaultVersion}
	}
	if info.Version == "" {
		info.Version = defaultVersion
	}
	return info
}

// Save persists the whole record. The record is written to a temporary file
// in the same directory and renamed into place so a concurrent reader never
// observes a half-written file.
func (f *VersionFile) Save(info VersionInfo) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
