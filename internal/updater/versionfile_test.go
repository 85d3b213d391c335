package updater

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFile_Load_Missing(t *testing.T) {
	f := NewVersionFile(filepath.Join(t.TempDir(), "version.json"))

	info := f.Load()
	assert.Equal(t, "1.0.0", info.Version)
	assert.Empty(t, info.GitHubRepo)
	assert.Nil(t, info.LastCheck)
}

func TestVersionFile_Load_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	info := NewVersionFile(path).Load()
	assert.Equal(t, "1.0.0", info.Version)
	assert.Empty(t, info.GitHubRepo)
}

func TestVersionFile_SaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app", "version.json")
	f := NewVersionFile(path)

	checked := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, f.Save(VersionInfo{
		Version:    "2.1.0",
		GitHubRepo: "someone/tracuu",
		LastCheck:  &checked,
	}))

	info := f.Load()
	assert.Equal(t, "2.1.0", info.Version)
	assert.Equal(t, "someone/tracuu", info.GitHubRepo)
	require.NotNil(t, info.LastCheck)
	assert.True(t, checked.Equal(*info.LastCheck))
}

func TestVersionFile_Save_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewVersionFile(filepath.Join(dir, "version.json"))

	require.NoError(t, f.Save(VersionInfo{Version: "1.0.1"}))
	require.NoError(t, f.Save(VersionInfo{Version: "1.0.2"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "version.json", entries[0].Name())
}

func TestVersionFile_Save_ReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	f := NewVersionFile(path)

	require.NoError(t, f.Save(VersionInfo{Version: "1.0.0", GitHubRepo: "a/b"}))
	require.NoError(t, f.Save(VersionInfo{Version: "1.1.0"}))

	info := f.Load()
	assert.Equal(t, "1.1.0", info.Version)
	assert.Empty(t, info.GitHubRepo, "old fields must not survive a full replacement")
}

func TestVersionInfo_RepoConfigured(t *testing.T) {
	tests := []struct {
		repo string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"owner/repo-name", false},
		{"someone/tracuu", true},
	}
	for _, tt := range tests {
		info := VersionInfo{GitHubRepo: tt.repo}
		if got := info.RepoConfigured(); got != tt.want {
			t.Errorf("RepoConfigured(%q) = %v, want %v", tt.repo, got, tt.want)
		}
	}
}
