package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracuu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_dir: /opt/tracuu/app\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/tracuu/app", cfg.AppDir)
	assert.Equal(t, Default().VersionFile, cfg.VersionFile)
	assert.Equal(t, Default().UpdateDelaySeconds, cfg.UpdateDelaySeconds)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TRACUU_HOME", "/srv/tracuu")

	path := filepath.Join(t.TempDir(), "tracuu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_dir: ${TRACUU_HOME}/app\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/tracuu/app", cfg.AppDir)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracuu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app_dir: [broken\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty app dir", func(c *Config) { c.AppDir = "" }, true},
		{"empty version file", func(c *Config) { c.VersionFile = "" }, true},
		{"negative delay", func(c *Config) { c.UpdateDelaySeconds = -1 }, true},
		{"zero delay", func(c *Config) { c.UpdateDelaySeconds = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "tracuu.yaml")

	want := Default()
	want.AppDir = "custom"
	want.VersionFile = filepath.Join("custom", "version.json")
	want.UpdateDelaySeconds = 10
	want.Logging.Level = "debug"
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
