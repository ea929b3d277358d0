package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseConfigMissingFileReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := ParseConfig("")
	require.NoError(t, err)
	require.Equal(t, DefaultSourceURL, cfg.SourceURL)
	require.Equal(t, DefaultAllowList, cfg.AllowList)
	require.Equal(t, "manifest.json", cfg.ExcludeFile)
	require.Equal(t, 0, cfg.ListingLimit)
	require.NoError(t, cfg.Validate())
}

func TestParseConfigMissingExplicitFileFails(t *testing.T) {
	_, err := ParseConfig(t.TempDir())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
source_url: "http://mirror.local/misp/index.html"
save_dir: /var/lib/harvester
listing_limit: 5
allow_list: [md5, sha256]
http_timeout: 30s
strict: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := ParseConfig(dir)
	require.NoError(t, err)
	require.Equal(t, "http://mirror.local/misp/index.html", cfg.SourceURL)
	require.Equal(t, 5, cfg.ListingLimit)
	require.Equal(t, []string{"md5", "sha256"}, cfg.AllowList)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.True(t, cfg.Strict)
	// untouched keys keep their defaults
	require.Equal(t, DefaultMarkerFile, cfg.MarkerFile)
	require.Equal(t, "/var/lib/harvester/last_file.txt", cfg.MarkerPath())
	require.Equal(t, "/var/lib/harvester/extract.json", cfg.ArchivePath())
}

func TestParseConfigInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("allow_list: {"), 0644))
	_, err := ParseConfig(dir)
	require.Error(t, err)
}

func TestApplyOptions(t *testing.T) {
	cfg := Default()
	opts := NewDefaultOptions()
	saveDir := "/tmp/out"
	strict := true
	opts.SaveDir = &saveDir
	opts.Strict = &strict

	cfg.ApplyOptions(opts)
	require.Equal(t, "/tmp/out", cfg.SaveDir)
	require.Equal(t, DefaultSourceURL, cfg.SourceURL)
	require.True(t, cfg.Strict)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad scheme", mutate: func(c *Config) { c.SourceURL = "ftp://host/dir/" }},
		{name: "no path", mutate: func(c *Config) { c.SourceURL = "https://host" }},
		{name: "empty suffix", mutate: func(c *Config) { c.FileSuffix = "" }},
		{name: "empty save dir", mutate: func(c *Config) { c.SaveDir = "" }},
		{name: "negative limit", mutate: func(c *Config) { c.ListingLimit = -1 }},
		{name: "empty allow list", mutate: func(c *Config) { c.AllowList = nil }},
		{name: "reserved allow list key", mutate: func(c *Config) { c.AllowList = append(c.AllowList, "file_type") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestAbsolutePathsAreKept(t *testing.T) {
	cfg := Default()
	cfg.ArchiveFile = "/data/archive.json"
	require.Equal(t, "/data/archive.json", cfg.ArchivePath())
	require.Equal(t, filepath.Join(DefaultSaveDir, DefaultMarkerFile), cfg.MarkerPath())
}
