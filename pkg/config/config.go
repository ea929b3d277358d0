package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSourceURL   = "https://bazaar.abuse.ch/downloads/misp/?C=M;O=D"
	DefaultFileSuffix  = ".json"
	DefaultExcludeFile = "manifest.json"
	DefaultSaveDir     = "./json"
	DefaultMarkerFile  = "last_file.txt"
	DefaultArchiveFile = "extract.json"
	DefaultStatusFile  = "harvest_status.log"
	DefaultUserAgent   = "MispHarvester/1.0"
	DefaultHTTPTimeout = 10 * time.Minute
)

// DefaultAllowList is the set of MISP attribute types copied into records.
var DefaultAllowList = []string{
	"md5", "sha1", "sha256", "sha3-384", "tlsh", "imphash",
	"ssdeep", "size-in-bytes", "mime-type", "filename",
}

type Config struct {
	SourceURL    string        `yaml:"source_url"`
	FileSuffix   string        `yaml:"file_suffix"`
	ExcludeFile  string        `yaml:"exclude_file"`
	ListingLimit int           `yaml:"listing_limit"`
	SaveDir      string        `yaml:"save_dir"`
	MarkerFile   string        `yaml:"marker_file"`
	ArchiveFile  string        `yaml:"archive_file"`
	StatusFile   string        `yaml:"status_file"`
	AllowList    []string      `yaml:"allow_list"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	UserAgent    string        `yaml:"user_agent"`
	Strict       bool          `yaml:"strict"`
}

// Default returns the configuration used when no config.yaml is present.
func Default() *Config {
	return &Config{
		SourceURL:   DefaultSourceURL,
		FileSuffix:  DefaultFileSuffix,
		ExcludeFile: DefaultExcludeFile,
		SaveDir:     DefaultSaveDir,
		MarkerFile:  DefaultMarkerFile,
		ArchiveFile: DefaultArchiveFile,
		StatusFile:  DefaultStatusFile,
		AllowList:   append([]string(nil), DefaultAllowList...),
		HTTPTimeout: DefaultHTTPTimeout,
		UserAgent:   DefaultUserAgent,
	}
}

// ParseConfig reads config.yaml from configPath, or from the executable's
// directory and then the working directory when configPath is empty.
// When configPath is empty a missing file is not an error and the defaults
// are returned; an explicit configPath must hold a config.yaml.
func ParseConfig(configPath string) (*Config, error) {
	config := Default()

	data, err := readConfigFile(configPath)
	if err != nil {
		if configPath == "" && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("read config.yaml: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return config, fmt.Errorf("parse config.yaml: %w", err)
	}
	return config, nil
}

func readConfigFile(configPath string) ([]byte, error) {
	if len(configPath) > 0 {
		return os.ReadFile(path.Join(configPath, "config.yaml"))
	}

	// Trying to first find the configuration next to executable
	ex, err := os.Executable()
	if err == nil {
		data, err := os.ReadFile(path.Join(filepath.Dir(ex), "config.yaml"))
		if err == nil {
			return data, nil
		}
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path.Join(dir, "config.yaml"))
}

// ApplyOptions overlays command line options on top of the file configuration.
func (c *Config) ApplyOptions(opts *Options) {
	if opts == nil {
		return
	}
	if opts.SaveDir != nil && *opts.SaveDir != "" {
		c.SaveDir = *opts.SaveDir
	}
	if opts.SourceURL != nil && *opts.SourceURL != "" {
		c.SourceURL = *opts.SourceURL
	}
	if opts.Strict != nil && *opts.Strict {
		c.Strict = true
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil {
		return fmt.Errorf("invalid source_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid source_url %q: scheme must be http or https", c.SourceURL)
	}
	if !strings.Contains(strings.TrimPrefix(c.SourceURL, u.Scheme+"://"), "/") {
		return fmt.Errorf("invalid source_url %q: no path segment to replace", c.SourceURL)
	}
	if c.FileSuffix == "" {
		return errors.New("file_suffix must not be empty")
	}
	if c.SaveDir == "" {
		return errors.New("save_dir must not be empty")
	}
	if c.ListingLimit < 0 {
		return fmt.Errorf("listing_limit must be >= 0, got %d", c.ListingLimit)
	}
	if len(c.AllowList) == 0 {
		return errors.New("allow_list must not be empty")
	}
	for _, t := range c.AllowList {
		switch t {
		case "", "file_name", "name", "file_type", "tag_name":
			return fmt.Errorf("allow_list: %q is not a usable attribute type", t)
		}
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must be >= 0, got %s", c.HTTPTimeout)
	}
	return nil
}

func (c *Config) MarkerPath() string  { return c.inSaveDir(c.MarkerFile) }
func (c *Config) ArchivePath() string { return c.inSaveDir(c.ArchiveFile) }
func (c *Config) StatusPath() string  { return c.inSaveDir(c.StatusFile) }

func (c *Config) inSaveDir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.SaveDir, name)
}
