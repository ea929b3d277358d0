package config

import (
	"flag"

	"github.com/deepfence/MispHarvester/utils"
)

const (
	JSONOutput  = "json"
	TableOutput = "table"
)

type Options struct {
	ConfigPath *string
	SaveDir    *string
	SourceURL  *string
	LogLevel   *string
	LogFormat  *string
	OutFormat  *string
	Strict     *bool
}

func ParseOptions() (*Options, error) {
	options := &Options{
		ConfigPath: flag.String("config-path", "", "Searches for config.yaml from given directory. If not set, tries to find it from MispHarvester binary's and current directory"),
		SaveDir:    flag.String("save-dir", utils.GetEnvOrDefault("MISP_HARVESTER_SAVE_DIR", ""), "Directory holding downloaded events, the marker and the archive, also supports env var MISP_HARVESTER_SAVE_DIR"),
		SourceURL:  flag.String("source-url", utils.GetEnvOrDefault("MISP_HARVESTER_SOURCE_URL", ""), "MISP feed directory listing URL, also supports env var MISP_HARVESTER_SOURCE_URL"),
		LogLevel:   flag.String("log-level", "info", "Log levels are one of error, warn, info, debug. Only levels higher than the log-level are displayed"),
		LogFormat:  flag.String("log-format", "console", "Log format: console or json"),
		OutFormat:  flag.String("output", TableOutput, "Output format: json or table"),
		Strict:     flag.Bool("strict", false, "Do not advance the marker if any download of the batch failed"),
	}
	flag.Parse()
	return options, nil
}

// NewDefaultOptions returns the default options without flag parsing
func NewDefaultOptions() *Options {
	var emptyValue = ""
	var logLevel = "info"
	var logFormat = "console"
	var outFormat = TableOutput
	var strict = false
	return &Options{
		ConfigPath: &emptyValue,
		SaveDir:    &emptyValue,
		SourceURL:  &emptyValue,
		LogLevel:   &logLevel,
		LogFormat:  &logFormat,
		OutFormat:  &outFormat,
		Strict:     &strict,
	}
}
