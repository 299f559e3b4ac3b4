// Package config resolves ingestion configuration from defaults, optional
// configuration files, and environment variables into an immutable ScanConfig.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// Environment variable names recognized as configuration knobs.
const (
	EnvMaxFileSize       = "MAX_FILE_SIZE"
	EnvMaxFiles          = "MAX_FILES"
	EnvMaxTotalSize      = "MAX_TOTAL_SIZE"
	EnvMaxDirectoryDepth = "MAX_DIRECTORY_DEPTH"
	EnvDefaultTimeout    = "DEFAULT_TIMEOUT"
	EnvConcurrencyLimit  = "CONCURRENT_FILE_LIMIT"
	EnvBatchSize         = "BATCH_SIZE"
)

const (
	defaultTimeoutSeconds   = 60
	defaultConcurrencyLimit = 1000
	defaultBatchSize        = 500
)

// ScanConfig is the fully resolved configuration for a single ingestion run.
// It is constructed once and never mutated afterwards; concurrent readers
// share it freely.
type ScanConfig struct {
	MaxFileSize       int64
	MaxFiles          int
	MaxTotalSize      int64
	MaxDirectoryDepth int
	Timeout           time.Duration
	ConcurrencyLimit  int
	BatchSize         int
	IncludePatterns   []string
	ExcludePatterns   []string
	UseGitignore      bool
	UseDefaultFilters bool
}

// DefaultScanConfig returns the configuration applied when no knob is set:
// ceilings are effectively unlimited, the timeout is one minute, and reads
// fan out to at most one thousand files in batches of five hundred.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		MaxFileSize:       math.MaxInt64,
		MaxFiles:          math.MaxInt,
		MaxTotalSize:      math.MaxInt64,
		MaxDirectoryDepth: math.MaxInt,
		Timeout:           defaultTimeoutSeconds * time.Second,
		ConcurrencyLimit:  defaultConcurrencyLimit,
		BatchSize:         defaultBatchSize,
		UseGitignore:      true,
		UseDefaultFilters: true,
	}
}

// Validate reports the first nonsensical knob value, if any.
func (scanConfiguration ScanConfig) Validate() error {
	if scanConfiguration.MaxFileSize < 0 {
		return fmt.Errorf("max file size must not be negative: %d", scanConfiguration.MaxFileSize)
	}
	if scanConfiguration.MaxFiles < 0 {
		return fmt.Errorf("max file count must not be negative: %d", scanConfiguration.MaxFiles)
	}
	if scanConfiguration.MaxTotalSize < 0 {
		return fmt.Errorf("max total size must not be negative: %d", scanConfiguration.MaxTotalSize)
	}
	if scanConfiguration.MaxDirectoryDepth < 0 {
		return fmt.Errorf("max directory depth must not be negative: %d", scanConfiguration.MaxDirectoryDepth)
	}
	if scanConfiguration.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive: %s", scanConfiguration.Timeout)
	}
	if scanConfiguration.ConcurrencyLimit <= 0 {
		return fmt.Errorf("concurrency limit must be positive: %d", scanConfiguration.ConcurrencyLimit)
	}
	if scanConfiguration.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive: %d", scanConfiguration.BatchSize)
	}
	return nil
}

// ApplyEnvironmentOverrides returns a copy of the configuration with every
// recognized environment knob applied on top.
func ApplyEnvironmentOverrides(scanConfiguration ScanConfig) (ScanConfig, error) {
	if value, parseError := lookupInt64(EnvMaxFileSize); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.MaxFileSize = *value
	}
	if value, parseError := lookupInt(EnvMaxFiles); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.MaxFiles = *value
	}
	if value, parseError := lookupInt64(EnvMaxTotalSize); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.MaxTotalSize = *value
	}
	if value, parseError := lookupInt(EnvMaxDirectoryDepth); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.MaxDirectoryDepth = *value
	}
	if value, parseError := lookupInt(EnvDefaultTimeout); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.Timeout = time.Duration(*value) * time.Second
	}
	if value, parseError := lookupInt(EnvConcurrencyLimit); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.ConcurrencyLimit = *value
	}
	if value, parseError := lookupInt(EnvBatchSize); parseError != nil {
		return scanConfiguration, parseError
	} else if value != nil {
		scanConfiguration.BatchSize = *value
	}
	return scanConfiguration, nil
}

func lookupInt(variableName string) (*int, error) {
	rawValue, isSet := os.LookupEnv(variableName)
	if !isSet || rawValue == "" {
		return nil, nil
	}
	parsedValue, parseError := strconv.Atoi(rawValue)
	if parseError != nil {
		return nil, fmt.Errorf("parsing %s=%q: %w", variableName, rawValue, parseError)
	}
	return &parsedValue, nil
}

func lookupInt64(variableName string) (*int64, error) {
	rawValue, isSet := os.LookupEnv(variableName)
	if !isSet || rawValue == "" {
		return nil, nil
	}
	parsedValue, parseError := strconv.ParseInt(rawValue, 10, 64)
	if parseError != nil {
		return nil, fmt.Errorf("parsing %s=%q: %w", variableName, rawValue, parseError)
	}
	return &parsedValue, nil
}

// DefaultExcludePatterns lists paths that are filtered out of every run unless
// default filters are disabled: version control metadata, build artifacts,
// editor state, logs, and common binary or media formats.
func DefaultExcludePatterns() []string {
	return []string{
		".git/",
		".svn/",
		".hg/",

		"target/",
		"build/",
		"dist/",
		"node_modules/",
		"__pycache__/",
		"*.pyc",

		".vscode/",
		".idea/",
		"*.swp",
		"*.swo",
		".DS_Store",

		"*.log",
		"*.tmp",
		"*.temp",

		"*.exe",
		"*.dll",
		"*.so",
		"*.dylib",
		"*.a",
		"*.lib",

		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"*.pdf",
		"*.mp4",
		"*.mp3",
		"*.wav",
	}
}
