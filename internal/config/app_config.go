package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/gitdigest/gitdigest/internal/utils"
)

const (
	// ConfigFileName is the local configuration file discovered in the working directory.
	ConfigFileName = ".gitdigest.yaml"
	// GlobalConfigDirectoryName is the directory under the user home holding global configuration.
	GlobalConfigDirectoryName = ".gitdigest"
	configFileType            = "yaml"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds file-provided defaults for the ingest command.
type ApplicationConfiguration struct {
	Ingest IngestConfiguration `mapstructure:"ingest"`
}

// IngestConfiguration defines the file-configurable ingest options. Pointer
// fields distinguish "unset" from explicit zero values during merging.
type IngestConfiguration struct {
	Format            string             `mapstructure:"format"`
	Include           []string           `mapstructure:"include"`
	Exclude           []string           `mapstructure:"exclude"`
	MaxFileSize       *int64             `mapstructure:"max_file_size"`
	MaxFiles          *int               `mapstructure:"max_files"`
	MaxTotalSize      *int64             `mapstructure:"max_total_size"`
	MaxDirectoryDepth *int               `mapstructure:"max_depth"`
	TimeoutSeconds    *int               `mapstructure:"timeout"`
	ConcurrencyLimit  *int               `mapstructure:"concurrency"`
	BatchSize         *int               `mapstructure:"batch_size"`
	UseGitignore      *bool              `mapstructure:"use_gitignore"`
	UseDefaultFilters *bool              `mapstructure:"default_filters"`
	Tokens            TokenConfiguration `mapstructure:"tokens"`
	Clipboard         *bool              `mapstructure:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, ConfigFileName)
		globalConfig, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := options.ExplicitFilePath
	if localPath == "" {
		localPath = filepath.Join(workingDirectory, ConfigFileName)
	} else if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(workingDirectory, localPath)
	}
	localConfig, loadError := loadConfigurationFromPath(localPath)
	if loadError != nil {
		return ApplicationConfiguration{}, loadError
	}
	merged = merged.Merge(localConfig)

	merged.Ingest.Include = utils.DeduplicatePatterns(merged.Ingest.Include)
	merged.Ingest.Exclude = utils.DeduplicatePatterns(merged.Ingest.Exclude)

	return merged, nil
}

func loadConfigurationFromPath(configurationPath string) (ApplicationConfiguration, error) {
	if _, statError := os.Stat(configurationPath); statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", configurationPath, statError)
	}

	viperInstance := viper.New()
	viperInstance.SetConfigFile(configurationPath)
	viperInstance.SetConfigType(configFileType)
	if readError := viperInstance.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration %s: %w", configurationPath, readError)
	}

	var loaded ApplicationConfiguration
	if unmarshalError := viperInstance.Unmarshal(&loaded); unmarshalError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("parse configuration %s: %w", configurationPath, unmarshalError)
	}
	return loaded, nil
}

// Merge overlays the other configuration onto the receiver; values set in
// other take precedence.
func (configuration ApplicationConfiguration) Merge(other ApplicationConfiguration) ApplicationConfiguration {
	merged := configuration
	merged.Ingest = merged.Ingest.merge(other.Ingest)
	return merged
}

func (configuration IngestConfiguration) merge(other IngestConfiguration) IngestConfiguration {
	merged := configuration
	if other.Format != "" {
		merged.Format = other.Format
	}
	if len(other.Include) > 0 {
		merged.Include = append(merged.Include, other.Include...)
	}
	if len(other.Exclude) > 0 {
		merged.Exclude = append(merged.Exclude, other.Exclude...)
	}
	if other.MaxFileSize != nil {
		merged.MaxFileSize = other.MaxFileSize
	}
	if other.MaxFiles != nil {
		merged.MaxFiles = other.MaxFiles
	}
	if other.MaxTotalSize != nil {
		merged.MaxTotalSize = other.MaxTotalSize
	}
	if other.MaxDirectoryDepth != nil {
		merged.MaxDirectoryDepth = other.MaxDirectoryDepth
	}
	if other.TimeoutSeconds != nil {
		merged.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.ConcurrencyLimit != nil {
		merged.ConcurrencyLimit = other.ConcurrencyLimit
	}
	if other.BatchSize != nil {
		merged.BatchSize = other.BatchSize
	}
	if other.UseGitignore != nil {
		merged.UseGitignore = other.UseGitignore
	}
	if other.UseDefaultFilters != nil {
		merged.UseDefaultFilters = other.UseDefaultFilters
	}
	if other.Tokens.Enabled != nil {
		merged.Tokens.Enabled = other.Tokens.Enabled
	}
	if other.Tokens.Model != "" {
		merged.Tokens.Model = other.Tokens.Model
	}
	if other.Clipboard != nil {
		merged.Clipboard = other.Clipboard
	}
	return merged
}

// Apply overlays the file configuration onto a resolved scan configuration.
func (configuration IngestConfiguration) Apply(scanConfiguration ScanConfig) ScanConfig {
	applied := scanConfiguration
	if len(configuration.Include) > 0 {
		applied.IncludePatterns = append(applied.IncludePatterns, configuration.Include...)
	}
	if len(configuration.Exclude) > 0 {
		applied.ExcludePatterns = append(applied.ExcludePatterns, configuration.Exclude...)
	}
	if configuration.MaxFileSize != nil {
		applied.MaxFileSize = *configuration.MaxFileSize
	}
	if configuration.MaxFiles != nil {
		applied.MaxFiles = *configuration.MaxFiles
	}
	if configuration.MaxTotalSize != nil {
		applied.MaxTotalSize = *configuration.MaxTotalSize
	}
	if configuration.MaxDirectoryDepth != nil {
		applied.MaxDirectoryDepth = *configuration.MaxDirectoryDepth
	}
	if configuration.TimeoutSeconds != nil {
		applied.Timeout = time.Duration(*configuration.TimeoutSeconds) * time.Second
	}
	if configuration.ConcurrencyLimit != nil {
		applied.ConcurrencyLimit = *configuration.ConcurrencyLimit
	}
	if configuration.BatchSize != nil {
		applied.BatchSize = *configuration.BatchSize
	}
	if configuration.UseGitignore != nil {
		applied.UseGitignore = *configuration.UseGitignore
	}
	if configuration.UseDefaultFilters != nil {
		applied.UseDefaultFilters = *configuration.UseDefaultFilters
	}
	return applied
}
