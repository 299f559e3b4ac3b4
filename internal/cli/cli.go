// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gitdigest/gitdigest/internal/config"
	"github.com/gitdigest/gitdigest/internal/ingest"
	"github.com/gitdigest/gitdigest/internal/pattern"
	"github.com/gitdigest/gitdigest/internal/render"
	"github.com/gitdigest/gitdigest/internal/repoid"
	"github.com/gitdigest/gitdigest/internal/services/clipboard"
	"github.com/gitdigest/gitdigest/internal/tokenizer"
	"github.com/gitdigest/gitdigest/internal/types"
	"github.com/gitdigest/gitdigest/internal/utils"
)

const (
	rootUse              = "gitdigest"
	rootShortDescription = "gitdigest command line interface"
	rootLongDescription  = `gitdigest condenses a repository checkout into a single prompt-friendly digest.
It filters files through gitignore-style patterns, reads the survivors under
configurable resource ceilings, and renders a summary, a directory tree, and
the concatenated file contents. Use --format to select raw, md, or json output.`
	versionFlagName        = "version"
	versionFlagDescription = "display application version"
	versionTemplate        = "gitdigest version: %s\n"

	ingestUse              = "ingest [path]"
	ingestAlias            = "i"
	ingestShortDescription = "produce a digest of a repository checkout (" + ingestAlias + ")"
	ingestLongDescription  = `Walk the checkout at the given path (default ".") and produce its digest.
Pattern flags accept gitignore syntax; repeat a flag or separate patterns with commas.
Ceiling flags bound the run; a breached ceiling yields a partial, clearly marked digest.`
	ingestUsageExample = `  # Digest the current checkout as Markdown
  gitdigest ingest --format md

  # Only Go sources, excluding tests, at most 100 files
  gitdigest ingest --include "*.go" --exclude "*_test.go" --max-files 100 .

  # Write the digest to a file and copy it to the clipboard
  gitdigest ingest --output digest.txt --copy .`

	includeFlagName          = "include"
	excludeFlagName          = "exclude"
	maxFileSizeFlagName      = "max-file-size"
	maxFilesFlagName         = "max-files"
	maxTotalSizeFlagName     = "max-total-size"
	maxDepthFlagName         = "max-depth"
	timeoutFlagName          = "timeout"
	concurrencyFlagName      = "concurrency"
	batchSizeFlagName        = "batch-size"
	formatFlagName           = "format"
	tokensFlagName           = "tokens"
	modelFlagName            = "model"
	noGitignoreFlagName      = "no-gitignore"
	noDefaultFiltersFlagName = "no-default-filters"
	outputFlagName           = "output"
	copyFlagName             = "copy"
	repoURLFlagName          = "repo-url"
	configFlagName           = "config"

	includeFlagDescription          = "include only files matching these patterns"
	excludeFlagDescription          = "exclude files matching these patterns"
	maxFileSizeFlagDescription      = "skip files larger than this many bytes"
	maxFilesFlagDescription         = "stop including files after this many"
	maxTotalSizeFlagDescription     = "stop including files after this many total bytes"
	maxDepthFlagDescription         = "do not descend below this directory depth"
	timeoutFlagDescription          = "abandon the run after this many seconds"
	concurrencyFlagDescription      = "maximum number of files read at once"
	batchSizeFlagDescription        = "number of files dispatched per batch"
	formatFlagDescription           = "output format"
	tokensFlagDescription           = "include an estimated token count"
	modelFlagDescription            = "tokenizer model used for token counting"
	noGitignoreFlagDescription      = "do not apply .gitignore files"
	noDefaultFiltersFlagDescription = "do not apply the built-in exclude patterns"
	outputFlagDescription           = "write the digest to this file instead of stdout"
	copyFlagDescription             = "copy the digest to the system clipboard"
	repoURLFlagDescription          = "repository URL or owner/repo recorded in the digest"
	configFlagDescription           = "path to a configuration file"

	defaultPath               = "."
	defaultTokenizerModelName = "gpt-4o"
	outputFilePermissions     = 0o644

	invalidFormatMessage        = "invalid format value '%s'"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	warningClipboardFormat      = "copying digest to clipboard failed"
	runCompletedMessage         = "ingestion completed"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatMarkdown, types.FormatJSON:
		return true
	default:
		return false
	}
}

// Execute runs the gitdigest application.
func Execute(loggerInstance *zap.Logger) error {
	rootCommand := createRootCommand(loggerInstance)
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(loggerInstance *zap.Logger) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(createIngestCommand(loggerInstance))
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// ingestOptions stores the flag values of the ingest command.
type ingestOptions struct {
	includePatterns   []string
	excludePatterns   []string
	maxFileSize       int64
	maxFiles          int
	maxTotalSize      int64
	maxDirectoryDepth int
	timeoutSeconds    int
	concurrencyLimit  int
	batchSize         int
	outputFormat      string
	tokensEnabled     bool
	tokenizerModel    string
	disableGitignore  bool
	disableDefaults   bool
	outputFilePath    string
	copyToClipboard   bool
	repositoryURL     string
	configurationPath string
}

// createIngestCommand returns the ingest subcommand.
func createIngestCommand(loggerInstance *zap.Logger) *cobra.Command {
	var options ingestOptions

	ingestCommand := &cobra.Command{
		Use:     ingestUse,
		Aliases: []string{ingestAlias},
		Short:   ingestShortDescription,
		Long:    ingestLongDescription,
		Example: ingestUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			targetPath := defaultPath
			if len(arguments) == 1 {
				targetPath = arguments[0]
			}
			return runIngest(command, targetPath, options, loggerInstance)
		},
	}

	flags := ingestCommand.Flags()
	flags.StringArrayVar(&options.includePatterns, includeFlagName, nil, includeFlagDescription)
	flags.StringArrayVarP(&options.excludePatterns, excludeFlagName, "e", nil, excludeFlagDescription)
	flags.Int64Var(&options.maxFileSize, maxFileSizeFlagName, 0, maxFileSizeFlagDescription)
	flags.IntVar(&options.maxFiles, maxFilesFlagName, 0, maxFilesFlagDescription)
	flags.Int64Var(&options.maxTotalSize, maxTotalSizeFlagName, 0, maxTotalSizeFlagDescription)
	flags.IntVar(&options.maxDirectoryDepth, maxDepthFlagName, 0, maxDepthFlagDescription)
	flags.IntVar(&options.timeoutSeconds, timeoutFlagName, 0, timeoutFlagDescription)
	flags.IntVar(&options.concurrencyLimit, concurrencyFlagName, 0, concurrencyFlagDescription)
	flags.IntVar(&options.batchSize, batchSizeFlagName, 0, batchSizeFlagDescription)
	flags.StringVar(&options.outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	flags.BoolVar(&options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	flags.StringVar(&options.tokenizerModel, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	flags.BoolVar(&options.disableGitignore, noGitignoreFlagName, false, noGitignoreFlagDescription)
	flags.BoolVar(&options.disableDefaults, noDefaultFiltersFlagName, false, noDefaultFiltersFlagDescription)
	flags.StringVarP(&options.outputFilePath, outputFlagName, "o", "", outputFlagDescription)
	flags.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	flags.StringVar(&options.repositoryURL, repoURLFlagName, "", repoURLFlagDescription)
	flags.StringVar(&options.configurationPath, configFlagName, "", configFlagDescription)
	return ingestCommand
}

// runIngest resolves configuration, executes the ingestion run, and emits the
// rendered digest.
func runIngest(command *cobra.Command, targetPath string, options ingestOptions, loggerInstance *zap.Logger) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configurationPath,
	})
	if configurationError != nil {
		return configurationError
	}

	scanConfiguration, resolveError := resolveScanConfiguration(command, options, applicationConfiguration.Ingest)
	if resolveError != nil {
		return resolveError
	}

	outputFormat := strings.ToLower(options.outputFormat)
	if !command.Flags().Changed(formatFlagName) && applicationConfiguration.Ingest.Format != "" {
		outputFormat = strings.ToLower(applicationConfiguration.Ingest.Format)
	}
	if !isSupportedFormat(outputFormat) {
		return fmt.Errorf(invalidFormatMessage, outputFormat)
	}

	excludePatterns := scanConfiguration.ExcludePatterns
	if scanConfiguration.UseDefaultFilters {
		excludePatterns = append(excludePatterns, config.DefaultExcludePatterns()...)
	}
	ruleSet, ruleSetError := pattern.NewRuleSet(scanConfiguration.IncludePatterns, excludePatterns)
	if ruleSetError != nil {
		return ruleSetError
	}

	repositoryIdentity, identityError := resolveRepositoryIdentity(options.repositoryURL, targetPath)
	if identityError != nil {
		return identityError
	}

	engine := ingest.NewEngine(ruleSet, scanConfiguration, loggerInstance)
	if tokensRequested(command, options, applicationConfiguration.Ingest) {
		tokenCounter, _, counterError := tokenizer.NewCounter(resolveTokenizerModel(command, options, applicationConfiguration.Ingest))
		if counterError != nil {
			return counterError
		}
		engine.TokenCounter = tokenCounter
	}

	result, runError := engine.Run(command.Context(), targetPath, repositoryIdentity)
	if runError != nil {
		return runError
	}
	loggerInstance.Info(runCompletedMessage,
		zap.String("status", string(result.Status)),
		zap.Int("filesIncluded", result.Summary.FilesIncluded),
		zap.Int64("durationMillis", result.DurationMillis))

	renderedDigest, renderError := render.Digest(result, outputFormat)
	if renderError != nil {
		return renderError
	}

	if options.outputFilePath != "" {
		if writeError := os.WriteFile(options.outputFilePath, []byte(renderedDigest), outputFilePermissions); writeError != nil {
			return fmt.Errorf("writing digest to %s: %w", options.outputFilePath, writeError)
		}
	} else {
		fmt.Print(renderedDigest)
	}

	if clipboardRequested(command, options, applicationConfiguration.Ingest) {
		if copyError := clipboard.NewService().Copy(renderedDigest); copyError != nil {
			loggerInstance.Warn(warningClipboardFormat, zap.Error(copyError))
		}
	}
	return nil
}

// resolveScanConfiguration layers defaults, file configuration, environment
// overrides, and finally explicit flags into the run configuration.
func resolveScanConfiguration(command *cobra.Command, options ingestOptions, fileConfiguration config.IngestConfiguration) (config.ScanConfig, error) {
	scanConfiguration := fileConfiguration.Apply(config.DefaultScanConfig())

	scanConfiguration, environmentError := config.ApplyEnvironmentOverrides(scanConfiguration)
	if environmentError != nil {
		return config.ScanConfig{}, environmentError
	}

	flags := command.Flags()
	if flags.Changed(maxFileSizeFlagName) {
		scanConfiguration.MaxFileSize = options.maxFileSize
	}
	if flags.Changed(maxFilesFlagName) {
		scanConfiguration.MaxFiles = options.maxFiles
	}
	if flags.Changed(maxTotalSizeFlagName) {
		scanConfiguration.MaxTotalSize = options.maxTotalSize
	}
	if flags.Changed(maxDepthFlagName) {
		scanConfiguration.MaxDirectoryDepth = options.maxDirectoryDepth
	}
	if flags.Changed(timeoutFlagName) {
		scanConfiguration.Timeout = secondsToDuration(options.timeoutSeconds)
	}
	if flags.Changed(concurrencyFlagName) {
		scanConfiguration.ConcurrencyLimit = options.concurrencyLimit
	}
	if flags.Changed(batchSizeFlagName) {
		scanConfiguration.BatchSize = options.batchSize
	}
	if options.disableGitignore {
		scanConfiguration.UseGitignore = false
	}
	if options.disableDefaults {
		scanConfiguration.UseDefaultFilters = false
	}

	scanConfiguration.IncludePatterns = utils.DeduplicatePatterns(
		append(scanConfiguration.IncludePatterns, expandPatternFlags(options.includePatterns)...))
	scanConfiguration.ExcludePatterns = utils.DeduplicatePatterns(
		append(scanConfiguration.ExcludePatterns, expandPatternFlags(options.excludePatterns)...))

	if validationError := scanConfiguration.Validate(); validationError != nil {
		return config.ScanConfig{}, validationError
	}
	return scanConfiguration, nil
}

// expandPatternFlags flattens repeated flags whose values may themselves be
// comma-separated lists.
func expandPatternFlags(flagValues []string) []string {
	var patterns []string
	for _, flagValue := range flagValues {
		patterns = append(patterns, utils.SplitPatternList(flagValue)...)
	}
	return patterns
}

// resolveRepositoryIdentity prefers an explicit repository reference and falls
// back to identity derived from the checkout itself.
func resolveRepositoryIdentity(repositoryURL string, targetPath string) (types.RepoIdentity, error) {
	if repositoryURL == "" {
		return repoid.FromLocalPath(targetPath), nil
	}
	identity, parseError := repoid.ParseURL(repositoryURL)
	if parseError != nil {
		return types.RepoIdentity{}, parseError
	}
	identity.Revision = repoid.ResolveLocalRevision(targetPath)
	return identity, nil
}

func tokensRequested(command *cobra.Command, options ingestOptions, fileConfiguration config.IngestConfiguration) bool {
	if command.Flags().Changed(tokensFlagName) {
		return options.tokensEnabled
	}
	if fileConfiguration.Tokens.Enabled != nil {
		return *fileConfiguration.Tokens.Enabled
	}
	return false
}

func resolveTokenizerModel(command *cobra.Command, options ingestOptions, fileConfiguration config.IngestConfiguration) string {
	if command.Flags().Changed(modelFlagName) {
		return options.tokenizerModel
	}
	if fileConfiguration.Tokens.Model != "" {
		return fileConfiguration.Tokens.Model
	}
	return options.tokenizerModel
}

func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func clipboardRequested(command *cobra.Command, options ingestOptions, fileConfiguration config.IngestConfiguration) bool {
	if command.Flags().Changed(copyFlagName) {
		return options.copyToClipboard
	}
	if fileConfiguration.Clipboard != nil {
		return *fileConfiguration.Clipboard
	}
	return false
}
