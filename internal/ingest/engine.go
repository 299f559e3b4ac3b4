// Package ingest implements the core pipeline: pattern-pruned traversal,
// concurrency-bounded file reads under resource ceilings, and deterministic
// aggregation into a sealed result.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gitdigest/gitdigest/internal/config"
	"github.com/gitdigest/gitdigest/internal/pattern"
	"github.com/gitdigest/gitdigest/internal/tokenizer"
	"github.com/gitdigest/gitdigest/internal/types"
	"github.com/gitdigest/gitdigest/internal/utils"
)

const (
	errorAbsolutePathFormat  = "getting absolute path for %s: %w"
	errorRootNotDirectory    = "root path %s is not a directory"
	errorStatRootFormat      = "stat root path %s: %w"
	timedOutReason           = "run deadline exceeded"
	warningReadDirFormat     = "skipping unreadable directory"
	warningReadIgnoreFormat  = "skipping unreadable ignore file"
	discoveryCompleteMessage = "path discovery completed"
	readsCompleteMessage     = "file processing completed"
)

// Engine walks a root path under RuleSet guidance and produces the sealed
// IngestResult. Rules and Config are read-only for the duration of a run.
type Engine struct {
	Rules        *pattern.RuleSet
	Config       config.ScanConfig
	TokenCounter tokenizer.Counter
	Logger       *zap.Logger

	readFile func(string) ([]byte, error)
}

// NewEngine constructs an engine for one ingestion run.
func NewEngine(ruleSet *pattern.RuleSet, scanConfiguration config.ScanConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Rules:    ruleSet,
		Config:   scanConfiguration,
		Logger:   logger,
		readFile: os.ReadFile,
	}
}

// candidateFile is a traversal survivor awaiting its read.
type candidateFile struct {
	absolutePath string
	relativePath string
	size         int64
}

// walkTally counts paths dropped during traversal.
type walkTally struct {
	patternSkipped int
	depthPruned    int
}

// Run ingests the tree rooted at rootPath. Per-file failures never abort the
// run; only an unusable root or a malformed ignore-file pattern is fatal.
// Ceiling and timeout breaches seal a partial result instead of failing.
func (engine *Engine) Run(parentContext context.Context, rootPath string, repo types.RepoIdentity) (*types.IngestResult, error) {
	startTime := time.Now()
	if parentContext == nil {
		parentContext = context.Background()
	}

	absoluteRootPath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, rootPath, absolutePathError)
	}
	rootInformation, rootStatError := os.Stat(absoluteRootPath)
	if rootStatError != nil {
		return nil, fmt.Errorf(errorStatRootFormat, absoluteRootPath, rootStatError)
	}
	if !rootInformation.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectory, absoluteRootPath)
	}

	runContext, cancelRun := context.WithTimeout(parentContext, engine.Config.Timeout)
	defer cancelRun()

	discoveryStart := time.Now()
	candidates, tally, walkError := engine.collectCandidates(absoluteRootPath)
	if walkError != nil {
		return nil, walkError
	}
	sort.Slice(candidates, func(firstIndex, secondIndex int) bool {
		return candidates[firstIndex].relativePath < candidates[secondIndex].relativePath
	})
	engine.Logger.Info(discoveryCompleteMessage,
		zap.Int("candidates", len(candidates)),
		zap.Int("patternSkipped", tally.patternSkipped),
		zap.Duration("elapsed", time.Since(discoveryStart)))

	aggregate := newAggregator(filepath.Base(absoluteRootPath))
	aggregate.summary.FilesSkippedPattern = tally.patternSkipped

	outcome := types.RunOutcome{Kind: types.RunCompleted}
	includedCount := 0
	var includedBytes int64
	foldedCount := 0

	readStart := time.Now()
batchLoop:
	for batchStart := 0; batchStart < len(candidates); batchStart += engine.Config.BatchSize {
		if runContext.Err() != nil {
			outcome = interruptionOutcome(parentContext)
			break
		}

		batchEnd := batchStart + engine.Config.BatchSize
		if batchEnd > len(candidates) {
			batchEnd = len(candidates)
		}
		batch := candidates[batchStart:batchEnd]
		entries := make([]types.FileEntry, len(batch))

		group, groupContext := errgroup.WithContext(runContext)
		group.SetLimit(engine.Config.ConcurrencyLimit)
		for entryIndex := range batch {
			group.Go(func() error {
				if groupContext.Err() != nil {
					return nil
				}
				entries[entryIndex] = engine.processFile(batch[entryIndex])
				return nil
			})
		}
		_ = group.Wait()

		for entryIndex := range entries {
			entry := entries[entryIndex]
			if entry.Outcome == "" {
				outcome = interruptionOutcome(parentContext)
				break batchLoop
			}
			if entry.Outcome == types.OutcomeIncluded {
				if includedCount+1 > engine.Config.MaxFiles {
					outcome = types.RunOutcome{Kind: types.RunTruncated, Limit: types.LimitFileCount}
					break batchLoop
				}
				if includedBytes+entry.Size > engine.Config.MaxTotalSize {
					outcome = types.RunOutcome{Kind: types.RunTruncated, Limit: types.LimitTotalSize}
					break batchLoop
				}
				includedCount++
				includedBytes += entry.Size
			}
			aggregate.apply(entry)
			foldedCount++
		}
	}
	engine.Logger.Info(readsCompleteMessage,
		zap.Int("folded", foldedCount),
		zap.Int("included", includedCount),
		zap.Duration("elapsed", time.Since(readStart)))

	if foldedCount < len(candidates) {
		aggregate.summary.FilesNotProcessed = len(candidates) - foldedCount
	}
	return aggregate.seal(repo, outcome, engine.TokenCounter, time.Since(startTime)), nil
}

// interruptionOutcome distinguishes caller cancellation from deadline expiry.
func interruptionOutcome(parentContext context.Context) types.RunOutcome {
	if parentContext.Err() != nil {
		return types.RunOutcome{Kind: types.RunAborted, Reason: parentContext.Err().Error()}
	}
	return types.RunOutcome{Kind: types.RunTimedOut, Reason: timedOutReason}
}

// collectCandidates performs the synchronous pruned walk. Pattern decisions
// and ignore-file scoping happen here, before any read fans out.
func (engine *Engine) collectCandidates(absoluteRootPath string) ([]candidateFile, walkTally, error) {
	var candidates []candidateFile
	var tally walkTally
	walkError := engine.walkDirectory(absoluteRootPath, absoluteRootPath, 0, &candidates, &tally)
	return candidates, tally, walkError
}

func (engine *Engine) walkDirectory(currentDirectoryPath string, rootPath string, depth int, candidates *[]candidateFile, tally *walkTally) error {
	if engine.Config.UseGitignore {
		ignoreLines, ignoreReadError := readIgnoreLines(filepath.Join(currentDirectoryPath, utils.GitIgnoreFileName))
		if ignoreReadError != nil {
			engine.Logger.Warn(warningReadIgnoreFormat,
				zap.String("directory", currentDirectoryPath),
				zap.Error(ignoreReadError))
		} else if ignoreLines != nil {
			relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, rootPath)
			if pushError := engine.Rules.PushIgnoreRules(relativeDirectory, ignoreLines); pushError != nil {
				return pushError
			}
			defer engine.Rules.PopIgnoreRules()
		}
	}

	directoryEntries, readDirectoryError := os.ReadDir(currentDirectoryPath)
	if readDirectoryError != nil {
		if depth == 0 {
			return fmt.Errorf("reading root directory %s: %w", currentDirectoryPath, readDirectoryError)
		}
		engine.Logger.Warn(warningReadDirFormat,
			zap.String("directory", currentDirectoryPath),
			zap.Error(readDirectoryError))
		return nil
	}

	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		childPath := filepath.Join(currentDirectoryPath, entryName)
		relativeChildPath := utils.RelativePathOrSelf(childPath, rootPath)

		if directoryEntry.IsDir() {
			if entryName == utils.GitDirectoryName {
				continue
			}
			if depth+1 > engine.Config.MaxDirectoryDepth {
				tally.depthPruned++
				continue
			}
			if engine.Rules.Decide(relativeChildPath, true) != pattern.Include {
				continue
			}
			if walkError := engine.walkDirectory(childPath, rootPath, depth+1, candidates, tally); walkError != nil {
				return walkError
			}
			continue
		}

		if !directoryEntry.Type().IsRegular() {
			continue
		}
		if entryName == utils.GitIgnoreFileName {
			continue
		}
		if engine.Rules.Decide(relativeChildPath, false) != pattern.Include {
			tally.patternSkipped++
			continue
		}

		var entrySize int64
		if entryInformation, informationError := directoryEntry.Info(); informationError == nil {
			entrySize = entryInformation.Size()
		}
		*candidates = append(*candidates, candidateFile{
			absolutePath: childPath,
			relativePath: relativeChildPath,
			size:         entrySize,
		})
	}
	return nil
}

// processFile reads and classifies one candidate. It is the only suspension
// point of the pipeline and never touches shared mutable state.
func (engine *Engine) processFile(candidate candidateFile) types.FileEntry {
	entry := types.FileEntry{RelativePath: candidate.relativePath, Size: candidate.size}

	if candidate.size > engine.Config.MaxFileSize {
		entry.Outcome = types.OutcomeSkippedSize
		return entry
	}
	if utils.HasBinaryExtension(candidate.relativePath) {
		entry.IsBinary = true
		entry.Outcome = types.OutcomeSkippedBinary
		return entry
	}

	fileBytes, readError := engine.readFile(candidate.absolutePath)
	if readError != nil {
		entry.Outcome = types.OutcomeError
		entry.Err = readError
		return entry
	}
	entry.Size = int64(len(fileBytes))

	if utils.IsBinary(fileBytes) {
		entry.IsBinary = true
		entry.Outcome = types.OutcomeSkippedBinary
		return entry
	}

	entry.Language = utils.DetectLanguage(candidate.relativePath, fileBytes)
	entry.Content = fileBytes
	entry.Outcome = types.OutcomeIncluded
	return entry
}

// readIgnoreLines returns the lines of an ignore file, nil when it is absent.
func readIgnoreLines(ignoreFilePath string) ([]string, error) {
	fileBytes, readError := os.ReadFile(ignoreFilePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil, nil
		}
		return nil, readError
	}
	return splitLines(string(fileBytes)), nil
}

func splitLines(content string) []string {
	var lines []string
	currentStart := 0
	for characterIndex := 0; characterIndex < len(content); characterIndex++ {
		if content[characterIndex] == '\n' {
			lines = append(lines, trimCarriageReturn(content[currentStart:characterIndex]))
			currentStart = characterIndex + 1
		}
	}
	if currentStart < len(content) {
		lines = append(lines, trimCarriageReturn(content[currentStart:]))
	}
	return lines
}

func trimCarriageReturn(line string) string {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}
	return line
}
