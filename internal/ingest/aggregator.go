package ingest

import (
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gitdigest/gitdigest/internal/tokenizer"
	"github.com/gitdigest/gitdigest/internal/types"
)

// aggregator folds file entries, in candidate order, into the directory tree,
// the content sections and the summary counters. It is strictly sequential;
// determinism follows from the fold order alone.
type aggregator struct {
	rootNode       *types.DirectoryNode
	directoryNodes map[string]*types.DirectoryNode
	sections       []types.ContentSection
	summary        types.Summary
}

func newAggregator(rootName string) *aggregator {
	rootNode := &types.DirectoryNode{
		Name: rootName,
		Path: ".",
		Type: types.NodeTypeDirectory,
	}
	return &aggregator{
		rootNode:       rootNode,
		directoryNodes: map[string]*types.DirectoryNode{".": rootNode},
		summary:        types.Summary{Languages: map[string]int{}},
	}
}

// apply folds one classified entry into the aggregate state.
func (aggregate *aggregator) apply(entry types.FileEntry) {
	aggregate.summary.FilesProcessed++

	switch entry.Outcome {
	case types.OutcomeIncluded:
		aggregate.summary.FilesIncluded++
		aggregate.summary.BytesIncluded += entry.Size
		aggregate.summary.BytesTotal += entry.Size
		if entry.Language != "" {
			aggregate.summary.Languages[entry.Language]++
		}
		aggregate.sections = append(aggregate.sections, types.ContentSection{
			RelativePath: entry.RelativePath,
			Language:     entry.Language,
			Text:         string(entry.Content),
		})
		aggregate.insertFileNode(entry.RelativePath, types.NodeTypeFile, entry.Size)
	case types.OutcomeSkippedSize:
		aggregate.summary.FilesSkippedSize++
		aggregate.summary.BytesTotal += entry.Size
		aggregate.insertFileNode(entry.RelativePath, types.NodeTypeFile, entry.Size)
	case types.OutcomeSkippedBinary:
		aggregate.summary.FilesSkippedBinary++
		aggregate.summary.BytesTotal += entry.Size
		aggregate.insertFileNode(entry.RelativePath, types.NodeTypeBinary, entry.Size)
	case types.OutcomeError:
		aggregate.summary.FileErrors++
		aggregate.insertFileNode(entry.RelativePath, types.NodeTypeFile, entry.Size)
	}
}

// seal finalizes ordering, renders the textual projections and stamps the run
// outcome onto the result.
func (aggregate *aggregator) seal(repo types.RepoIdentity, outcome types.RunOutcome, tokenCounter tokenizer.Counter, duration time.Duration) *types.IngestResult {
	aggregate.rootNode.SortChildren()
	sort.Slice(aggregate.sections, func(firstIndex, secondIndex int) bool {
		return aggregate.sections[firstIndex].RelativePath < aggregate.sections[secondIndex].RelativePath
	})
	aggregate.summary.Truncated = outcome.Kind == types.RunTruncated || outcome.Kind == types.RunTimedOut

	result := &types.IngestResult{
		ID:             uuid.New(),
		Repo:           repo,
		Summary:        aggregate.summary,
		Tree:           aggregate.rootNode,
		TreeText:       drawTree(aggregate.rootNode),
		Content:        aggregate.sections,
		Status:         outcome.Status(),
		Outcome:        outcome,
		DurationMillis: duration.Milliseconds(),
	}
	result.EstimatedTokens = tokenizer.Estimate(tokenCounter, result.ContentText())
	result.SummaryText = formatSummary(result)
	return result
}

// insertFileNode attaches a leaf under its (possibly synthesized) parent chain.
func (aggregate *aggregator) insertFileNode(relativePath string, nodeType string, sizeBytes int64) {
	parentNode := aggregate.ensureDirectoryNode(path.Dir(relativePath))
	parentNode.Children = append(parentNode.Children, &types.DirectoryNode{
		Name:      path.Base(relativePath),
		Path:      relativePath,
		Type:      nodeType,
		SizeBytes: sizeBytes,
	})
}

func (aggregate *aggregator) ensureDirectoryNode(directoryPath string) *types.DirectoryNode {
	if directoryPath == "." || directoryPath == "" || directoryPath == "/" {
		return aggregate.rootNode
	}
	if existingNode, nodeExists := aggregate.directoryNodes[directoryPath]; nodeExists {
		return existingNode
	}
	parentNode := aggregate.ensureDirectoryNode(path.Dir(directoryPath))
	createdNode := &types.DirectoryNode{
		Name: path.Base(directoryPath),
		Path: directoryPath,
		Type: types.NodeTypeDirectory,
	}
	parentNode.Children = append(parentNode.Children, createdNode)
	aggregate.directoryNodes[directoryPath] = createdNode
	return createdNode
}
