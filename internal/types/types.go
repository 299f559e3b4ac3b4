// Package types defines the cross-package data structures used by the gitdigest CLI.
package types

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
	NodeTypeBinary    = "binary"

	FormatRaw      = "raw"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// Outcome classifies how the ingestion engine disposed of a single file.
type Outcome string

const (
	OutcomeIncluded       Outcome = "included"
	OutcomeSkippedSize    Outcome = "skipped_size"
	OutcomeSkippedBinary  Outcome = "skipped_binary"
	OutcomeSkippedPattern Outcome = "skipped_pattern"
	OutcomeError          Outcome = "error"
)

// Status describes the terminal state of an ingestion run.
type Status string

const (
	StatusCompleted          Status = "completed"
	StatusPartiallyCompleted Status = "partially_completed"
	StatusTimedOut           Status = "timed_out"
	StatusFailed             Status = "failed"
)

// LimitKind identifies which resource ceiling truncated a run.
type LimitKind string

const (
	LimitFileCount LimitKind = "file_count"
	LimitTotalSize LimitKind = "total_size"
)

// RunOutcomeKind classifies how an ingestion run terminated.
type RunOutcomeKind string

const (
	RunCompleted RunOutcomeKind = "completed"
	RunTruncated RunOutcomeKind = "truncated"
	RunTimedOut  RunOutcomeKind = "timed_out"
	RunAborted   RunOutcomeKind = "aborted"
)

// RunOutcome is the final verdict reported by the ingestion engine.
type RunOutcome struct {
	Kind   RunOutcomeKind `json:"kind"`
	Limit  LimitKind      `json:"limit,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Status maps the run outcome onto the user-visible result status.
func (outcome RunOutcome) Status() Status {
	switch outcome.Kind {
	case RunTimedOut:
		return StatusTimedOut
	case RunTruncated, RunAborted:
		return StatusPartiallyCompleted
	default:
		return StatusCompleted
	}
}

// RepoIdentity describes the repository a local checkout was produced from.
// The ingestion core never dereferences the URL; it is identity metadata only.
type RepoIdentity struct {
	URL      string `json:"url,omitempty"`
	Host     string `json:"host,omitempty"`
	Owner    string `json:"owner,omitempty"`
	Name     string `json:"name"`
	Revision string `json:"revision,omitempty"`
}

// ShortName returns the owner/name slug, or just the name when no owner is known.
func (identity RepoIdentity) ShortName() string {
	if identity.Owner == "" {
		return identity.Name
	}
	return identity.Owner + "/" + identity.Name
}

// FileEntry is produced by the ingestion engine for a single candidate file
// and folded into the aggregate exactly once. Content is dropped after folding.
type FileEntry struct {
	RelativePath string
	Size         int64
	IsBinary     bool
	Language     string
	Content      []byte
	Outcome      Outcome
	Err          error
}

// DirectoryNode is one node of the assembled directory tree. Children are
// ordered directories first, then by name, so rendering is deterministic.
type DirectoryNode struct {
	Name      string           `json:"name"`
	Path      string           `json:"path"`
	Type      string           `json:"type"`
	SizeBytes int64            `json:"sizeBytes,omitempty"`
	Children  []*DirectoryNode `json:"children,omitempty"`
}

// SortChildren orders the node's children directories-first then by name,
// recursively, independent of insertion order.
func (node *DirectoryNode) SortChildren() {
	if node == nil {
		return
	}
	sort.SliceStable(node.Children, func(firstIndex, secondIndex int) bool {
		firstChild := node.Children[firstIndex]
		secondChild := node.Children[secondIndex]
		firstIsDirectory := firstChild.Type == NodeTypeDirectory
		secondIsDirectory := secondChild.Type == NodeTypeDirectory
		if firstIsDirectory != secondIsDirectory {
			return firstIsDirectory
		}
		return firstChild.Name < secondChild.Name
	})
	for _, childNode := range node.Children {
		childNode.SortChildren()
	}
}

// ContentSection is one file body within the digest content stream. Text
// holds the body alone; the raw framing is added when sections are joined.
type ContentSection struct {
	RelativePath string `json:"path"`
	Language     string `json:"language,omitempty"`
	Text         string `json:"text"`
}

const contentSectionSeparator = "================================================"

// Summary accumulates run counters. All fields grow monotonically while the
// run is in progress and freeze once the result is sealed.
type Summary struct {
	FilesProcessed      int            `json:"filesProcessed"`
	FilesIncluded       int            `json:"filesIncluded"`
	FilesSkippedSize    int            `json:"filesSkippedSize,omitempty"`
	FilesSkippedBinary  int            `json:"filesSkippedBinary,omitempty"`
	FilesSkippedPattern int            `json:"filesSkippedPattern,omitempty"`
	FilesNotProcessed   int            `json:"filesNotProcessed,omitempty"`
	FileErrors          int            `json:"fileErrors,omitempty"`
	BytesIncluded       int64          `json:"bytesIncluded"`
	BytesTotal          int64          `json:"bytesTotal"`
	Truncated           bool           `json:"truncated"`
	Languages           map[string]int `json:"languages,omitempty"`
}

// TopLanguages returns up to limit language names ordered by descending file
// count, ties broken by name.
func (summary Summary) TopLanguages(limit int) []string {
	type languageCount struct {
		name  string
		count int
	}
	counts := make([]languageCount, 0, len(summary.Languages))
	for languageName, fileCount := range summary.Languages {
		counts = append(counts, languageCount{name: languageName, count: fileCount})
	}
	sort.Slice(counts, func(firstIndex, secondIndex int) bool {
		if counts[firstIndex].count != counts[secondIndex].count {
			return counts[firstIndex].count > counts[secondIndex].count
		}
		return counts[firstIndex].name < counts[secondIndex].name
	})
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	names := make([]string, 0, len(counts))
	for _, entry := range counts {
		names = append(names, entry.name)
	}
	return names
}

// IngestResult is the sole handoff artifact to rendering. It is assembled
// incrementally by the aggregator and immutable once sealed.
type IngestResult struct {
	ID              uuid.UUID        `json:"id"`
	Repo            RepoIdentity     `json:"repository"`
	Summary         Summary          `json:"summary"`
	SummaryText     string           `json:"summaryText"`
	Tree            *DirectoryNode   `json:"tree"`
	TreeText        string           `json:"treeText"`
	Content         []ContentSection `json:"content"`
	Status          Status           `json:"status"`
	Outcome         RunOutcome       `json:"outcome"`
	EstimatedTokens int              `json:"estimatedTokens,omitempty"`
	DurationMillis  int64            `json:"durationMillis"`
}

// ContentText concatenates every content section into a single digest body,
// each section framed by its path and a separator line.
func (result *IngestResult) ContentText() string {
	var builder strings.Builder
	for _, section := range result.Content {
		builder.WriteString(section.RelativePath)
		builder.WriteString(":\n")
		builder.WriteString(contentSectionSeparator)
		builder.WriteString("\n")
		builder.WriteString(section.Text)
		builder.WriteString("\n\n")
	}
	return builder.String()
}
