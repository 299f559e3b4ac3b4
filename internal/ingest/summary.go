package ingest

import (
	"fmt"
	"strings"

	"github.com/gitdigest/gitdigest/internal/types"
	"github.com/gitdigest/gitdigest/internal/utils"
)

const topLanguageLimit = 5

// formatSummary renders the human-readable run summary from the sealed result.
func formatSummary(result *types.IngestResult) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "Repository: %s\n", result.Repo.ShortName())
	if result.Repo.Revision != "" {
		fmt.Fprintf(&builder, "Revision: %s\n", result.Repo.Revision)
	}
	fmt.Fprintf(&builder, "Files processed: %d\n", result.Summary.FilesProcessed)
	fmt.Fprintf(&builder, "Files included: %d\n", result.Summary.FilesIncluded)
	if result.Summary.FilesSkippedSize > 0 {
		fmt.Fprintf(&builder, "Files skipped (size): %d\n", result.Summary.FilesSkippedSize)
	}
	if result.Summary.FilesSkippedBinary > 0 {
		fmt.Fprintf(&builder, "Files skipped (binary): %d\n", result.Summary.FilesSkippedBinary)
	}
	if result.Summary.FilesSkippedPattern > 0 {
		fmt.Fprintf(&builder, "Files skipped (pattern): %d\n", result.Summary.FilesSkippedPattern)
	}
	if result.Summary.FileErrors > 0 {
		fmt.Fprintf(&builder, "File errors: %d\n", result.Summary.FileErrors)
	}
	if result.Summary.FilesNotProcessed > 0 {
		fmt.Fprintf(&builder, "Files not processed: %d\n", result.Summary.FilesNotProcessed)
	}
	fmt.Fprintf(&builder, "Total size: %s\n", utils.FormatFileSize(result.Summary.BytesTotal))
	if result.Repo.Host != "" {
		fmt.Fprintf(&builder, "Host: %s\n", result.Repo.Host)
	}
	if topLanguages := result.Summary.TopLanguages(topLanguageLimit); len(topLanguages) > 0 {
		fmt.Fprintf(&builder, "Languages: %s\n", strings.Join(topLanguages, ", "))
	}
	if result.EstimatedTokens > 0 {
		fmt.Fprintf(&builder, "Estimated tokens: %d\n", result.EstimatedTokens)
	}
	if result.Summary.Truncated {
		fmt.Fprintf(&builder, "Truncated: %s\n", truncationDetail(result.Outcome))
	}
	return builder.String()
}

func truncationDetail(outcome types.RunOutcome) string {
	switch outcome.Kind {
	case types.RunTruncated:
		return fmt.Sprintf("yes (%s limit reached)", outcome.Limit)
	case types.RunTimedOut:
		return "yes (timed out)"
	default:
		return "yes"
	}
}
