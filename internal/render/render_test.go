package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/gitdigest/gitdigest/internal/types"
)

func buildTestResult() *types.IngestResult {
	return &types.IngestResult{
		ID:   uuid.New(),
		Repo: types.RepoIdentity{Host: "github.com", Owner: "octocat", Name: "widget"},
		Summary: types.Summary{
			FilesProcessed: 2,
			FilesIncluded:  2,
			BytesIncluded:  25,
			BytesTotal:     25,
			Languages:      map[string]int{"Go": 1},
		},
		SummaryText: "Repository: octocat/widget\nFiles processed: 2\n",
		Tree:        &types.DirectoryNode{Name: "widget", Path: ".", Type: types.NodeTypeDirectory},
		TreeText:    "└── widget/\n    ├── main.go\n    └── notes.txt\n",
		Content: []types.ContentSection{
			{RelativePath: "main.go", Language: "Go", Text: "package main\n"},
			{RelativePath: "notes.txt", Text: "notes\n"},
		},
		Status:         types.StatusCompleted,
		Outcome:        types.RunOutcome{Kind: types.RunCompleted},
		DurationMillis: 7,
	}
}

// TestDigestRawLayout verifies summary, tree, and framed content in order.
func TestDigestRawLayout(testingHandle *testing.T) {
	result := buildTestResult()
	rendered, renderError := Digest(result, types.FormatRaw)
	if renderError != nil {
		testingHandle.Fatalf("Digest failed: %v", renderError)
	}

	summaryIndex := strings.Index(rendered, "Repository: octocat/widget")
	treeIndex := strings.Index(rendered, "└── widget/")
	contentIndex := strings.Index(rendered, "main.go:\n"+strings.Repeat("=", 48))
	if summaryIndex < 0 || treeIndex < 0 || contentIndex < 0 {
		testingHandle.Fatalf("missing digest parts:\n%s", rendered)
	}
	if !(summaryIndex < treeIndex && treeIndex < contentIndex) {
		testingHandle.Fatalf("parts out of order: summary=%d tree=%d content=%d", summaryIndex, treeIndex, contentIndex)
	}
}

// TestDigestMarkdownFences verifies headings and language-hinted fences.
func TestDigestMarkdownFences(testingHandle *testing.T) {
	result := buildTestResult()
	rendered, renderError := Digest(result, types.FormatMarkdown)
	if renderError != nil {
		testingHandle.Fatalf("Digest failed: %v", renderError)
	}

	requiredFragments := []string{
		"# octocat/widget",
		"## Summary",
		"## Directory structure",
		"## Files",
		"### main.go",
		"```go\npackage main\n```",
		"### notes.txt",
		"```\nnotes\n```",
	}
	for _, requiredFragment := range requiredFragments {
		if !strings.Contains(rendered, requiredFragment) {
			testingHandle.Fatalf("markdown output misses %q:\n%s", requiredFragment, rendered)
		}
	}
}

// TestDigestJSONRoundTrip verifies that the JSON projection parses and keeps
// the structured fields.
func TestDigestJSONRoundTrip(testingHandle *testing.T) {
	result := buildTestResult()
	rendered, renderError := Digest(result, types.FormatJSON)
	if renderError != nil {
		testingHandle.Fatalf("Digest failed: %v", renderError)
	}

	var decoded map[string]interface{}
	if unmarshalError := json.Unmarshal([]byte(rendered), &decoded); unmarshalError != nil {
		testingHandle.Fatalf("output is not valid JSON: %v", unmarshalError)
	}
	if decoded["status"] != string(types.StatusCompleted) {
		testingHandle.Fatalf("unexpected status field: %v", decoded["status"])
	}
	if _, hasTree := decoded["tree"]; !hasTree {
		testingHandle.Fatal("missing tree field")
	}
	if _, hasSummary := decoded["summary"]; !hasSummary {
		testingHandle.Fatal("missing summary field")
	}
}

// TestDigestRejectsUnknownFormat verifies the error path.
func TestDigestRejectsUnknownFormat(testingHandle *testing.T) {
	if _, renderError := Digest(buildTestResult(), "yaml"); renderError == nil {
		testingHandle.Fatal("expected an error for an unsupported format")
	}
}

// TestDigestEmptyFormatDefaultsToRaw verifies the fallback.
func TestDigestEmptyFormatDefaultsToRaw(testingHandle *testing.T) {
	rendered, renderError := Digest(buildTestResult(), "")
	if renderError != nil {
		testingHandle.Fatalf("Digest failed: %v", renderError)
	}
	if !strings.Contains(rendered, "└── widget/") {
		testingHandle.Fatal("expected raw layout for empty format")
	}
}
