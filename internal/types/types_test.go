package types

import (
	"reflect"
	"testing"
)

// TestRunOutcomeStatusMapping verifies the outcome to status projection.
func TestRunOutcomeStatusMapping(testingHandle *testing.T) {
	testCases := []struct {
		name     string
		outcome  RunOutcome
		expected Status
	}{
		{name: "completed", outcome: RunOutcome{Kind: RunCompleted}, expected: StatusCompleted},
		{name: "truncated", outcome: RunOutcome{Kind: RunTruncated, Limit: LimitFileCount}, expected: StatusPartiallyCompleted},
		{name: "timed out", outcome: RunOutcome{Kind: RunTimedOut}, expected: StatusTimedOut},
		{name: "aborted", outcome: RunOutcome{Kind: RunAborted}, expected: StatusPartiallyCompleted},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subtestHandle *testing.T) {
			if status := testCase.outcome.Status(); status != testCase.expected {
				subtestHandle.Fatalf("Status() = %s, want %s", status, testCase.expected)
			}
		})
	}
}

// TestSortChildrenOrdering verifies directory-first, then lexicographic order,
// applied recursively.
func TestSortChildrenOrdering(testingHandle *testing.T) {
	rootNode := &DirectoryNode{
		Name: "root",
		Type: NodeTypeDirectory,
		Children: []*DirectoryNode{
			{Name: "zz.txt", Type: NodeTypeFile},
			{Name: "beta", Type: NodeTypeDirectory, Children: []*DirectoryNode{
				{Name: "y.txt", Type: NodeTypeFile},
				{Name: "x.txt", Type: NodeTypeFile},
			}},
			{Name: "aa.txt", Type: NodeTypeFile},
			{Name: "alpha", Type: NodeTypeDirectory},
		},
	}
	rootNode.SortChildren()

	var topLevelNames []string
	for _, childNode := range rootNode.Children {
		topLevelNames = append(topLevelNames, childNode.Name)
	}
	expectedTopLevel := []string{"alpha", "beta", "aa.txt", "zz.txt"}
	if !reflect.DeepEqual(topLevelNames, expectedTopLevel) {
		testingHandle.Fatalf("top level order = %v, want %v", topLevelNames, expectedTopLevel)
	}
	if rootNode.Children[1].Children[0].Name != "x.txt" {
		testingHandle.Fatalf("nested children not sorted: %v", rootNode.Children[1].Children)
	}
}

// TestTopLanguages verifies ordering by count with name tie-breaks and the limit.
func TestTopLanguages(testingHandle *testing.T) {
	summary := Summary{Languages: map[string]int{"Go": 5, "Rust": 5, "Python": 9, "Shell": 1}}

	topThree := summary.TopLanguages(3)
	expected := []string{"Python", "Go", "Rust"}
	if !reflect.DeepEqual(topThree, expected) {
		testingHandle.Fatalf("TopLanguages(3) = %v, want %v", topThree, expected)
	}
	if all := summary.TopLanguages(0); len(all) != 4 {
		testingHandle.Fatalf("TopLanguages(0) returned %d entries, want 4", len(all))
	}
}

// TestShortName verifies the owner slug fallback.
func TestShortName(testingHandle *testing.T) {
	withOwner := RepoIdentity{Owner: "octocat", Name: "widget"}
	if withOwner.ShortName() != "octocat/widget" {
		testingHandle.Fatalf("unexpected short name: %q", withOwner.ShortName())
	}
	bare := RepoIdentity{Name: "widget"}
	if bare.ShortName() != "widget" {
		testingHandle.Fatalf("unexpected bare short name: %q", bare.ShortName())
	}
}
