package pattern

import (
	"errors"
	"testing"
)

// buildRuleSet compiles explicit patterns, failing the test on error.
func buildRuleSet(testingHandle *testing.T, includePatterns []string, excludePatterns []string) *RuleSet {
	testingHandle.Helper()
	ruleSet, buildError := NewRuleSet(includePatterns, excludePatterns)
	if buildError != nil {
		testingHandle.Fatalf("NewRuleSet failed: %v", buildError)
	}
	return ruleSet
}

// TestDecideRootAlwaysIncluded verifies that the traversal root is never filtered.
func TestDecideRootAlwaysIncluded(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, []string{"*"})
	if decision := ruleSet.Decide(".", true); decision != Include {
		testingHandle.Fatalf("expected root to be included, got %v", decision)
	}
}

// TestDecideExplicitExcludes verifies glob exclusion at any depth.
func TestDecideExplicitExcludes(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, []string{"*.log"})

	testCases := []struct {
		name         string
		relativePath string
		isDirectory  bool
		expected     Decision
	}{
		{name: "top level match", relativePath: "app.log", isDirectory: false, expected: Exclude},
		{name: "nested match", relativePath: "logs/app.log", isDirectory: false, expected: Exclude},
		{name: "non matching file", relativePath: "main.go", isDirectory: false, expected: Include},
		{name: "non matching directory", relativePath: "logs", isDirectory: true, expected: Include},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subtestHandle *testing.T) {
			if decision := ruleSet.Decide(testCase.relativePath, testCase.isDirectory); decision != testCase.expected {
				subtestHandle.Fatalf("Decide(%q) = %v, want %v", testCase.relativePath, decision, testCase.expected)
			}
		})
	}
}

// TestDecideIncludeRestriction verifies that an include list restricts files
// while leaving directories traversable.
func TestDecideIncludeRestriction(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, []string{"*.go"}, nil)

	testCases := []struct {
		name         string
		relativePath string
		isDirectory  bool
		expected     Decision
	}{
		{name: "matching file", relativePath: "main.go", isDirectory: false, expected: Include},
		{name: "matching nested file", relativePath: "internal/util.go", isDirectory: false, expected: Include},
		{name: "non matching file", relativePath: "README.md", isDirectory: false, expected: Exclude},
		{name: "directory stays traversable", relativePath: "internal", isDirectory: true, expected: Include},
	}
	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(subtestHandle *testing.T) {
			if decision := ruleSet.Decide(testCase.relativePath, testCase.isDirectory); decision != testCase.expected {
				subtestHandle.Fatalf("Decide(%q) = %v, want %v", testCase.relativePath, decision, testCase.expected)
			}
		})
	}
}

// TestDecideExcludeAppliesInsideIncludedScope verifies that a file matching
// both lists is still dropped by the exclusion.
func TestDecideExcludeAppliesInsideIncludedScope(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, []string{"*.go"}, []string{"vendor/"})
	if decision := ruleSet.Decide("vendor/lib.go", false); decision != Exclude {
		testingHandle.Fatalf("expected vendored file to be excluded, got %v", decision)
	}
	if decision := ruleSet.Decide("cmd/main.go", false); decision != Include {
		testingHandle.Fatalf("expected non-vendored file to be included, got %v", decision)
	}
}

// TestDecideDirectoryOnlyPattern verifies trailing-slash semantics.
func TestDecideDirectoryOnlyPattern(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, []string{"build/"})

	if decision := ruleSet.Decide("build", true); decision != ExcludeSubtree {
		testingHandle.Fatalf("expected directory to be pruned, got %v", decision)
	}
	if decision := ruleSet.Decide("build/output.txt", false); decision != Exclude {
		testingHandle.Fatalf("expected file under pruned directory to be excluded, got %v", decision)
	}
	if decision := ruleSet.Decide("build", false); decision != Include {
		testingHandle.Fatalf("expected plain file named like the directory to be included, got %v", decision)
	}
}

// TestDecideAnchoredPattern verifies that a leading slash anchors the pattern
// to the rule scope.
func TestDecideAnchoredPattern(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, []string{"/docs"})

	if decision := ruleSet.Decide("docs", true); decision != ExcludeSubtree {
		testingHandle.Fatalf("expected top-level docs to be pruned, got %v", decision)
	}
	if decision := ruleSet.Decide("project/docs", true); decision != Include {
		testingHandle.Fatalf("expected nested docs to stay included, got %v", decision)
	}
}

// TestIgnoreLayerNegation verifies re-admission through a later negated line.
func TestIgnoreLayerNegation(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, nil)
	if pushError := ruleSet.PushIgnoreRules(".", []string{"*.log", "!keep.log"}); pushError != nil {
		testingHandle.Fatalf("PushIgnoreRules failed: %v", pushError)
	}
	defer ruleSet.PopIgnoreRules()

	if decision := ruleSet.Decide("keep.log", false); decision != Include {
		testingHandle.Fatalf("expected negated file to be re-admitted, got %v", decision)
	}
	if decision := ruleSet.Decide("other.log", false); decision != Exclude {
		testingHandle.Fatalf("expected non-negated file to stay excluded, got %v", decision)
	}
}

// TestIgnoreLayerNearestWins verifies that a deeper ignore file overrides an
// outer one for paths inside its scope.
func TestIgnoreLayerNearestWins(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, nil)
	if pushError := ruleSet.PushIgnoreRules(".", []string{"*.tmp"}); pushError != nil {
		testingHandle.Fatalf("PushIgnoreRules root failed: %v", pushError)
	}
	if pushError := ruleSet.PushIgnoreRules("sub", []string{"!special.tmp"}); pushError != nil {
		testingHandle.Fatalf("PushIgnoreRules nested failed: %v", pushError)
	}

	if decision := ruleSet.Decide("sub/special.tmp", false); decision != Include {
		testingHandle.Fatalf("expected nested negation to win, got %v", decision)
	}
	if decision := ruleSet.Decide("sub/other.tmp", false); decision != Exclude {
		testingHandle.Fatalf("expected outer exclusion to apply, got %v", decision)
	}
	if decision := ruleSet.Decide("top.tmp", false); decision != Exclude {
		testingHandle.Fatalf("expected path outside nested scope to stay excluded, got %v", decision)
	}

	ruleSet.PopIgnoreRules()
	if decision := ruleSet.Decide("sub/special.tmp", false); decision != Exclude {
		testingHandle.Fatalf("expected popped layer to stop applying, got %v", decision)
	}
	ruleSet.PopIgnoreRules()
	if decision := ruleSet.Decide("top.tmp", false); decision != Include {
		testingHandle.Fatalf("expected empty rule set to include everything, got %v", decision)
	}
}

// TestExplicitNegationOverridesIgnoreLayers verifies that an explicit negated
// exclusion takes precedence over ignore-file rules.
func TestExplicitNegationOverridesIgnoreLayers(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, []string{"!important.log"})
	if pushError := ruleSet.PushIgnoreRules(".", []string{"*.log"}); pushError != nil {
		testingHandle.Fatalf("PushIgnoreRules failed: %v", pushError)
	}
	defer ruleSet.PopIgnoreRules()

	if decision := ruleSet.Decide("important.log", false); decision != Include {
		testingHandle.Fatalf("expected explicit negation to win, got %v", decision)
	}
	if decision := ruleSet.Decide("noise.log", false); decision != Exclude {
		testingHandle.Fatalf("expected ignore rule to apply, got %v", decision)
	}
}

// TestPushIgnoreRulesSkipsCommentsAndBlanks verifies ignore-file line filtering.
func TestPushIgnoreRulesSkipsCommentsAndBlanks(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, nil, nil)
	lines := []string{"# a comment", "", "   ", "*.bak"}
	if pushError := ruleSet.PushIgnoreRules(".", lines); pushError != nil {
		testingHandle.Fatalf("PushIgnoreRules failed: %v", pushError)
	}
	defer ruleSet.PopIgnoreRules()

	if decision := ruleSet.Decide("old.bak", false); decision != Exclude {
		testingHandle.Fatalf("expected pattern line to apply, got %v", decision)
	}
	if decision := ruleSet.Decide("# a comment", false); decision != Include {
		testingHandle.Fatalf("expected comment line to be ignored, got %v", decision)
	}
}

// TestNewRuleSetRejectsMalformedPattern verifies that compilation fails fast
// with a typed error.
func TestNewRuleSetRejectsMalformedPattern(testingHandle *testing.T) {
	_, buildError := NewRuleSet(nil, []string{"[invalid"})
	if buildError == nil {
		testingHandle.Fatal("expected an error for a malformed pattern")
	}
	var syntaxError *SyntaxError
	if !errors.As(buildError, &syntaxError) {
		testingHandle.Fatalf("expected *SyntaxError, got %T", buildError)
	}
	if syntaxError.Pattern != "[invalid" {
		testingHandle.Fatalf("unexpected pattern in error: %q", syntaxError.Pattern)
	}
}

// TestDecideIsPure verifies that repeated evaluation of the same path yields
// the same verdict.
func TestDecideIsPure(testingHandle *testing.T) {
	ruleSet := buildRuleSet(testingHandle, []string{"*.go"}, []string{"*_test.go"})
	firstDecision := ruleSet.Decide("pkg/parser_test.go", false)
	for iteration := 0; iteration < 100; iteration++ {
		if decision := ruleSet.Decide("pkg/parser_test.go", false); decision != firstDecision {
			testingHandle.Fatalf("decision changed on iteration %d: %v != %v", iteration, decision, firstDecision)
		}
	}
	if firstDecision != Exclude {
		testingHandle.Fatalf("expected test file to be excluded, got %v", firstDecision)
	}
}
