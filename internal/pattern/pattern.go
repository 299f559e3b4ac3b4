// Package pattern compiles include, exclude, and gitignore specifications into
// an ordered rule set and decides, per path, whether to descend or include.
package pattern

import (
	"fmt"
	"path"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Decision is the verdict for a single path.
type Decision int

const (
	// Include admits the path into the run.
	Include Decision = iota
	// Exclude drops the path but, for directories, still permits descending.
	Exclude
	// ExcludeSubtree drops a directory and forbids recursing into it.
	ExcludeSubtree
)

// Source identifies where a rule was declared.
type Source int

const (
	// SourceExplicit marks rules provided through CLI or configuration.
	SourceExplicit Source = iota
	// SourceIgnoreFile marks rules discovered in a directory's ignore file.
	SourceIgnoreFile
)

// negationPrefix marks a pattern that re-admits previously excluded paths.
const negationPrefix = "!"

// SyntaxError reports a malformed glob discovered during rule compilation.
// It is fatal: no traversal starts while the rule set cannot be built.
type SyntaxError struct {
	Pattern string
	Cause   error
}

// Error describes the malformed pattern.
func (syntaxError *SyntaxError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", syntaxError.Pattern, syntaxError.Cause)
}

// Unwrap exposes the underlying cause.
func (syntaxError *SyntaxError) Unwrap() error {
	return syntaxError.Cause
}

// Rule is one compiled pattern. Polarity, directory scoping, and evaluation
// order live here; the glob itself is matched with gitignore semantics.
type Rule struct {
	Pattern       string
	Negated       bool
	DirectoryOnly bool
	Anchored      bool
	Scope         string
	Source        Source

	matcher *gitignore.GitIgnore
}

// ruleLayer groups the rules of one ignore file, scoped to the directory that
// contains it and every descendant.
type ruleLayer struct {
	scope string
	rules []Rule
}

// RuleSet is an ordered collection of rules. Explicit rules are fixed at
// construction; ignore-file layers are pushed and popped by the traversal as
// it descends and ascends, so scoping never mutates global state.
type RuleSet struct {
	includeRules []Rule
	excludeRules []Rule
	layers       []ruleLayer
}

// NewRuleSet compiles explicit include and exclude pattern lists. A malformed
// pattern yields a *SyntaxError and no rule set.
func NewRuleSet(includePatterns []string, excludePatterns []string) (*RuleSet, error) {
	ruleSet := &RuleSet{}
	for _, rawPattern := range includePatterns {
		compiledRule, compileError := compileRule(rawPattern, "", SourceExplicit)
		if compileError != nil {
			return nil, compileError
		}
		if compiledRule == nil {
			continue
		}
		ruleSet.includeRules = append(ruleSet.includeRules, *compiledRule)
	}
	for _, rawPattern := range excludePatterns {
		compiledRule, compileError := compileRule(rawPattern, "", SourceExplicit)
		if compileError != nil {
			return nil, compileError
		}
		if compiledRule == nil {
			continue
		}
		ruleSet.excludeRules = append(ruleSet.excludeRules, *compiledRule)
	}
	return ruleSet, nil
}

// HasIncludePatterns reports whether an include scope restriction is active.
func (ruleSet *RuleSet) HasIncludePatterns() bool {
	return len(ruleSet.includeRules) > 0
}

// PushIgnoreRules compiles ignore-file lines scoped to scopeDirectory (a
// slash-relative path, "." or "" for the root) and places them on top of the
// layer stack. Blank lines and comments are dropped; malformed lines are
// fatal. An empty layer is still pushed so pops stay balanced.
func (ruleSet *RuleSet) PushIgnoreRules(scopeDirectory string, lines []string) error {
	if scopeDirectory == "." {
		scopeDirectory = ""
	}
	layer := ruleLayer{scope: scopeDirectory}
	for _, rawLine := range lines {
		trimmedLine := strings.TrimSpace(rawLine)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		compiledRule, compileError := compileRule(trimmedLine, scopeDirectory, SourceIgnoreFile)
		if compileError != nil {
			return compileError
		}
		if compiledRule == nil {
			continue
		}
		layer.rules = append(layer.rules, *compiledRule)
	}
	ruleSet.layers = append(ruleSet.layers, layer)
	return nil
}

// PopIgnoreRules removes the most recently pushed ignore-file layer.
func (ruleSet *RuleSet) PopIgnoreRules() {
	if len(ruleSet.layers) == 0 {
		return
	}
	ruleSet.layers = ruleSet.layers[:len(ruleSet.layers)-1]
}

// Decide returns the verdict for relativePath. The decision depends only on
// the compiled rules and the path's ancestry, never on traversal timing.
//
// Precedence, lowest to highest: ignore-file rules (nearest directory wins),
// explicit exclude rules, explicit include rules. A configured include list
// restricts the run to matching files; ignore-file layers are evaluated
// nearest-first with last-match-wins inside each layer, mirroring gitignore.
func (ruleSet *RuleSet) Decide(relativePath string, isDirectory bool) Decision {
	if relativePath == "." || relativePath == "" {
		return Include
	}
	normalizedPath := strings.TrimPrefix(strings.ReplaceAll(relativePath, "\\", "/"), "./")

	if !isDirectory && ruleSet.HasIncludePatterns() {
		if !anyRuleMatches(ruleSet.includeRules, normalizedPath, isDirectory) {
			return Exclude
		}
	}

	if excluded, matched := evaluateOrdered(ruleSet.excludeRules, normalizedPath, isDirectory); matched {
		return verdictDecision(excluded, isDirectory)
	}

	for layerIndex := len(ruleSet.layers) - 1; layerIndex >= 0; layerIndex-- {
		layer := ruleSet.layers[layerIndex]
		scopedPath, applies := scopeRelativePath(normalizedPath, layer.scope)
		if !applies {
			continue
		}
		if excluded, matched := evaluateOrdered(layer.rules, scopedPath, isDirectory); matched {
			return verdictDecision(excluded, isDirectory)
		}
	}

	return Include
}

func verdictDecision(excluded bool, isDirectory bool) Decision {
	if !excluded {
		return Include
	}
	if isDirectory {
		return ExcludeSubtree
	}
	return Exclude
}

// evaluateOrdered applies rules in declaration order with last-match-wins
// semantics. It reports whether the final matching rule excludes the path and
// whether any rule matched at all.
func evaluateOrdered(rules []Rule, scopedPath string, isDirectory bool) (bool, bool) {
	excluded := false
	matched := false
	for _, rule := range rules {
		if ruleMatches(rule, scopedPath, isDirectory) {
			matched = true
			excluded = !rule.Negated
		}
	}
	return excluded, matched
}

func anyRuleMatches(rules []Rule, scopedPath string, isDirectory bool) bool {
	for _, rule := range rules {
		if ruleMatches(rule, scopedPath, isDirectory) {
			return true
		}
	}
	return false
}

// ruleMatches evaluates one rule against a path already made relative to the
// rule's scope. Directory-only rules reach files solely through an ancestor
// directory of the file.
func ruleMatches(rule Rule, scopedPath string, isDirectory bool) bool {
	if rule.matcher == nil {
		return false
	}
	if rule.DirectoryOnly {
		if isDirectory {
			return rule.matcher.MatchesPath(scopedPath)
		}
		for _, ancestorPath := range ancestorPaths(scopedPath) {
			if rule.matcher.MatchesPath(ancestorPath) {
				return true
			}
		}
		return false
	}
	return rule.matcher.MatchesPath(scopedPath)
}

// ancestorPaths lists every proper ancestor directory of the slash path,
// shallowest first.
func ancestorPaths(slashPath string) []string {
	segments := strings.Split(slashPath, "/")
	if len(segments) < 2 {
		return nil
	}
	ancestors := make([]string, 0, len(segments)-1)
	for segmentCount := 1; segmentCount < len(segments); segmentCount++ {
		ancestors = append(ancestors, strings.Join(segments[:segmentCount], "/"))
	}
	return ancestors
}

// scopeRelativePath rewrites a root-relative path to be relative to the layer
// scope. Paths outside the scope, and the scope directory itself, are out of
// reach for the layer.
func scopeRelativePath(relativePath string, scope string) (string, bool) {
	if scope == "" {
		return relativePath, true
	}
	scopePrefix := scope + "/"
	if !strings.HasPrefix(relativePath, scopePrefix) {
		return "", false
	}
	return strings.TrimPrefix(relativePath, scopePrefix), true
}

// compileRule turns one raw pattern line into a Rule. It returns nil for
// lines that carry no pattern after trimming.
func compileRule(rawPattern string, scope string, source Source) (*Rule, error) {
	trimmedPattern := strings.TrimSpace(rawPattern)
	if trimmedPattern == "" {
		return nil, nil
	}

	negated := strings.HasPrefix(trimmedPattern, negationPrefix)
	patternBody := strings.TrimPrefix(trimmedPattern, negationPrefix)
	directoryOnly := strings.HasSuffix(patternBody, "/")
	patternBody = strings.TrimSuffix(patternBody, "/")
	anchored := strings.HasPrefix(patternBody, "/")

	if patternBody == "" {
		return nil, nil
	}
	if validationError := validateGlob(patternBody); validationError != nil {
		return nil, &SyntaxError{Pattern: trimmedPattern, Cause: validationError}
	}

	return &Rule{
		Pattern:       trimmedPattern,
		Negated:       negated,
		DirectoryOnly: directoryOnly,
		Anchored:      anchored,
		Scope:         scope,
		Source:        source,
		matcher:       gitignore.CompileIgnoreLines(patternBody),
	}, nil
}

// validateGlob rejects malformed glob segments before any traversal begins.
func validateGlob(patternBody string) error {
	for _, segment := range strings.Split(strings.Trim(patternBody, "/"), "/") {
		if segment == "" || segment == "**" {
			continue
		}
		probeSegment := strings.ReplaceAll(segment, "**", "*")
		if _, matchError := path.Match(probeSegment, "probe"); matchError != nil {
			return matchError
		}
	}
	return nil
}
