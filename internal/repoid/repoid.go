// Package repoid derives repository identity metadata for a local checkout.
// It never performs network access; acquisition of the checkout is a
// collaborator's responsibility.
package repoid

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	giturls "github.com/whilp/git-urls"

	"github.com/gitdigest/gitdigest/internal/types"
)

const githubHost = "github.com"

// shorthandExpression recognizes owner/repo references without a scheme.
var shorthandExpression = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)

// ParseURL resolves a repository reference into identity metadata. It accepts
// full URLs (https, ssh, scp-like) as well as the owner/repo shorthand, which
// is assumed to live on github.com.
func ParseURL(input string) (types.RepoIdentity, error) {
	trimmedInput := strings.TrimSpace(input)
	if trimmedInput == "" {
		return types.RepoIdentity{}, fmt.Errorf("empty repository reference")
	}

	if matches := shorthandExpression.FindStringSubmatch(trimmedInput); matches != nil {
		ownerName := matches[1]
		repositoryName := strings.TrimSuffix(matches[2], ".git")
		return types.RepoIdentity{
			URL:   fmt.Sprintf("https://%s/%s/%s", githubHost, ownerName, repositoryName),
			Host:  githubHost,
			Owner: ownerName,
			Name:  repositoryName,
		}, nil
	}

	parsedURL, parseError := giturls.Parse(trimmedInput)
	if parseError != nil {
		return types.RepoIdentity{}, fmt.Errorf("unable to parse repository URL %q: %w", trimmedInput, parseError)
	}

	hostName := parsedURL.Hostname()
	if hostName == "" {
		hostName = parsedURL.Host
	}

	trimmedPath := strings.Trim(parsedURL.Path, "/")
	trimmedPath = strings.TrimSuffix(trimmedPath, ".git")
	pathSegments := strings.Split(trimmedPath, "/")
	if len(pathSegments) < 2 || pathSegments[0] == "" || pathSegments[1] == "" {
		return types.RepoIdentity{}, fmt.Errorf("repository URL %q must contain owner and repository name", trimmedInput)
	}

	return types.RepoIdentity{
		URL:   trimmedInput,
		Host:  hostName,
		Owner: pathSegments[0],
		Name:  pathSegments[1],
	}, nil
}

// FromLocalPath builds identity metadata for a checkout without a known URL,
// using the directory name and, when the checkout is a Git repository, its
// HEAD revision.
func FromLocalPath(rootPath string) types.RepoIdentity {
	identity := types.RepoIdentity{Name: filepath.Base(filepath.Clean(rootPath))}
	identity.Revision = ResolveLocalRevision(rootPath)
	return identity
}

// ResolveLocalRevision returns the HEAD commit hash of the checkout at
// rootPath, or an empty string when the path is not a Git repository.
func ResolveLocalRevision(rootPath string) string {
	repository, openError := git.PlainOpen(rootPath)
	if openError != nil {
		return ""
	}
	headReference, headError := repository.Head()
	if headError != nil {
		return ""
	}
	return headReference.Hash().String()
}
