// Package git reads past versions of a library's articles.jsonl out of git
// history.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matsen/citenum/internal/reference"
	"github.com/matsen/citenum/internal/storage"
)

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrCommitNotFound indicates the specified commit does not exist.
var ErrCommitNotFound = errors.New("commit not found")

// FindRepoRoot finds the root of the git repository containing path.
func FindRepoRoot(path string) (string, error) {
	output, err := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// ValidateCommit resolves a commit reference (SHA, HEAD~N, branch, tag) to
// its full SHA.
func ValidateCommit(repoRoot, commitRef string) (string, error) {
	output, err := exec.Command("git", "-C", repoRoot, "rev-parse", "--verify", commitRef+"^{commit}").Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", commitRef, ErrCommitNotFound)
	}
	return strings.TrimSpace(string(output)), nil
}

// relativePath returns path relative to the git root in slash form, as
// git show expects.
func relativePath(gitRoot, path string) (string, error) {
	// Resolve symlinks on both sides (macOS /tmp, for one)
	if r, err := filepath.EvalSymlinks(gitRoot); err == nil {
		gitRoot = r
	}
	if p, err := filepath.EvalSymlinks(path); err == nil {
		path = p
	} else if d, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		path = filepath.Join(d, filepath.Base(path))
	}
	rel, err := filepath.Rel(gitRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the git repository at %s", path, gitRoot)
	}
	return filepath.ToSlash(rel), nil
}

// ArticlesAtCommit reads the articles file at path as it was at commitRef.
// A file that did not exist at that commit yields no articles.
func ArticlesAtCommit(path, commitRef string) ([]reference.Reference, error) {
	gitRoot, err := FindRepoRoot(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	sha, err := ValidateCommit(gitRoot, commitRef)
	if err != nil {
		return nil, err
	}
	rel, err := relativePath(gitRoot, path)
	if err != nil {
		return nil, err
	}

	output, err := exec.Command("git", "-C", gitRoot, "show", sha+":"+rel).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s at %s: %w", rel, commitRef, err)
	}

	refs, err := storage.DecodeArticles(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", rel, commitRef, err)
	}
	return refs, nil
}

// IsFileTracked reports whether git tracks the file at path.
func IsFileTracked(path string) bool {
	gitRoot, err := FindRepoRoot(filepath.Dir(path))
	if err != nil {
		return false
	}
	rel, err := relativePath(gitRoot, path)
	if err != nil {
		return false
	}
	output, err := exec.Command("git", "-C", gitRoot, "ls-files", rel).Output()
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}
