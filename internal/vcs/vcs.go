// Package vcs detects the version-control branch a package is checked out on.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrDetachedHead is returned when HEAD does not point at a branch.
var ErrDetachedHead = errors.New("HEAD is detached")

// BranchDetector reports the current branch of the repository containing dir.
type BranchDetector interface {
	CurrentBranch(ctx context.Context, dir string) (string, error)
}

// GitDetector reads HEAD through libgit2, searching parent directories for
// the repository.
type GitDetector struct{}

// CurrentBranch returns the short name of the branch HEAD points at.
func (GitDetector) CurrentBranch(_ context.Context, dir string) (string, error) {
	repo, err := git2go.OpenRepositoryExtended(dir, 0, "")
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}
	defer repo.Free()

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}
	defer head.Free()

	if !head.IsBranch() {
		return "", ErrDetachedHead
	}

	return head.Shorthand(), nil
}

// Title returns the HTML report title for dir, or "" when the branch cannot
// be determined. Detection failures are logged at debug level only.
func Title(ctx context.Context, detector BranchDetector, dir string, logger *slog.Logger) string {
	if detector == nil {
		return ""
	}

	branch, err := detector.CurrentBranch(ctx, dir)
	if err != nil || branch == "" {
		if logger != nil {
			logger.DebugContext(ctx, "branch detection skipped", "dir", dir, "error", err)
		}

		return ""
	}

	return "Branch: " + branch
}
