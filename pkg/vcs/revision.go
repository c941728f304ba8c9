// Package vcs reads version control metadata from the monorepo so that syncs
// can be traced back to the commit they were made from.
package vcs

import (
	"gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// ErrNotRepository is returned by Revision when the directory isn't inside a
// git repository.
var ErrNotRepository = errors.New("not a git repository")

// ErrNoCommits is returned by Revision when the repository has no commits yet.
var ErrNoCommits = errors.New("repository has no commits")

const shortHashLength = 7

// Revision returns the abbreviated hash of the commit checked out in the git
// repository containing `dir`.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return "", ErrNotRepository
		}
		return "", errors.WithContext(err, "open repository")
	}

	head, err := repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return "", ErrNoCommits
		}
		return "", errors.WithContext(err, "resolve HEAD")
	}
	return head.Hash().String()[:shortHashLength], nil
}
