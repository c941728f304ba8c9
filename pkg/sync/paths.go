package sync

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// siblingDir returns the directory that holds the sibling targets, i.e. the
// parent of the monorepo root.
func siblingDir(root string) (string, error) {
	root = filepath.Clean(root)
	parent := filepath.Dir(root)
	if parent == root {
		return "", errors.NewFriendlyError(
			"The monorepo at %q doesn't have a parent directory.\n"+
				"Submodules are synced into directories next to the monorepo, "+
				"so the monorepo can't be the filesystem root.", root)
	}
	return parent, nil
}

// sourcePath resolves a submodule's path relative to the monorepo root.
// Paths that resolve outside of the root are rejected.
func sourcePath(root string, submodule config.Submodule) (string, error) {
	root = filepath.Clean(root)

	source := filepath.Clean(submodule.Path)
	if !filepath.IsAbs(source) {
		source = filepath.Join(root, source)
	}

	if !within(root, source) {
		return "", fmt.Errorf("path %q is outside of the monorepo", submodule.Path)
	}
	return source, nil
}

// checkResolvedSource rejects sources that only look like they're inside the
// monorepo, because a symlink on the way leads outside of it. rsync is still
// given the unresolved path.
func checkResolvedSource(root, source string, evalSymlinks func(string) (string, error)) error {
	realRoot, err := evalSymlinks(root)
	if err != nil {
		return errors.WithContext(err, "resolve monorepo root")
	}

	realSource, err := evalSymlinks(source)
	if err != nil {
		return errors.WithContext(err, "resolve source")
	}

	if !within(realRoot, realSource) {
		return fmt.Errorf("path %q resolves to %q, which is outside of the monorepo",
			source, realSource)
	}
	return nil
}

func within(parent, path string) bool {
	rel, err := filepath.Rel(parent, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// targetPath returns the sibling directory for a submodule. It's always named
// after the submodule, regardless of where the submodule lives inside the
// monorepo.
func targetPath(parent string, submodule config.Submodule) (string, error) {
	if err := config.ValidateName(submodule.Name); err != nil {
		return "", err
	}
	return filepath.Join(parent, submodule.Name), nil
}

// overlappingSources returns pairs of submodules where one's source contains
// the other's.
func overlappingSources(root string, submodules []config.Submodule) (pairs [][2]string) {
	sources := make([]string, len(submodules))
	for i, submodule := range submodules {
		sources[i], _ = sourcePath(root, submodule)
	}

	for i := range submodules {
		for j := range submodules {
			if i == j || sources[i] == "" || sources[j] == "" {
				continue
			}

			if !within(sources[i], sources[j]) {
				continue
			}
			// Identical sources are reported once.
			if sources[i] == sources[j] && j < i {
				continue
			}
			pairs = append(pairs, [2]string{submodules[i].Name, submodules[j].Name})
		}
	}
	return pairs
}
