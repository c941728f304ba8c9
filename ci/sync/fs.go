package sync

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sidkik/monorepo-agent/ci/util"
	"github.com/sidkik/monorepo-agent/pkg/errors"
)

type file struct {
	path     string
	contents string
	modTime  time.Time
}

func (f file) WithContents(contents string) file {
	f.contents = contents
	return f
}

func (f file) WithModTime(modTime time.Time) file {
	f.modTime = modTime
	return f
}

func newFile(path, contents string) file {
	return file{
		path:     path,
		contents: contents,
		modTime:  time.Date(2019, 11, 10, 12, 30, 0, 0, time.UTC),
	}
}

type fsOp func(*util.TestHelper) error

// createFile writes `toCreate` relative to the monorepo root.
func createFile(toCreate file) fsOp {
	return func(helper *util.TestHelper) error {
		path := filepath.Join(helper.Root, toCreate.path)
		return writeFile(path, toCreate)
	}
}

// createTargetFile writes `toCreate` relative to the directory that holds the
// sibling targets.
func createTargetFile(toCreate file) fsOp {
	return func(helper *util.TestHelper) error {
		path := filepath.Join(helper.Parent, toCreate.path)
		return writeFile(path, toCreate)
	}
}

func writeFile(path string, toCreate file) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WithContext(err, "make parent")
	}

	if err := ioutil.WriteFile(path, []byte(toCreate.contents), 0644); err != nil {
		return errors.WithContext(err, "write")
	}

	if err := os.Chtimes(path, time.Now(), toCreate.modTime); err != nil {
		return errors.WithContext(err, "chtimes")
	}
	return nil
}

func removeFile(path string) fsOp {
	return func(helper *util.TestHelper) error {
		return os.Remove(filepath.Join(helper.Root, path))
	}
}

func getTargetFile(helper *util.TestHelper, path string) (file, bool, error) {
	fullPath := filepath.Join(helper.Parent, path)
	fi, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return file{}, false, nil
		}
		return file{}, false, errors.WithContext(err, "stat")
	}

	contents, err := ioutil.ReadFile(fullPath)
	if err != nil {
		return file{}, false, errors.WithContext(err, "read")
	}

	return file{
		path:     path,
		contents: string(contents),
		modTime:  fi.ModTime().UTC(),
	}, true, nil
}

// shouldExist checks that `exp` was synced to `target`, the path of the
// sibling directory relative to the parent of the monorepo.
func shouldExist(target string, exp file) func(*util.TestHelper) error {
	return func(helper *util.TestHelper) error {
		actual, exists, err := getTargetFile(helper, filepath.Join(target, trimSource(exp.path)))
		if err != nil {
			return errors.WithContext(err, "get target file")
		}

		if !exists {
			return fmt.Errorf("file %q was not synced to %q", exp.path, target)
		}

		if actual.contents != exp.contents || !actual.modTime.Equal(exp.modTime) {
			return fmt.Errorf("Expected file %v, got %v", exp, actual)
		}
		return nil
	}
}

func shouldNotExist(target string, exp file) func(*util.TestHelper) error {
	return func(helper *util.TestHelper) error {
		path := filepath.Join(target, trimSource(exp.path))
		_, exists, err := getTargetFile(helper, path)
		if err != nil {
			return errors.WithContext(err, "get target file")
		}

		if exists {
			return fmt.Errorf("file %q exists", path)
		}
		return nil
	}
}

// trimSource strips the submodule directory from a path relative to the
// monorepo root, leaving the path relative to the submodule.
func trimSource(path string) string {
	parts := strings.SplitN(path, string(filepath.Separator), 2)
	return parts[len(parts)-1]
}
