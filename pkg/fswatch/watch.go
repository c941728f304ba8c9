package fswatch

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

var fs = afero.NewOsFs()

// ignoredDirs are never watched. Their contents aren't submodule sources.
var ignoredDirs = map[string]struct{}{
	".git":      {},
	".monorepo": {},
}

// watcher is the subset of fsnotify.Watcher used to add directories that are
// created after the watch starts.
type watcher interface {
	Add(string) error
}

// Watch watches `dir` and all of its subdirectories for changes. It sends an
// event on the returned channel whenever a file within `dir` changes. Events
// are coalesced: at most one event is buffered, no matter how many changes
// happen before it's read. The channel is closed once the returned Closer is
// closed.
func Watch(dir string) (<-chan struct{}, io.Closer, error) {
	pathsToWatch, err := getDirsToWatch(dir)
	if err != nil {
		return nil, nil, errors.WithContext(err, "get paths")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := fsWatcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := fsWatcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, nil, errors.WithContext(err, "watch "+path)
		}
	}

	go logErrors(dir, fsWatcher.Errors)
	return combineUpdates(fsWatcher.Events, fsWatcher), fsWatcher, nil
}

func combineUpdates(events <-chan fsnotify.Event, w watcher) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		defer close(combined)
		for event := range events {
			if event.Op&fsnotify.Create != 0 {
				watchIfDir(w, event.Name)
			}

			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// watchIfDir starts watching `path` if it's a newly created directory, since
// fsnotify doesn't watch directories recursively.
func watchIfDir(w watcher, path string) {
	if _, ok := ignoredDirs[filepath.Base(path)]; ok {
		return
	}

	isDir, err := afero.IsDir(fs, path)
	if err != nil || !isDir {
		return
	}

	paths, err := getDirsToWatch(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debug("Failed to list new directory")
		return
	}

	for _, p := range paths {
		if err := w.Add(p); err != nil {
			log.WithError(err).WithField("path", p).Warn("Failed to watch new directory")
		}
	}
}

func logErrors(dir string, errs <-chan error) {
	for err := range errs {
		log.WithError(err).WithField("dir", dir).Warn("File watcher error")
	}
}

func getDirsToWatch(dir string) (paths []string, err error) {
	fi, err := fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: dir}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.IsDir() {
		return nil, errors.NewFriendlyError("%q is not a directory", dir)
	}

	err = afero.Walk(fs, dir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}

		if !fi.IsDir() {
			return nil
		}

		if _, ok := ignoredDirs[fi.Name()]; ok && path != dir {
			return filepath.SkipDir
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}
