package sync

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
	"github.com/sidkik/monorepo-agent/pkg/fswatch"
)

// Mocked out for unit testing.
var watchSource = fswatch.Watch

// debounceInterval is how long to wait after the last change to a source
// before syncing it. Editors and build tools often write many files in quick
// succession.
const debounceInterval = 500 * time.Millisecond

// Watch re-syncs submodules whenever their sources change, until `ctx` is
// canceled. Only the submodules that changed are re-synced, and `onSync` is
// called with the report of each re-sync.
func (o *Orchestrator) Watch(ctx context.Context, submodules []config.Submodule,
	onSync func(Report)) error {

	changes := make(chan string, len(submodules))
	var watching int
	for _, submodule := range submodules {
		log := o.log.WithField("submodule", submodule.Name)
		source, err := sourcePath(o.root, submodule)
		if err != nil {
			log.WithError(err).Warn("Not watching submodule")
			continue
		}

		updates, closer, err := watchSource(source)
		if err != nil {
			log.WithError(err).Warn("Failed to watch for changes. " +
				"The submodule won't be re-synced automatically. If its source " +
				"doesn't exist yet, restart the watch after creating it.")
			continue
		}
		defer closeWatcher(log, closer)

		watching++
		go forwardChanges(ctx, submodule.Name, updates, changes)
	}
	o.log.Infof("Watching %d submodules for changes", watching)

	pending := map[string]struct{}{}
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case name := <-changes:
			pending[name] = struct{}{}
			debounce = o.clock.After(debounceInterval)
		case <-debounce:
			debounce = nil

			var changed []config.Submodule
			for _, submodule := range submodules {
				if _, ok := pending[submodule.Name]; ok {
					changed = append(changed, submodule)
				}
			}
			pending = map[string]struct{}{}

			report, err := o.Sync(ctx, changed)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.WithContext(err, "sync")
			}
			onSync(report)
		}
	}
}

func forwardChanges(ctx context.Context, name string, updates <-chan struct{},
	changes chan<- string) {

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}

			select {
			case changes <- name:
			case <-ctx.Done():
				return
			}
		}
	}
}

func closeWatcher(log logrus.FieldLogger, closer io.Closer) {
	if err := closer.Close(); err != nil {
		log.WithError(err).Warn("Failed to close file watcher")
	}
}
