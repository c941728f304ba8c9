package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Orchestrator syncs the submodules of a monorepo into their sibling
// directories.
type Orchestrator struct {
	// DryRun makes rsync report what it would change without touching the
	// targets. Missing target directories are still created.
	DryRun bool

	root   string
	runner Runner
	log    logrus.FieldLogger
	clock  clockwork.Clock

	// evalSymlinks resolves symlinks in source paths before checking that
	// they stay inside the monorepo.
	evalSymlinks func(string) (string, error)
}

// New returns an Orchestrator for the monorepo at `root`.
func New(root string, runner Runner, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		root:   filepath.Clean(root),
		runner: runner,
		log:    log,
		clock:  clockwork.NewRealClock(),

		evalSymlinks: filepath.EvalSymlinks,
	}
}

// Select returns the submodules in `reg` whose names are in `names`, in
// registry order. If `names` is nil, every submodule is selected. Names that
// aren't configured are ignored.
func Select(reg config.Registry, names []string) []config.Submodule {
	if names == nil {
		return reg.Submodules
	}

	wanted := map[string]struct{}{}
	for _, name := range names {
		wanted[name] = struct{}{}
	}

	var selected []config.Submodule
	for _, submodule := range reg.Submodules {
		if _, ok := wanted[submodule.Name]; ok {
			selected = append(selected, submodule)
		}
	}
	return selected
}

// Sync syncs each submodule in turn. Problems with a single submodule are
// recorded in the returned Report, and don't stop the remaining submodules
// from syncing. An error is only returned if no submodule can be synced at
// all, or if `ctx` is canceled.
func (o *Orchestrator) Sync(ctx context.Context, submodules []config.Submodule) (Report, error) {
	parent, err := siblingDir(o.root)
	if err != nil {
		return nil, err
	}

	for _, pair := range overlappingSources(o.root, submodules) {
		o.log.WithFields(logrus.Fields{
			"submodule": pair[0],
			"contains":  pair[1],
		}).Warn("Submodule sources overlap. Both targets will receive the shared files.")
	}

	var report Report
	for _, submodule := range submodules {
		if err := ctx.Err(); err != nil {
			return report, errors.WithContext(err, "sync canceled")
		}
		report = append(report, o.syncOne(ctx, parent, submodule))
	}
	return report, nil
}

func (o *Orchestrator) syncOne(ctx context.Context, parent string, submodule config.Submodule) Outcome {
	start := o.clock.Now()
	outcome := o.syncSubmodule(ctx, parent, submodule)
	outcome.Name = submodule.Name
	outcome.Duration = o.clock.Now().Sub(start)
	return outcome
}

func (o *Orchestrator) syncSubmodule(ctx context.Context, parent string, submodule config.Submodule) Outcome {
	log := o.log.WithField("submodule", submodule.Name)
	log.Debug("Syncing submodule")

	source, err := sourcePath(o.root, submodule)
	if err != nil {
		log.WithError(err).Warn("Skipping submodule whose path leaves the monorepo")
		return Outcome{Status: SkippedBadSource, Err: err}
	}

	outcome := Outcome{Source: source}
	isDir, err := afero.IsDir(fs, source)
	if err != nil || !isDir {
		switch {
		case os.IsNotExist(err):
			err = errors.FileNotFound{Path: source}
		case err == nil:
			err = fmt.Errorf("%q is not a directory", source)
		}
		log.WithField("source", source).Warn(
			"Source path not found or not a directory. Skipping.")
		outcome.Status = SkippedMissingSource
		outcome.Err = err
		return outcome
	}

	if err := checkResolvedSource(o.root, source, o.evalSymlinks); err != nil {
		log.WithError(err).Warn("Skipping submodule whose source links outside the monorepo")
		outcome.Status = SkippedBadSource
		outcome.Err = err
		return outcome
	}

	target, err := targetPath(parent, submodule)
	if err != nil {
		log.WithError(err).Error("Skipping submodule whose name can't be used as a directory")
		outcome.Status = SkippedBadTarget
		outcome.Err = err
		return outcome
	}
	outcome.Target = target

	targetInfo, err := fs.Stat(target)
	switch {
	case os.IsNotExist(err):
		log.WithField("target", target).Info("Target directory does not exist. Creating it.")
		if err := fs.MkdirAll(target, 0755); err != nil {
			log.WithError(err).Error("Failed to create target directory")
			outcome.Status = Failed
			outcome.Err = errors.WithContext(err, "create target")
			return outcome
		}
	case err != nil:
		log.WithError(err).Error("Failed to check target directory")
		outcome.Status = Failed
		outcome.Err = errors.WithContext(err, "stat target")
		return outcome
	case !targetInfo.IsDir():
		log.WithField("target", target).Error("Target path is not a directory. Skipping.")
		outcome.Status = SkippedBadTarget
		outcome.Err = fmt.Errorf("%q is not a directory", target)
		return outcome
	}

	args := RsyncArgs(source, target, submodule.Include, submodule.Exclude, o.DryRun)
	log.WithField("args", args).Debug("Running rsync")

	output, err := o.runner.Run(ctx, args)
	if err != nil {
		outcome.Status = Failed
		outcome.Err = newToolError(err, output)
		log.WithError(outcome.Err).Error("Failed to sync submodule")
		return outcome
	}

	if o.DryRun {
		log.Infof("Dry run. rsync would make these changes:\n%s", output)
	} else if len(output) != 0 {
		log.Debug(string(output))
	}

	outcome.Status = Synced
	log.Info("Synced submodule")
	return outcome
}
