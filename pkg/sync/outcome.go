package sync

import (
	"time"
)

// Status describes what happened when syncing a single submodule.
type Status string

const (
	// Synced means rsync exited successfully.
	Synced Status = "synced"

	// SkippedMissingSource means the submodule's source doesn't exist or isn't
	// a directory.
	SkippedMissingSource Status = "skipped-missing-source"

	// SkippedBadSource means the submodule's source resolves to a path
	// outside the monorepo.
	SkippedBadSource Status = "skipped-bad-source"

	// SkippedBadTarget means the sibling target exists but isn't a directory,
	// or the submodule's name can't be used as a directory name.
	SkippedBadTarget Status = "skipped-bad-target"

	// Failed means the target couldn't be created, or rsync failed.
	Failed Status = "failed"
)

// Skipped returns whether the submodule was skipped without running rsync.
func (s Status) Skipped() bool {
	switch s {
	case SkippedMissingSource, SkippedBadSource, SkippedBadTarget:
		return true
	}
	return false
}

// Outcome is the result of syncing a single submodule.
type Outcome struct {
	Name   string
	Status Status

	// Source and Target are the resolved paths. They're empty if resolution
	// failed before they could be computed.
	Source string
	Target string

	// Err is set for every status other than Synced.
	Err error

	Duration time.Duration
}

// Report contains the outcome of every submodule in a sync, in the order the
// submodules were synced.
type Report []Outcome

// Count returns the number of outcomes with the given status.
func (r Report) Count(status Status) (n int) {
	for _, outcome := range r {
		if outcome.Status == status {
			n++
		}
	}
	return n
}

// Skipped returns the number of submodules that were skipped.
func (r Report) Skipped() (n int) {
	for _, outcome := range r {
		if outcome.Status.Skipped() {
			n++
		}
	}
	return n
}

// Get returns the outcome for the submodule named `name`.
func (r Report) Get(name string) (Outcome, bool) {
	for _, outcome := range r {
		if outcome.Name == name {
			return outcome, true
		}
	}
	return Outcome{}, false
}
