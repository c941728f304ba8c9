package sync

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/fswatch"
	"github.com/sidkik/monorepo-agent/pkg/sync/mocks"
)

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

func TestWatch(t *testing.T) {
	defer func() { watchSource = fswatch.Watch }()

	fs = afero.NewMemMapFs()
	mkdirs(t, "/work/mono/api", "/work/mono/web")

	api := newSubmodule("api", "api")
	web := newSubmodule("web", "web")
	docs := newSubmodule("docs", "docs")

	updates := map[string]chan struct{}{
		"/work/mono/api": make(chan struct{}, 1),
		"/work/mono/web": make(chan struct{}, 1),
	}
	closed := make(chan string, len(updates))
	watchSource = func(dir string) (<-chan struct{}, io.Closer, error) {
		ch, ok := updates[dir]
		if !ok {
			return nil, nil, assert.AnError
		}
		return ch, closerFunc(func() error {
			closed <- dir
			return nil
		}), nil
	}

	runner := &mocks.Runner{}
	expectSync(runner, api, "/work/mono/api", "/work/api").Twice()

	o, hook := newTestOrchestrator(runner)
	clock := clockwork.NewFakeClock()
	o.clock = clock

	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan Report)
	done := make(chan error)
	go func() {
		done <- o.Watch(ctx, []config.Submodule{api, web, docs}, func(report Report) {
			reports <- report
		})
	}()

	// Only the submodule that changed is re-synced.
	updates["/work/mono/api"] <- struct{}{}
	clock.BlockUntil(1)
	clock.Advance(debounceInterval)

	report := <-reports
	require.Len(t, report, 1)
	assert.Equal(t, "api", report[0].Name)
	assert.Equal(t, Synced, report[0].Status)

	// Nothing is synced until the debounce interval passes.
	updates["/work/mono/api"] <- struct{}{}
	clock.BlockUntil(1)
	select {
	case <-reports:
		t.Fatal("synced before the debounce interval passed")
	default:
	}
	clock.Advance(debounceInterval)
	report = <-reports
	require.Len(t, report, 1)
	assert.Equal(t, "api", report[0].Name)

	cancel()
	assert.NoError(t, <-done)
	runner.AssertExpectations(t)

	// Both watchers that were started are closed once the watch ends.
	var closedDirs []string
	for i := 0; i < len(updates); i++ {
		closedDirs = append(closedDirs, <-closed)
	}
	assert.ElementsMatch(t, []string{"/work/mono/api", "/work/mono/web"}, closedDirs)

	// The submodule without a source isn't watched, and the user is told how
	// to pick it up later.
	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Data["submodule"] == "docs" {
			warned = strings.Contains(entry.Message, "restart the watch")
		}
	}
	assert.True(t, warned)
}

func TestWatchNoSubmodules(t *testing.T) {
	runner := &mocks.Runner{}
	o, _ := newTestOrchestrator(runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, o.Watch(ctx, nil, func(Report) {
		t.Fatal("unexpected sync")
	}))
}
