package sync

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
	agentSync "github.com/sidkik/monorepo-agent/pkg/sync"
	"github.com/sidkik/monorepo-agent/pkg/sync/mocks"
	"github.com/sidkik/monorepo-agent/pkg/vcs"
)

func newSubmodule(name string) config.Submodule {
	return config.Submodule{
		Name:    name,
		Path:    name,
		Include: config.DefaultInclude,
		Exclude: config.DefaultExclude,
	}
}

func TestRun(t *testing.T) {
	defer func() {
		stdout = os.Stdout
		registryExists = config.Exists
		loadRegistry = config.Load
		checkTool = agentSync.CheckTool
		getRevision = vcs.Revision
		newRunner = agentSync.NewRsyncRunner
	}()

	tmp, err := ioutil.TempDir("", "monorepo-agent-sync")
	require.NoError(t, err)
	defer os.RemoveAll(tmp)

	root := filepath.Join(tmp, "mono")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "api", "lib"), 0755))

	api := newSubmodule("api")
	web := newSubmodule("web")
	apiArgs := agentSync.RsyncArgs(filepath.Join(root, "api"), filepath.Join(tmp, "api"),
		api.Include, api.Exclude, false)

	tests := []struct {
		name          string
		initialized   bool
		registry      config.Registry
		opts          options
		checkToolErr  error
		mockRunner    func(*mocks.Runner)
		expOutput     []string
		expRunnerUsed bool
		expError      string
	}{
		{
			name:     "NotInitialized",
			expError: "isn't a monorepo",
		},
		{
			name:        "NoSubmodules",
			initialized: true,
			expOutput:   []string{"No submodules configured. Nothing to sync.\n"},
		},
		{
			name:        "NoMatches",
			initialized: true,
			registry:    config.Registry{Submodules: []config.Submodule{api}},
			opts:        options{names: []string{"mobile"}},
			expOutput:   []string{"No matching configured submodules found to sync.\n"},
		},
		{
			name:         "ToolMissing",
			initialized:  true,
			registry:     config.Registry{Submodules: []config.Submodule{api}},
			checkToolErr: errors.NewFriendlyError("rsync not found"),
			expError:     "rsync not found",
		},
		{
			name:        "PartialSuccess",
			initialized: true,
			registry:    config.Registry{Submodules: []config.Submodule{api, web}},
			mockRunner: func(runner *mocks.Runner) {
				runner.On("Run", mock.Anything, apiArgs).Return([]byte{}, nil).Once()
			},
			expRunnerUsed: true,
			expOutput: []string{
				statusString(agentSync.Outcome{Status: agentSync.Synced, Target: filepath.Join(tmp, "api")}),
				"Synced 1, skipped 1, failed 0.\n",
			},
		},
		{
			name:        "Subset",
			initialized: true,
			registry:    config.Registry{Submodules: []config.Submodule{api, web}},
			opts:        options{names: []string{"api"}},
			mockRunner: func(runner *mocks.Runner) {
				runner.On("Run", mock.Anything, apiArgs).Return([]byte{}, nil).Once()
			},
			expRunnerUsed: true,
			expOutput:     []string{"Synced 1, skipped 0, failed 0.\n"},
		},
		{
			name:        "Failure",
			initialized: true,
			registry:    config.Registry{Submodules: []config.Submodule{api}},
			mockRunner: func(runner *mocks.Runner) {
				runner.On("Run", mock.Anything, apiArgs).
					Return([]byte("rsync: connection unexpectedly closed"), assert.AnError).Once()
			},
			expRunnerUsed: true,
			expOutput:     []string{"Synced 0, skipped 0, failed 1.\n"},
			expError:      "1 of 1 submodules failed to sync.",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			stdout = &out

			registryExists = func(dir string) (bool, error) {
				assert.Equal(t, filepath.Join(root, config.Dir), dir)
				return test.initialized, nil
			}
			loadRegistry = func(string) (config.Registry, error) {
				return test.registry, nil
			}
			checkTool = func(context.Context, string, logrus.FieldLogger) error {
				return test.checkToolErr
			}
			getRevision = func(string) (string, error) {
				return "", vcs.ErrNotRepository
			}

			runner := &mocks.Runner{}
			if test.mockRunner != nil {
				test.mockRunner(runner)
			}
			var runnerUsed bool
			newRunner = func(binary string) agentSync.Runner {
				runnerUsed = true
				assert.Equal(t, "rsync", binary)
				return runner
			}

			test.opts.rsync = "rsync"
			err := run(context.Background(), root, test.opts)
			if test.expError != "" {
				require.Error(t, err)
				msg, ok := errors.GetFriendlyMessage(err)
				assert.True(t, ok)
				assert.Contains(t, msg, test.expError)
			} else {
				assert.NoError(t, err)
			}

			for _, exp := range test.expOutput {
				assert.Contains(t, out.String(), exp)
			}
			assert.Equal(t, test.expRunnerUsed, runnerUsed)
			runner.AssertExpectations(t)
		})
	}
}

func TestFailureError(t *testing.T) {
	assert.NoError(t, failureError(nil))
	assert.NoError(t, failureError(agentSync.Report{
		{Name: "api", Status: agentSync.Synced},
		{Name: "web", Status: agentSync.SkippedMissingSource},
	}))
	assert.EqualError(t, failureError(agentSync.Report{
		{Name: "api", Status: agentSync.Failed},
		{Name: "web", Status: agentSync.Synced},
	}), "1 of 2 submodules failed to sync.")
}
