package list

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/monorepo-agent/pkg/config"
)

func TestRun(t *testing.T) {
	defer func() {
		stdout = os.Stdout
		loadRegistry = config.Load
	}()

	var out bytes.Buffer
	stdout = &out
	loadRegistry = func(dir string) (config.Registry, error) {
		assert.Equal(t, "/work/mono/.monorepo", dir)
		return config.Registry{Submodules: []config.Submodule{
			{Name: "api", Path: "api", Include: []string{"lib/***", "pubspec.yaml"}, Exclude: []string{"*"}},
			{Name: "web", Path: "apps/web"},
		}}, nil
	}

	require.NoError(t, run("/work/mono"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "SOURCE", "TARGET", "INCLUDE", "EXCLUDE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"api", "api", "/work/api", "lib/***,pubspec.yaml", "*"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"web", "apps/web", "/work/web"}, strings.Fields(lines[2]))
}

func TestRunEmpty(t *testing.T) {
	defer func() {
		stdout = os.Stdout
		loadRegistry = config.Load
	}()

	var out bytes.Buffer
	stdout = &out
	loadRegistry = func(string) (config.Registry, error) {
		return config.Registry{}, nil
	}

	require.NoError(t, run("/work/mono"))
	assert.Equal(t, "No submodules configured.\n", out.String())
}

func TestRunLoadError(t *testing.T) {
	defer func() { loadRegistry = config.Load }()
	loadRegistry = func(string) (config.Registry, error) {
		return config.Registry{}, assert.AnError
	}

	assert.Error(t, run("/work/mono"))
}
