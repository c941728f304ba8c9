//go:build ci
// +build ci

package main

import (
	"os"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/monorepo-agent/ci/sync"
	"github.com/sidkik/monorepo-agent/ci/util"
)

type TestFunction func(*testing.T, *util.TestHelper)

func TestMonorepoAgent(t *testing.T) {
	homedir.DisableCache = true

	binary, ok := os.LookupEnv("CI_BINARY_PATH")
	if !ok {
		binary = "monorepo-agent"
	}

	tests := []struct {
		name   string
		testFn TestFunction
	}{
		{
			name:   "FileSync",
			testFn: sync.Test,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			helper, err := util.NewTestHelper(binary)
			require.NoError(t, err)
			defer func() {
				if err := helper.Cleanup(); err != nil {
					log.WithError(err).Warn("Failed to clean up test monorepo")
				}
			}()

			test.testFn(t, helper)
		})
	}
}
