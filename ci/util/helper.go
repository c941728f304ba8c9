package util

import (
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// TestHelper runs the monorepo-agent binary against a temporary monorepo.
type TestHelper struct {
	// Binary is the monorepo-agent binary under test.
	Binary string

	// Root is the monorepo root. Submodules are synced into its parent,
	// Parent, which is removed by Cleanup.
	Root   string
	Parent string
}

// NewTestHelper creates an empty monorepo in a temporary directory.
func NewTestHelper(binary string) (*TestHelper, error) {
	parent, err := ioutil.TempDir("", "monorepo-agent-ci")
	if err != nil {
		return nil, errors.WithContext(err, "make temp dir")
	}

	root := filepath.Join(parent, "mono")
	if err := os.Mkdir(root, 0755); err != nil {
		return nil, errors.WithContext(err, "make monorepo dir")
	}

	return &TestHelper{Binary: binary, Root: root, Parent: parent}, nil
}

// Run runs the binary with `args` against the monorepo, and returns its
// combined output.
func (helper *TestHelper) Run(args ...string) (string, error) {
	args = append([]string{"--root", helper.Root}, args...)
	cmd := exec.Command(helper.Binary, args...)
	cmd.Env = append(os.Environ(), "MONOREPO_AGENT_LOG_VERBOSE=true")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// Cleanup removes the monorepo and every synced directory.
func (helper *TestHelper) Cleanup() error {
	return os.RemoveAll(helper.Parent)
}
