package sync

//go:generate mockery -name Runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultRsync is the rsync binary used when none is configured.
const DefaultRsync = "rsync"

// Mocked out for unit testing.
var runCommand = (*exec.Cmd).Run

// Runner runs the external sync tool.
type Runner interface {
	// Run invokes the tool with the given arguments and blocks until it
	// exits. The combined output of the tool is always returned, even if it
	// fails.
	Run(ctx context.Context, args []string) ([]byte, error)
}

type rsyncRunner struct {
	binary string
}

// NewRsyncRunner returns a Runner that executes `binary`.
func NewRsyncRunner(binary string) Runner {
	if binary == "" {
		binary = DefaultRsync
	}
	return rsyncRunner{binary: binary}
}

func (r rsyncRunner) Run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := runCommand(cmd)
	return output.Bytes(), err
}

// ToolError is recorded when rsync exits unsuccessfully.
type ToolError struct {
	Err    error
	Output string
}

func newToolError(err error, output []byte) ToolError {
	return ToolError{Err: err, Output: strings.TrimSpace(string(output))}
}

func (err ToolError) Error() string {
	if err.Output == "" {
		return fmt.Sprintf("rsync: %s", err.Err)
	}
	return fmt.Sprintf("rsync: %s: %s", err.Err, err.Output)
}

func (err ToolError) Unwrap() error {
	return err.Err
}

// rsyncFlags make the target a strict mirror of the source. Permissions and
// ownership aren't copied since the sibling directories are independent
// working copies.
var rsyncFlags = []string{
	"-a",
	"--delete",
	"--times",
	"--no-perms",
	"--no-owner",
	"--no-group",
}

// RsyncArgs returns the arguments for mirroring `source` into `target`.
func RsyncArgs(source, target string, include, exclude []string, dryRun bool) []string {
	args := append([]string{}, rsyncFlags...)
	if dryRun {
		args = append(args, "--dry-run", "--itemize-changes")
	}
	args = append(args, FilterArgs(include, exclude)...)

	// The trailing separator makes rsync copy the contents of the source,
	// rather than the source directory itself.
	source = strings.TrimRight(source, string(filepath.Separator)) + string(filepath.Separator)
	return append(args, source, target)
}
