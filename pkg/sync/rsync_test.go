package sync

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRsyncRunner(t *testing.T) {
	defer func() { runCommand = (*exec.Cmd).Run }()

	var ran *exec.Cmd
	runCommand = func(cmd *exec.Cmd) error {
		ran = cmd
		_, err := cmd.Stdout.Write([]byte("sending incremental file list\n"))
		return err
	}

	out, err := NewRsyncRunner("").Run(context.Background(), []string{"-a", "src/", "dst"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rsync", "-a", "src/", "dst"}, ran.Args)
	assert.Equal(t, "sending incremental file list\n", string(out))

	runCommand = func(cmd *exec.Cmd) error {
		ran = cmd
		if _, err := cmd.Stderr.Write([]byte("rsync error: some files could not be transferred")); err != nil {
			return err
		}
		return assert.AnError
	}

	out, err = NewRsyncRunner("/opt/bin/rsync").Run(context.Background(), []string{"src/", "dst"})
	assert.Equal(t, assert.AnError, err)
	assert.Equal(t, []string{"/opt/bin/rsync", "src/", "dst"}, ran.Args)
	assert.Equal(t, "rsync error: some files could not be transferred", string(out))
}

func TestRsyncArgs(t *testing.T) {
	include := []string{"lib/***", "pubspec.yaml"}
	exclude := []string{"*"}

	tests := []struct {
		name   string
		source string
		dryRun bool
		exp    []string
	}{
		{
			name:   "Sync",
			source: "/work/mono/api",
			exp: []string{
				"-a", "--delete", "--times", "--no-perms", "--no-owner", "--no-group",
				"--include=lib/***", "--include=pubspec.yaml", "--exclude=*",
				"/work/mono/api/", "/work/api",
			},
		},
		{
			name:   "SourceWithTrailingSeparators",
			source: "/work/mono/api//",
			exp: []string{
				"-a", "--delete", "--times", "--no-perms", "--no-owner", "--no-group",
				"--include=lib/***", "--include=pubspec.yaml", "--exclude=*",
				"/work/mono/api/", "/work/api",
			},
		},
		{
			name:   "DryRun",
			source: "/work/mono/api",
			dryRun: true,
			exp: []string{
				"-a", "--delete", "--times", "--no-perms", "--no-owner", "--no-group",
				"--dry-run", "--itemize-changes",
				"--include=lib/***", "--include=pubspec.yaml", "--exclude=*",
				"/work/mono/api/", "/work/api",
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			args := RsyncArgs(test.source, "/work/api", include, exclude, test.dryRun)
			assert.Equal(t, test.exp, args)
		})
	}

	// The shared flags must not be modified by appending to the result.
	RsyncArgs("/a", "/b", []string{"x"}, nil, true)
	assert.Len(t, rsyncFlags, 6)
}

func TestToolError(t *testing.T) {
	err := newToolError(assert.AnError, []byte("  rsync: link_stat failed\n\n"))
	assert.Equal(t, "rsync: link_stat failed", err.Output)
	assert.EqualError(t, err, "rsync: "+assert.AnError.Error()+": rsync: link_stat failed")
	assert.Equal(t, assert.AnError, err.Unwrap())

	err = newToolError(assert.AnError, nil)
	assert.EqualError(t, err, "rsync: "+assert.AnError.Error())
}
