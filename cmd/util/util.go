package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// RootFlag is the persistent flag that overrides the monorepo root.
const RootFlag = "root"

// Mocked out for unit testing.
var (
	stderr              io.Writer = os.Stderr
	exit                          = os.Exit
	getWorkingDirectory           = os.Getwd
)

// HandleFatalError reports `err` and exits. If the root cause of the error is
// a FriendlyError, only its friendly message is shown.
func HandleFatalError(err error) {
	if msg, ok := errors.GetFriendlyMessage(err); ok {
		fmt.Fprintln(stderr, msg)
	} else {
		log.Error(err)
	}
	exit(1)
}

// HandlePanic logs the stack trace of a panic before crashing.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Error("Unexpected panic")
		panic(r)
	}
}

// ResolveRoot returns the absolute path to the monorepo root. An empty `root`
// resolves to the working directory. A leading `~` is expanded to the user's
// home directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		wd, err := getWorkingDirectory()
		if err != nil {
			return "", errors.WithContext(err, "get working directory")
		}
		return wd, nil
	}

	expanded, err := homedir.Expand(root)
	if err != nil {
		return "", errors.WithContext(err, "expand home directory")
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.WithContext(err, "get absolute path")
	}
	return abs, nil
}

// GetRoot resolves the monorepo root selected by the `--root` flag of `cmd`.
func GetRoot(cmd *cobra.Command) (string, error) {
	root, err := cmd.Flags().GetString(RootFlag)
	if err != nil {
		return "", errors.WithContext(err, "read flag")
	}
	return ResolveRoot(root)
}
