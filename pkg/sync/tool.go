package sync

import (
	"context"
	"os/exec"
	"regexp"

	goversion "github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// Mocked out for unit testing.
var (
	lookPath      = exec.LookPath
	outputCommand = (*exec.Cmd).Output
)

// minRsyncVersion is the first rsync release that understands the `***`
// wildcard used by the default include rules.
var minRsyncVersion = goversion.Must(goversion.NewVersion("2.6.7"))

// Matches both `rsync  version 3.2.7  protocol version 31` and the
// `rsync version 2.6.9 compatible` line printed by openrsync.
var rsyncVersionPattern = regexp.MustCompile(`rsync\s+version\s+v?(\d+(?:\.\d+)*)`)

const toolNotFoundTemplate = "Couldn't find %q on your PATH.\n" +
	"monorepo-agent uses rsync to copy files into the sibling directories. " +
	"Install rsync, or point --rsync at the binary."

// ToolVersion returns the version reported by `binary --version`.
func ToolVersion(ctx context.Context, binary string) (*goversion.Version, error) {
	path, err := lookPath(binary)
	if err != nil {
		return nil, errors.WithContext(err, "find binary")
	}

	out, err := outputCommand(exec.CommandContext(ctx, path, "--version"))
	if err != nil {
		return nil, errors.WithContext(err, "run")
	}
	return parseToolVersion(out)
}

func parseToolVersion(out []byte) (*goversion.Version, error) {
	match := rsyncVersionPattern.FindSubmatch(out)
	if match == nil {
		return nil, errors.New("no version in output")
	}

	version, err := goversion.NewVersion(string(match[1]))
	if err != nil {
		return nil, errors.WithContext(err, "parse version")
	}
	return version, nil
}

// CheckTool verifies that `binary` can be run before any submodules are
// synced. A missing binary is fatal since every sync would fail. Problems
// determining the version are only logged.
func CheckTool(ctx context.Context, binary string, log logrus.FieldLogger) error {
	if _, err := lookPath(binary); err != nil {
		return errors.NewFriendlyError(toolNotFoundTemplate, binary)
	}

	version, err := ToolVersion(ctx, binary)
	if err != nil {
		log.WithError(err).Warnf("Failed to determine the version of %s", binary)
		return nil
	}

	log.WithField("version", version.String()).Debugf("Found %s", binary)
	if version.LessThan(minRsyncVersion) {
		log.Warnf("%s %s is older than %s. Include rules using `***` may not "+
			"match as expected.", binary, version, minRsyncVersion)
	}
	return nil
}
