package version

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/cmd/util"
	"github.com/sidkik/monorepo-agent/pkg/sync"
	"github.com/sidkik/monorepo-agent/pkg/version"
)

// Mocked out for unit testing.
var (
	stdout      io.Writer = os.Stdout
	toolVersion           = sync.ToolVersion
)

// New creates a new `version` command.
func New() *cobra.Command {
	var rsyncBinary string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of monorepo-agent and rsync.",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(context.Background(), rsyncBinary); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&rsyncBinary, "rsync", sync.DefaultRsync,
		"The rsync binary to report the version of.")
	return cmd
}

func run(ctx context.Context, rsyncBinary string) error {
	fmt.Fprintf(stdout, "local version: %s\n", version.Version)

	rsyncVersion, err := toolVersion(ctx, rsyncBinary)
	if err != nil {
		// The CLI version is still useful when rsync is missing.
		fmt.Fprintf(stdout, "rsync version: unknown (%s)\n", err)
		return nil
	}
	fmt.Fprintf(stdout, "rsync version: %s\n", rsyncVersion)
	return nil
}
