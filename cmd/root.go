package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/cmd/initialize"
	"github.com/sidkik/monorepo-agent/cmd/list"
	syncCmd "github.com/sidkik/monorepo-agent/cmd/sync"
	"github.com/sidkik/monorepo-agent/cmd/util"
	"github.com/sidkik/monorepo-agent/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "MONOREPO_AGENT_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "monorepo-agent",
		Short:        "Sync monorepo submodules into sibling directories",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(util.RootFlag, "",
		"The monorepo root. Defaults to the current directory.")
	rootCmd.AddCommand(
		initialize.New(),
		list.New(),
		syncCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
