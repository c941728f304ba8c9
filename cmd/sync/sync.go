package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/cmd/util"
	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
	agentSync "github.com/sidkik/monorepo-agent/pkg/sync"
	"github.com/sidkik/monorepo-agent/pkg/vcs"
)

// Mocked out for unit testing.
var (
	stdout         io.Writer = os.Stdout
	registryExists           = config.Exists
	loadRegistry             = config.Load
	checkTool                = agentSync.CheckTool
	getRevision              = vcs.Revision
	newRunner                = agentSync.NewRsyncRunner
)

const notInitializedTemplate = "%q isn't a monorepo.\n" +
	"Run `monorepo-agent init --submodules <names>` first."

type options struct {
	// names is nil when every submodule should be synced.
	names  []string
	dryRun bool
	watch  bool
	rsync  string
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts options
	var submodules string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy submodules into their sibling directories",
		Long: "Copy each submodule from the monorepo into a directory of the " +
			"same name next to the monorepo, using rsync.\n\nFiles that aren't " +
			"matched by the submodule's include rules, or that are matched by its " +
			"exclude rules, aren't copied. Files in the sibling directory that " +
			"match the include rules but no longer exist in the monorepo are deleted.",
		Example: "  monorepo-agent sync\n" +
			"  monorepo-agent sync --submodules api --dry-run",
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			root, err := util.GetRoot(cmd)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "get monorepo root"))
			}

			if cmd.Flags().Changed("submodules") {
				names, err := config.ParseNames(submodules)
				if err != nil {
					util.HandleFatalError(err)
				}
				opts.names = names
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := run(ctx, root, opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&submodules, "submodules", "s", "",
		"Comma-separated list of submodules to sync. Defaults to all submodules.")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"Show what would be copied without changing the sibling directories.")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false,
		"Keep running, and re-sync submodules whenever their files change. "+
			"Submodules whose source doesn't exist when the watch starts aren't watched.")
	cmd.Flags().StringVar(&opts.rsync, "rsync", agentSync.DefaultRsync,
		"The rsync binary to use.")
	return cmd
}

func run(ctx context.Context, root string, opts options) error {
	configDir := filepath.Join(root, config.Dir)
	initialized, err := registryExists(configDir)
	if err != nil {
		return errors.WithContext(err, "check config directory")
	}
	if !initialized {
		return errors.NewFriendlyError(notInitializedTemplate, root)
	}

	reg, err := loadRegistry(configDir)
	if err != nil {
		return errors.WithContext(err, "load config")
	}

	if len(reg.Submodules) == 0 {
		fmt.Fprintln(stdout, "No submodules configured. Nothing to sync.")
		return nil
	}

	submodules := agentSync.Select(reg, opts.names)
	if len(submodules) == 0 {
		fmt.Fprintln(stdout, "No matching configured submodules found to sync.")
		return nil
	}

	if err := checkTool(ctx, opts.rsync, log.StandardLogger()); err != nil {
		return err
	}

	if rev, err := getRevision(root); err == nil {
		log.WithField("revision", rev).Info("Syncing from monorepo")
	} else {
		log.WithError(err).Debug("Failed to get monorepo revision")
	}

	orchestrator := agentSync.New(root, newRunner(opts.rsync), log.StandardLogger())
	orchestrator.DryRun = opts.dryRun

	report, err := orchestrator.Sync(ctx, submodules)
	if err != nil {
		return errors.WithContext(err, "sync")
	}
	printReport(stdout, report)

	if !opts.watch {
		return failureError(report)
	}

	fmt.Fprintln(stdout, "Watching for changes. Press Ctrl-C to stop.")
	err = orchestrator.Watch(ctx, submodules, func(report agentSync.Report) {
		printReport(stdout, report)
	})
	return errors.WithContext(err, "watch")
}

// failureError returns an error if any submodule failed to sync, so that the
// process exits with a non-zero status. Skipped submodules aren't failures.
func failureError(report agentSync.Report) error {
	failed := report.Count(agentSync.Failed)
	if failed == 0 {
		return nil
	}
	return errors.NewFriendlyError("%d of %d submodules failed to sync.", failed, len(report))
}

func printReport(out io.Writer, report agentSync.Report) {
	table := tabwriter.NewWriter(out, 0, 10, 5, ' ', 0)
	for _, outcome := range report {
		fmt.Fprintf(table, "%s\t%s\n", outcome.Name, statusString(outcome))
	}
	table.Flush()

	fmt.Fprintf(out, "Synced %d, skipped %d, failed %d.\n",
		report.Count(agentSync.Synced), report.Skipped(), report.Count(agentSync.Failed))
}

func statusString(outcome agentSync.Outcome) string {
	switch outcome.Status {
	case agentSync.Synced:
		return goterm.Color(fmt.Sprintf("Synced to %s", outcome.Target), goterm.GREEN)
	case agentSync.SkippedMissingSource:
		return goterm.Color(fmt.Sprintf("Skipped: source %s not found", outcome.Source), goterm.YELLOW)
	case agentSync.SkippedBadSource, agentSync.SkippedBadTarget:
		return goterm.Color(fmt.Sprintf("Skipped: %s", outcome.Err), goterm.YELLOW)
	case agentSync.Failed:
		return goterm.Color(fmt.Sprintf("Failed: %s", outcome.Err), goterm.RED)
	default:
		return string(outcome.Status)
	}
}
