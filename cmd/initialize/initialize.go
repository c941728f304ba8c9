package initialize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/cmd/util"
	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// Mocked out for unit testing.
var (
	stdout             io.Writer = os.Stdout
	registerSubmodules           = config.RegisterSubmodules
)

// New creates a new `init` command.
func New() *cobra.Command {
	var submodules string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Register submodules in the monorepo configuration",
		Long: "Register submodules in .monorepo/config.json, creating it if " +
			"necessary.\n\nEach new submodule's source is the directory of the " +
			"same name in the monorepo root, and it only syncs the lib and test " +
			"directories and pubspec.yaml. Submodules that are already " +
			"configured are left untouched.",
		Example: "  monorepo-agent init --submodules api,web",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			root, err := util.GetRoot(cmd)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "get monorepo root"))
			}

			if err := run(root, submodules); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&submodules, "submodules", "s", "",
		"Comma-separated list of submodule names to register.")
	if err := cmd.MarkFlagRequired("submodules"); err != nil {
		panic(err)
	}
	return cmd
}

func run(root, submodulesCSV string) error {
	names, err := config.ParseNames(submodulesCSV)
	if err != nil {
		return err
	}

	results, err := registerSubmodules(filepath.Join(root, config.Dir), names)
	if err != nil {
		return errors.WithContext(err, "register submodules")
	}

	for _, result := range results {
		if result.Added {
			fmt.Fprintf(stdout, "Added submodule: %s\n", result.Name)
		} else {
			fmt.Fprintf(stdout, "Submodule %s already configured.\n", result.Name)
		}
	}
	fmt.Fprintf(stdout, "Monorepo initialized with submodules: %s\n", strings.Join(names, ", "))
	return nil
}
