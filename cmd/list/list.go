package list

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sidkik/monorepo-agent/cmd/util"
	"github.com/sidkik/monorepo-agent/pkg/config"
	"github.com/sidkik/monorepo-agent/pkg/errors"
)

// Mocked out for unit testing.
var (
	stdout       io.Writer = os.Stdout
	loadRegistry           = config.Load
)

// New creates a new `list` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured submodules",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			root, err := util.GetRoot(cmd)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "get monorepo root"))
			}

			if err := run(root); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(root string) error {
	reg, err := loadRegistry(filepath.Join(root, config.Dir))
	if err != nil {
		return errors.WithContext(err, "load config")
	}

	if len(reg.Submodules) == 0 {
		fmt.Fprintln(stdout, "No submodules configured.")
		return nil
	}

	parent := filepath.Dir(filepath.Clean(root))
	out := tabwriter.NewWriter(stdout, 0, 10, 5, ' ', 0)
	defer out.Flush()

	fmt.Fprintln(out, "NAME\tSOURCE\tTARGET\tINCLUDE\tEXCLUDE")
	for _, submodule := range reg.Submodules {
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n",
			submodule.Name,
			submodule.Path,
			filepath.Join(parent, submodule.Name),
			strings.Join(submodule.Include, ","),
			strings.Join(submodule.Exclude, ","))
	}
	return nil
}
