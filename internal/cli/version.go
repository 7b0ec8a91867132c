package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	modulePath = "github.com/strata-db/strata"

	// Version is the strata release version.
	Version = "0.1.0"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the strata version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "strata v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
