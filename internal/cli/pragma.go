package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strata-db/strata/internal/sqlite"
)

func newUserVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-version [value]",
		Short: "Read or set the database's user_version pragma",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLease(func(lease *sqlite.Lease) error {
				if len(args) == 0 {
					v, err := sqlite.UserVersion(lease.DB())
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
					return nil
				}

				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("user_version must be an integer, got %q", args[0])
				}
				log, err := newLogger()
				if err != nil {
					return err
				}
				defer log.Sync()
				log.Info("setting user_version", zap.Int("value", v))
				return sqlite.SetUserVersion(lease.DB(), v)
			})
		},
	}
	return cmd
}

func newEngineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engine",
		Short: "Show the SQLite engine version and capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLease(func(lease *sqlite.Lease) error {
				v, err := sqlite.Version(lease.DB())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sqlite %s\n", v)
				fmt.Fprintf(cmd.OutOrStdout(), "native drop column: %v\n", sqlite.SupportsDropColumn(v))
				return nil
			})
		},
	}
}
