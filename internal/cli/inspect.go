package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strata-db/strata/internal/sqlite"
)

// withLease resolves the database path, opens a connection reference,
// and runs fn against it.
func withLease(fn func(lease *sqlite.Lease) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database %q: %w", path, err)
	}

	conn := sqlite.NewConnection(path)
	lease, err := conn.Lease()
	if err != nil {
		return err
	}
	defer lease.Close()
	return fn(lease)
}

func newTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLease(func(lease *sqlite.Lease) error {
				rows, err := lease.DB().Query(
					`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
				if err != nil {
					return fmt.Errorf("listing tables: %w", err)
				}
				defer rows.Close()
				for rows.Next() {
					var name string
					if err := rows.Scan(&name); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return rows.Err()
			})
		},
	}
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "Show the live columns of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLease(func(lease *sqlite.Lease) error {
				table := args[0]
				exists, err := sqlite.TableExists(lease.DB(), table)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("no such table: %q", table)
				}
				cols, err := sqlite.TableInfo(lease.DB(), table)
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tTYPE\tNOTNULL\tDEFAULT\tPK\tGENERATED")
				for _, c := range cols {
					generated := ""
					switch c.Hidden {
					case 2:
						generated = "virtual"
					case 3:
						generated = "stored"
					}
					fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%d\t%s\n",
						c.Name, c.Type, c.NotNull, c.Default, c.PK, generated)
				}
				return w.Flush()
			})
		},
	}
}
