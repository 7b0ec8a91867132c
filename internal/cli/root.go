// Package cli implements the strata command-line interface: schema
// inspection and version pragma management for SQLite database files.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/strata-db/strata/internal/paths"
)

const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
	dbPath     string
	verbose    bool
}

var flags rootFlags

// NewRootCmd creates the top-level "strata" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strata",
		Short: "Schema inspection and versioning for SQLite databases",
		Long: "Strata inspects SQLite database files: live tables and columns,\n" +
			"the user_version pragma, and the engine's schema capabilities.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: .strata.yaml)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "database file (overrides config)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log sync and migration decisions")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newTablesCmd())
	root.AddCommand(newColumnsCmd())
	root.AddCommand(newUserVersionCmd())
	root.AddCommand(newEngineCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// newLogger builds the command logger. Verbose mode uses zap's
// development encoder; otherwise decisions are not logged.
func newLogger() (*zap.Logger, error) {
	if !flags.verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// resolveDBPath returns the database path: the --db flag, then the
// config file's database key, then the STRATA_DB env, then the platform
// default location.
func resolveDBPath() (string, error) {
	cfgPath, err := paths.ResolveConfigFile(flags.configFile)
	if err != nil {
		return "", err
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	return paths.ResolveDatabase(flags.dbPath, cfg.GetString(cfgKeyDatabase))
}
