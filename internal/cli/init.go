package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/strata-db/strata/internal/paths"
	"github.com/strata-db/strata/internal/sqlite"
)

// configYAML holds the structure written to .strata.yaml.
type configYAML struct {
	Database string `yaml:"database"`
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a strata database",
		Long:  "Create the database file and a .strata.yaml config pointing at it.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	path := flags.dbPath
	if path == "" {
		path = paths.DefaultDatabaseName
	}

	// Opening a lease creates the file and verifies the engine works.
	conn := sqlite.NewConnection(path)
	lease, err := conn.Lease()
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize database: %s", err))
	}
	if err := lease.DB().Ping(); err != nil {
		_ = lease.Close()
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize database: %s", err))
	}
	if err := lease.Close(); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("finalize database: %s", err))
	}

	if err := writeConfigIfMissing(configFileName+"."+configFileType, path); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("write config: %s", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized database %s\n", path)
	return nil
}

// writeConfigIfMissing creates the config file with default values if
// it does not exist. An existing file is left alone.
func writeConfigIfMissing(path, database string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configYAML{Database: database}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// exitError prints the error to stderr and exits with the given code.
func exitError(cmd *cobra.Command, code int, msg string) error {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
	return nil // unreachable
}
