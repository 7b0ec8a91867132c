package cli

import (
	"fmt"

	"github.com/spf13/viper"
)

const (
	configFileName = ".strata"
	configFileType = "yaml"

	// Config keys.
	cfgKeyDatabase = "database"
)

// loadConfig reads the YAML config with Viper. With an explicit path
// the file must exist; otherwise .strata.yaml is searched in the
// working directory and a missing file is not an error.
func loadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		return v, nil
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}
