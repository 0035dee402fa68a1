/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the nfareduce commands. Provides common
configuration loading and logging setup used across all command
implementations.
*/

package commands

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/kleascm/nfareduce/pkg/logging"
)

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("NFAREDUCE")
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system from the loaded configuration
func SetupLogging() (*logging.Logger, error) {
	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		Colors:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}
