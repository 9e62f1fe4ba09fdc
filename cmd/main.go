package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ecn/internal/shared"
)

// EnvConfig names the config file; it defaults to ./config.toml.
const EnvConfig = "ECN_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			logger.Fatalf("failed to load %s: %v", configPath, err)
		}
		config = loaded
	} else {
		config.ApplyEnv()
	}
	logger.SetLevel(shared.ParseLevel(config.Logging.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	err := runner.app().Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	if err != nil {
		if errors.Is(err, shared.ErrCancelled) {
			logger.Warn("cancelled")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
