package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/shared"
)

const configPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(nil)
	if err := config.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	store, closeStore := kv.Open(ctx, config, shared.WithLogger(logger, "component", "kv"))
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close storage", "error", err)
		}
	}()

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Store:      store,
		Logger:     logger,
	})

	app := rootCommand(runner)

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			return
		}
		closeStore()
		logger.Fatalf("application error: %v", err)
	}
}
