package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	// cfg is the loaded config file, shared by the subcommands.
	cfg Config
)

func globalFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
	}, loggingFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

// setupLogging loads the config file and installs the logger in ctx.
func setupLogging(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loaded, err := LoadConfig(configFile)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 2)
	}
	cfg = loaded
	applyLoggingConfig(cmd, cfg, &logLevel, &logFormat)

	level, err := logger.ParseLevel(logLevel)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 2)
	}
	if debug {
		level = slog.LevelDebug
	}
	log, err := logger.New(logFormat, level, os.Stderr)
	if err != nil {
		return ctx, cli.Exit(err.Error(), 2)
	}
	if configFile != "" {
		log.Debug("config loaded", "path", configFile)
	}
	return logger.WithContext(ctx, log), nil
}

func exitf(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), 1)
}
