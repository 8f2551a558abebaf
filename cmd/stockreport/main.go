package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockreport/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var configFiles configPaths // Multiple -config flags supported

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&reportCmd{}, "reports")
	commander.Register(&scheduleCmd{}, "reports")
	commander.Register(&portfoliosCmd{}, "portfolios")
	commander.Register(&versionCmd{}, "")

	flag.Parse()

	// SIGINT/SIGTERM cancel the run; in-flight pipelines finish or abort and the
	// summary is still printed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// setup loads configuration and initializes logging.
// Startup order: defaults -> config files -> env -> CLI overrides, then logger and banner.
func setup(overrides func(*common.Config)) (*common.Config, arbor.ILogger, error) {
	if len(configFiles) == 0 {
		if _, err := os.Stat("stockreport.toml"); err == nil {
			configFiles = append(configFiles, "stockreport.toml")
		} else if _, err := os.Stat("deployments/local/stockreport.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/stockreport.toml")
		}
	}

	// A .env file supplies API keys without exporting them; real environment variables win.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration %v: %w", []string(configFiles), err)
	}

	if overrides != nil {
		overrides(config)
		if err := config.Validate(); err != nil {
			return nil, nil, err
		}
	}

	logger := common.InitLogger(config)
	if config.Logging.File != "" {
		common.InstallCrashHandler(filepath.Dir(config.Logging.File))
	}
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Msg("Application configuration loaded")

	return config, logger, nil
}
