package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yourusername/hsm-rebalance/internal/config"
	"github.com/yourusername/hsm-rebalance/pkg/logging"
)

type rootFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "hsm-rebalance",
		Short:         "Hardware-aware cluster membership rebalancer",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Init(logging.Config{Level: f.logLevel, Format: f.logFormat})
		},
	}

	cmd.PersistentFlags().StringVar(&f.configFile, "config", "config.yaml", "path to configuration file")
	cmd.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&f.logFormat, "log-format", "console", "log format: json, console")

	cmd.AddCommand(newPlanCommand(f))
	cmd.AddCommand(newExplainCommand(f))
	cmd.AddCommand(newValidateCommand(f))
	cmd.AddCommand(newPatternCommand(f))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig reads and validates the configuration file named by f.
func loadConfig(f *rootFlags) (*config.Config, error) {
	logging.Debug("loading configuration", "file", f.configFile)
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", f.configFile, err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Warn("received signal, shutting down", "signal", sig)
		cancel()
	}()

	return ctx, cancel
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("hsm-rebalance\n  Version:    %s\n  Build Time: %s\n  Git Commit: %s\n", version, buildTime, gitCommit)
			return nil
		},
	}
}
