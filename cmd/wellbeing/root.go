package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"wellbeing/internal/config"
	"wellbeing/internal/storage"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Screen time session timer with enforced breaks",
		Long:          "wellbeing counts down a usage session, warns before it ends and covers the screen for a break when it does.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDesktop(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/wellbeing/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newSettingsCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newAutostartCmd())

	return rootCmd
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the tray application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDesktop(cmd, opts)
		},
	}
}

func (opts *rootOptions) path() string {
	if opts.configPath != "" {
		return opts.configPath
	}
	return config.DefaultConfigPath()
}

func (opts *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(opts.path())
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (opts *rootOptions) setupLogging(cmd *cobra.Command) error {
	level := opts.logLevel
	if level == "" {
		if cfg, err := opts.loadConfig(); err == nil {
			level = cfg.LogLevel
		}
	}
	parsed, err := config.ParseLogLevel(level)
	if err != nil {
		return err
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: parsed})
	slog.SetDefault(slog.New(handler))
	return nil
}

func (opts *rootOptions) openStore() (*storage.Store, config.Config, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	store, err := storage.Open(cfg.DBPath())
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open db: %w", err)
	}
	return store, cfg, nil
}
