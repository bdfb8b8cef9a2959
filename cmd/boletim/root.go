package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/boletim/internal/cli"
	"github.com/aretw0/boletim/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boletim",
	Short: "Boletim conducts sectioned incident-report interviews",
	Long: `Boletim walks an operator through a sectioned questionnaire, one question at a time,
with yes/no gates that open or skip follow-ups, and keeps a resumable draft of every session.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("graph", "g", "", "Interview definition: a .yaml/.json file or a markdown directory (overrides BOLETIM_GRAPH)")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file, redis or sqlite (overrides BOLETIM_STORE)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("graph") {
		cfg.Graph, _ = cmd.Flags().GetString("graph")
	}
	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.NewLogger(cfg.LogLevel, debug)
}

// setup loads configuration and wires a runtime for commands that drive the engine.
func setup(cmd *cobra.Command) (config.Config, *cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	rt, err := cli.Build(cfg, logger)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, rt, nil
}
