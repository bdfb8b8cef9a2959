package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/boletim/internal/cli"
	"github.com/aretw0/boletim/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `List, inspect, and remove the sessions kept by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.ListSessions(cmd.Context(), store, cmd.OutOrStdout())
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the stored record of a session with answers masked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reveal, _ := cmd.Flags().GetBool("reveal")
		mask := cli.MaskAll
		if reveal {
			mask = nil
		}
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.InspectSession(cmd.Context(), store, args[0], mask, cmd.OutOrStdout())
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			var errs []error
			for _, sessionID := range args {
				if err := cli.RemoveSession(cmd.Context(), store, sessionID, cmd.OutOrStdout()); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionInspectCmd.Flags().Bool("reveal", false, "Show answers and narratives in clear text")
}

func withStore(cmd *cobra.Command, fn func(ports.SessionStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, closer, err := cli.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	defer closer.Close()
	return fn(store)
}
