package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/boletim"
	"github.com/aretw0/boletim/internal/cli"
	"github.com/aretw0/boletim/internal/presentation/tui"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Conduct an interview in the terminal",
	Long: `Starts an interactive interview on stdin/stdout. With --session an existing draft is
resumed, or a new session is opened under that id. Type :q to save and leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		quiet, _ := cmd.Flags().GetBool("quiet")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		var extra []boletim.Option
		if sessionID != "" {
			extra = append(extra, boletim.WithIDGenerator(func() string { return sessionID }))
		}
		rt, err := cli.Build(cfg, logger, extra...)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		interactive := cli.IsTerminal(os.Stdin) && cli.IsTerminal(os.Stdout)
		if interactive && !quiet {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(boletim.Version))
		}

		id, err := cli.Run(ctx, rt.Engine, os.Stdin, os.Stdout, cli.RunOptions{
			SessionID: sessionID,
			Renderer:  cli.RendererFor(os.Stdout),
			Quiet:     quiet || !interactive,
		})
		if sig := ctx.Signal(); sig != nil {
			fmt.Fprintf(os.Stderr, "\nInterrompido (%v). Sessão '%s' salva.\n", sig, id)
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session id to resume or create")
	runCmd.Flags().BoolP("quiet", "q", false, "Skip the banner and system messages")

	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
