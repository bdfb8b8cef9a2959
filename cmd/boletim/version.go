package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/boletim"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of boletim",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "boletim version %s\n", strings.TrimSpace(boletim.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
