package main

import (
	"log"
	"os"

	"github.com/aretw0/boletim/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server on stdio",
	Long: `Starts the interview engine as an MCP server over standard input/output, so agents
can conduct interviews through tools. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		rt.Logger.Info("starting boletim MCP server (stdio)", "graph", rt.Engine.Name)
		if err := mcp.NewServer(rt.Engine).ServeStdio(); err != nil {
			rt.Logger.Error("MCP server execution failed", "err", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
