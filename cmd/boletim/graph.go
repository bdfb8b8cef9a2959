package main

import (
	"fmt"

	"github.com/aretw0/boletim/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the interview flow as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart with one subgraph per section. With --session the answered
steps and the current question of that session are highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		_, rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			ctx := cmd.Context()
			draft, err := rt.Engine.Draft(ctx, sessionID)
			if err != nil {
				return err
			}
			overlay = &graph.GraphOverlay{CurrentStep: draft.CurrentStepID}
			for stepID := range draft.Answers {
				overlay.AnsweredSteps = append(overlay.AnsweredSteps, stepID)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(rt.Engine.Graph(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the progress of this session")
}
