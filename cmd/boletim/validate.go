package main

import (
	"fmt"

	"github.com/aretw0/boletim"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check an interview definition for consistency",
	Long: `Loads the definition and builds its graph, reporting every structural error:
unknown follow-ups, backward jumps, unreachable nodes, bad validation rules.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := graphPath(cmd, args)
		if err != nil {
			return err
		}

		// Loading is enough: the memory store is never touched.
		eng, err := boletim.New(path)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		g := eng.Graph()
		questions := 0
		for _, id := range g.Sections() {
			questions += g.Size(id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Boletim '%s' is valid: %d sections, %d questions ✅\n", eng.Name, g.SectionCount(), questions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// graphPath resolves the definition from the argument, the flag or the environment.
func graphPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Graph, nil
}
