package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [FILE]",
	Short: "Export the project tree visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the project tree. With --progress,
aggregating nodes are annotated with their counts and resolved realizations
are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSource(cmd, args)
		if err != nil {
			return err
		}
		defer p.Close()

		var overlay *graph.Overlay
		if withProgress, _ := cmd.Flags().GetBool("progress"); withProgress {
			overlay = graph.OverlayOf(p.Tree())
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(p.Tree(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	addSourceFlags(graphCmd)
	graphCmd.Flags().Bool("progress", false, "Overlay progress summaries")
}
