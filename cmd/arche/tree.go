package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/arche/internal/presentation/tui"
)

var treeCmd = &cobra.Command{
	Use:   "tree [FILE]",
	Short: "Print a report of the project tree and its progress",
	Long: `Renders the node hierarchy and the summary of every aggregating node as
markdown. Output is styled with glamour when stdout is a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSource(cmd, args)
		if err != nil {
			return err
		}
		defer p.Close()

		report := tui.Report(p.Tree())

		raw, _ := cmd.Flags().GetBool("raw")
		if raw || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprint(cmd.OutOrStdout(), report)
			return nil
		}

		style, _ := cmd.Flags().GetString("style")
		render, err := tui.NewRenderer(style)
		if err != nil {
			return err
		}
		out, err := render(report)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	addSourceFlags(treeCmd)
	treeCmd.Flags().Bool("raw", false, "Print markdown without styling")
	treeCmd.Flags().String("style", "", "Glamour style (dark, light, notty); detected when empty")
}
