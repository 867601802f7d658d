package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/progress"
)

var replayCmd = &cobra.Command{
	Use:   "replay EVENTS [FILE]",
	Short: "Fold a JSONL file of progress deliveries into a project",
	Long: `Delivers each line of EVENTS, a JSON object such as
  {"type": "resolve", "count": 1, "id": "r1"}
  {"node": "project", "type": "solve", "count": 2}
to the project and prints the resulting summaries. Rejected deliveries are
logged and skipped.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openSource(cmd, args[1:])
		if err != nil {
			return err
		}
		defer p.Close()

		stats, err := replayFile(p, args[0])
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				replayStats
				Summaries map[string]progress.Summary `json:"summaries"`
			}{stats, aggregateSummaries(p)})
		}

		if err := writeSummaries(cmd.OutOrStdout(), p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d delivered, %d rejected\n", stats.Delivered, stats.Rejected)
		return nil
	},
}

func aggregateSummaries(p *arche.Project) map[string]progress.Summary {
	summaries := make(map[string]progress.Summary)
	for _, a := range p.Tree().Aggregators() {
		summaries[a.ID()] = a.Progress().Snapshot()
	}
	return summaries
}

// writeSummaries prints one row per aggregating node, in tree order.
func writeSummaries(out io.Writer, p *arche.Project) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tCOUNT\tRESOLVED")
	for _, a := range p.Tree().Aggregators() {
		s := a.Progress().Snapshot()
		resolved := "-"
		if s.IDs != nil {
			resolved = fmt.Sprint(s.IDs)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", a.ID(), s.Count, resolved)
	}
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("project", "", "Load the project from the configured store instead of a file")
	replayCmd.Flags().Bool("json", false, "Print summaries as JSON")
}
