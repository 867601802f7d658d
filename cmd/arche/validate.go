package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche/pkg/record"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE...",
	Short: "Check project records for consistency",
	Long: `Decodes each record file (.yaml, .yml or .json) and assembles its tree,
reporting unknown kinds, missing attributes, invalid parameters and duplicate ids.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			if err := validateFile(path, out); err != nil {
				fmt.Fprintf(out, "✗ %s: %v\n", path, err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d records invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateFile(path string, out io.Writer) error {
	rec, err := readRecordFile(path)
	if err != nil {
		return err
	}
	t, err := record.BuildTree(rec)
	if err != nil {
		return err
	}
	defer t.Close()
	fmt.Fprintf(out, "✓ %s: %d nodes, %d aggregating\n", path, t.Len(), len(t.Aggregators()))
	return nil
}
