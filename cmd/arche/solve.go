package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche/pkg/adapters/process"
	"github.com/aretw0/arche/pkg/progress"
)

var solveCmd = &cobra.Command{
	Use:   "solve SOLVER [FILE]",
	Short: "Run a registered solver and fold its progress into a project",
	Long: `Runs SOLVER from the solvers file. Every stdout line the solver prints as a
JSON delivery, the same shape replay reads, is posted to the project while
the process runs. Parameters are passed as ARCHE_<KEY> environment variables.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		solversPath, _ := cmd.Flags().GetString("solvers")
		solvers, err := process.LoadSolvers(solversPath)
		if err != nil {
			return err
		}
		params, err := parseParams(mustStringSlice(cmd, "param"))
		if err != nil {
			return err
		}
		workDir, _ := cmd.Flags().GetString("workdir")

		p, err := openSource(cmd, args[1:])
		if err != nil {
			return err
		}
		defer p.Close()

		runner := process.NewRunner(
			process.WithRegistry(solvers),
			process.WithBaseDir(workDir),
			process.WithLogger(logger),
		)
		res, err := runner.Run(cmd.Context(), args[0], p, params)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				process.Result
				Summaries map[string]progress.Summary `json:"summaries"`
			}{res, aggregateSummaries(p)}); err != nil {
				return err
			}
		} else {
			if err := writeSummaries(cmd.OutOrStdout(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d delivered, %d rejected, %d ignored\n", res.Delivered, res.Rejected, res.Ignored)
		}

		if res.ExitCode != 0 {
			return fmt.Errorf("solver %s exited with code %d", args[0], res.ExitCode)
		}
		return nil
	},
}

// parseParams splits KEY=VALUE pairs.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected KEY=VALUE", pair)
		}
		params[k] = v
	}
	return params, nil
}

func mustStringSlice(cmd *cobra.Command, name string) []string {
	v, err := cmd.Flags().GetStringArray(name)
	if err != nil {
		panic(err)
	}
	return v
}

func init() {
	rootCmd.AddCommand(solveCmd)
	addSourceFlags(solveCmd)
	solveCmd.Flags().String("solvers", "solvers.yaml", "Solver registry file (YAML or JSON)")
	solveCmd.Flags().String("workdir", "", "Working directory for the solver process")
	solveCmd.Flags().StringArray("param", nil, "Solver parameter as KEY=VALUE (repeatable)")
	solveCmd.Flags().Bool("json", false, "Print the run result and summaries as JSON")
}
