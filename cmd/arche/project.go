package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche/pkg/record"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects in the configured store",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored project ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.close()

		ids, err := b.store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var projectImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Validate a record file and save it to the store",
	Long: `Builds the tree of FILE to validate it, then saves the record under --id
(defaults to the root node id). Fails if the id is already stored unless
--force is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rec, err := readRecordFile(args[0])
		if err != nil {
			return err
		}

		projectID, _ := cmd.Flags().GetString("id")
		if projectID == "" {
			projectID = rec.ID
		}
		force, _ := cmd.Flags().GetBool("force")

		b, err := openBackend(ctx, cfg)
		if err != nil {
			return err
		}
		defer b.close()
		mgr := b.manager(cfg)
		defer mgr.CloseAll()

		if force {
			if err := mgr.Delete(ctx, projectID); err != nil {
				return err
			}
		}
		p, err := mgr.Create(ctx, projectID, rec)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d nodes)\n", projectID, p.Tree().Len())
		return nil
	},
}

var projectExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Print a stored project record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := record.ParseFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		p, err := loadStored(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer p.Close()

		rec, err := p.Record()
		if err != nil {
			return err
		}
		data, err := record.Marshal(rec, format)
		if err != nil {
			return err
		}
		out := string(data)
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete stored projects",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.close()
		mgr := b.manager(cfg)

		for _, id := range args {
			if err := mgr.Delete(cmd.Context(), id); err != nil {
				return err
			}
			logger.Info("Project deleted", "project_id", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd, projectImportCmd, projectExportCmd, projectDeleteCmd)

	projectImportCmd.Flags().String("id", "", "Project id (defaults to the root node id)")
	projectImportCmd.Flags().Bool("force", false, "Replace an existing project")
	projectExportCmd.Flags().String("format", "yaml", "Output format: yaml or json")
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
