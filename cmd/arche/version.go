package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/pkg/record"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of arche",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "arche version %s (record format v%d)\n",
			strings.TrimSpace(arche.Version), record.SupportedVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
