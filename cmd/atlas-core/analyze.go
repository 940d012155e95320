package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/atlas-core/internal/core/services"
)

func classifyCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <query>",
		Short: "Show how a query would be routed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := services.NewQueryClassifier().Classify(strings.Join(args, " "))
			return printJSON(cmd, result)
		},
	}
}

func parseCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Show the filters extracted from a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent := services.NewQueryParser().Parse(strings.Join(args, " "))
			return printJSON(cmd, intent)
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
