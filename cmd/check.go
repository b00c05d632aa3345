package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <input.osm>",
	Short: "Report conversion diagnostics without writing GeoJSON",
	Long: `Run the full conversion and print every diagnostic (dangling references,
missing members, unclosed or unassigned rings) followed by a summary.
Nothing is written. Combine with --fail-on-warnings for use in CI.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: loadConfig,
	RunE:    runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	conversionFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	result, err := runConversion(cfg)
	if result == nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range result.Warnings {
		fmt.Fprintln(out, w.String())
	}

	s := result.Stats
	fmt.Fprintf(out, "%s nodes, %s ways, %s relations -> %s features (%d diagnostics)\n",
		humanize.Comma(int64(s.Nodes)),
		humanize.Comma(int64(s.Ways)),
		humanize.Comma(int64(s.Relations)),
		humanize.Comma(int64(s.Features())),
		len(result.Warnings),
	)
	return err
}
