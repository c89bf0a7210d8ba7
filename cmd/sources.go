package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/matchrate/internal/waterfall/provider"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the identity sources this build can query",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "SOURCE\tFAMILY")
		for _, name := range provider.Known {
			fam, _ := provider.KnownFamily(name)
			_, _ = fmt.Fprintf(w, "%s\t%s\n", name, fam)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
