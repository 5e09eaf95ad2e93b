package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRulesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the learned matcher rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, st, _, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			active, err := st.Rules().ListActive(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TEXT\tTYPE\tAMOUNT\tTOLERANCE\tDAY\tHITS")
			for _, r := range active {
				amount, day := "-", "-"
				if r.MatcherAmount != nil {
					amount = r.MatcherAmount.StringFixed(2)
				}
				if r.MatcherDayOfMonth != nil {
					day = fmt.Sprintf("%d", *r.MatcherDayOfMonth)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					r.MatcherText, r.Type(), amount, r.AmountTolerance.StringFixed(2), day, r.HitCount)
			}
			return w.Flush()
		},
	}
	return cmd
}
