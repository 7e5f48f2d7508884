package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
)

func newNextCmd() *cobra.Command {
	var (
		weekly  string
		monthly string
		from    string
		sameDay string
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next occurrence of a repeat rule",
		Example: `  dailytasks next --weekly mon,fri --from 2024-05-15
  dailytasks next --monthly 31 --from 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rule recurrence.Rule
			var err error
			switch {
			case weekly != "" && monthly != "":
				return planerr.New(planerr.InvalidInput, "use either --weekly or --monthly")
			case weekly != "":
				rule, err = recurrence.ParseRule(string(recurrence.KindWeekly), weekly)
			case monthly != "":
				rule, err = recurrence.ParseRule(string(recurrence.KindMonthly), monthly)
			default:
				return planerr.New(planerr.InvalidInput, "one of --weekly or --monthly is required")
			}
			if err != nil {
				return err
			}

			policy, err := recurrence.ParseSameWeekdayPolicy(sameDay)
			if err != nil {
				return err
			}

			base := calendar.Today(time.Local)
			if from != "" {
				if base, err = calendar.Parse(from); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			next, ok := recurrence.Resolver{SameWeekday: policy}.Next(rule, base.In(time.Local))
			if !ok {
				fmt.Fprintf(out, "%s from %s: no next occurrence\n", recurrence.Describe(rule), base)
				return nil
			}
			fmt.Fprintf(out, "%s\n", calendar.DateOf(next))
			return nil
		},
	}
	cmd.Flags().StringVar(&weekly, "weekly", "", "weekday set, e.g. mon,fri")
	cmd.Flags().StringVar(&monthly, "monthly", "", "day of month, e.g. 10")
	cmd.Flags().StringVar(&from, "from", "", "base date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&sameDay, "same-day", "strict", "weekly rule whose only day is the base weekday: strict or next-week")
	return cmd
}
