package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"daily-tasks/internal/app"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the today list from due dates",
		Long: `Clears every today flag and flags the tasks due today. Without --force
nothing happens when the list was already rebuilt today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				res, err := a.Today.Run(cmd.Context(), force)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Skipped {
					fmt.Fprintf(out, "Already refreshed for %s (use --force to run again)\n", res.Day)
					return nil
				}
				fmt.Fprintf(out, "Refreshed %s: cleared %d, set %d\n", res.Day, res.Cleared, res.Set)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "run even if already refreshed today")
	return cmd
}
