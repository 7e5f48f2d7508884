package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"daily-tasks/internal/app"
	"daily-tasks/internal/calendar"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/service"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		due     string
		memo    string
		today   bool
		weekly  string
		monthly string
		steps   []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Example: `  dailytasks add "Pay rent" --due 2024-07-01 --monthly 1
  dailytasks add Gym --weekly mon,wed,fri --step warmup --step run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.TaskInput{
				Title: strings.Join(args, " "),
				Memo:  memo,
				Today: today,
				Steps: steps,
			}

			var err error
			switch {
			case weekly != "" && monthly != "":
				return planerr.New(planerr.InvalidInput, "use either --weekly or --monthly")
			case weekly != "":
				input.Rule, err = recurrence.ParseRule(string(recurrence.KindWeekly), weekly)
			case monthly != "":
				input.Rule, err = recurrence.ParseRule(string(recurrence.KindMonthly), monthly)
			}
			if err != nil {
				return err
			}

			return withApp(cmd, opts, func(a *app.App) error {
				if due != "" {
					day, err := calendar.Parse(due)
					if err != nil {
						return err
					}
					t := day.In(a.Config().Location)
					input.DueDate = &t
				}
				task, err := a.Tasks.CreateTask(cmd.Context(), input)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", service.ShortID(task.ID), task.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date YYYY-MM-DD")
	cmd.Flags().StringVar(&memo, "memo", "", "free-form note")
	cmd.Flags().BoolVar(&today, "today", false, "put the task on today's list")
	cmd.Flags().StringVar(&weekly, "weekly", "", "repeat on weekdays, e.g. mon,fri")
	cmd.Flags().StringVar(&monthly, "monthly", "", "repeat on a day of month, e.g. 10")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "add a step (repeatable)")
	return cmd
}

// newDoneCmd builds "done" when completed is true and "undo" otherwise.
func newDoneCmd(opts *rootOptions, completed bool) *cobra.Command {
	use, short := "done <id>", "Mark a task completed"
	if !completed {
		use, short = "undo <id>", "Reopen a completed task"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app.App) error {
				ctx := cmd.Context()
				task, err := a.Tasks.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				res, err := a.Tasks.SetCompleted(ctx, task.ID, completed)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !completed {
					fmt.Fprintf(out, "Reopened %s %s\n", service.ShortID(res.Task.ID), res.Task.Title)
					return nil
				}
				fmt.Fprintf(out, "Completed %s %s\n", service.ShortID(res.Task.ID), res.Task.Title)
				if next := res.Spawned; next != nil && next.DueDate != nil {
					fmt.Fprintf(out, "Next occurrence %s due %s\n",
						service.ShortID(next.ID), calendar.DateOf(next.DueDate.In(a.Config().Location)))
				}
				return nil
			})
		},
	}
}
