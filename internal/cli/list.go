package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"daily-tasks/internal/app"
	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/repository"
	"daily-tasks/internal/service"
)

// listItem is the YAML shape of a task.
type listItem struct {
	ID        string        `yaml:"id"`
	Title     string        `yaml:"title"`
	Memo      string        `yaml:"memo,omitempty"`
	Due       calendar.Date `yaml:"due,omitempty"`
	Today     bool          `yaml:"today"`
	Completed bool          `yaml:"completed"`
	Repeat    string        `yaml:"repeat,omitempty"`
	Steps     []listStep    `yaml:"steps,omitempty"`
}

type listStep struct {
	Title     string `yaml:"title"`
	Completed bool   `yaml:"completed"`
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		filter  string
		asYAML  bool
		showAll bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := repository.ParseFilter(filter)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(a *app.App) error {
				tasks, err := a.Tasks.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				if !showAll {
					tasks = openTasks(tasks)
				}
				loc := a.Config().Location
				if asYAML {
					return writeYAML(cmd.OutOrStdout(), tasks, loc)
				}
				return writeTable(cmd.OutOrStdout(), tasks, loc)
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, today or planned")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "output as YAML")
	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "include completed tasks")
	return cmd
}

func openTasks(tasks []model.Task) []model.Task {
	out := tasks[:0]
	for _, task := range tasks {
		if !task.Completed {
			out = append(out, task)
		}
	}
	return out
}

func toListItem(task model.Task, loc *time.Location) listItem {
	item := listItem{
		ID:        task.ID,
		Title:     task.Title,
		Memo:      task.Memo,
		Today:     task.IsToday,
		Completed: task.Completed,
	}
	if task.DueDate != nil {
		item.Due = calendar.DateOf(task.DueDate.In(loc))
	}
	if rule, err := task.Rule(); err == nil && rule != nil {
		item.Repeat = recurrence.Describe(rule)
	}
	for _, step := range task.Steps {
		item.Steps = append(item.Steps, listStep{Title: step.Title, Completed: step.Completed})
	}
	return item
}

func writeYAML(w io.Writer, tasks []model.Task, loc *time.Location) error {
	items := make([]listItem, 0, len(tasks))
	for _, task := range tasks {
		items = append(items, toListItem(task, loc))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(items); err != nil {
		return err
	}
	return enc.Close()
}

func writeTable(w io.Writer, tasks []model.Task, loc *time.Location) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tDUE\tTITLE\tREPEAT")
	for _, task := range tasks {
		item := toListItem(task, loc)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			service.ShortID(item.ID), state(item), item.Due, oneLine(item.Title), item.Repeat)
	}
	return tw.Flush()
}

func state(item listItem) string {
	switch {
	case item.Completed:
		return "done"
	case item.Today:
		return "today"
	default:
		return "open"
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
