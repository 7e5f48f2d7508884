// Package cli implements the dailytasks commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"daily-tasks/internal/app"
	"daily-tasks/internal/config"
	"daily-tasks/internal/planerr"
)

// version is set at build time via ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "dailytasks",
		Short: "Personal task tracker with a daily today list",
		Long: `dailytasks keeps tasks with due dates, steps and repeat rules.
Run without a subcommand to serve: the today list is rebuilt on a schedule and,
when a Telegram token is configured, the bot answers in the owner chat.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	serve := newServeCmd(opts)
	cmd.RunE = serve.RunE
	cmd.AddCommand(
		serve,
		newSyncCmd(opts),
		newNextCmd(),
		newListCmd(opts),
		newAddCmd(opts),
		newDoneCmd(opts, true),
		newDoneCmd(opts, false),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(planerr.ExitCode(err))
	}
}

// openApp builds the app from the --config flag. Logs go to stderr.
func openApp(cmd *cobra.Command, opts *rootOptions) (*app.App, error) {
	return app.New(config.NewLoader(opts.configPath), cmd.ErrOrStderr())
}

func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*app.App) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
