package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/action"
	"github.com/macropower/foldex/pkg/execs"
)

func NewOpenCmd(ra *RootArgs) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "open <action> <path>",
		Short: "Open a file or folder with a configured action",
		Long: `Open a file or folder with a configured action.

The program is started in the background and foldex exits without waiting
for it, unless --wait is set. Some actions accept only folders.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return actionCompletions(ra), cobra.ShellCompDirectiveNoFileComp
			}

			if len(args) == 1 {
				return nil, cobra.ShellCompDirectiveDefault
			}

			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[1], err)
			}

			target, err := action.TargetFor(path)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			cfg, err := ra.loadConfig()
			if err != nil {
				return err
			}

			d, err := action.NewDispatcher(cfg.Actions, execs.NewExecutor())
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			if !wait {
				return d.Run(cmd.Context(), args[0], target) //nolint:wrapcheck // Already wrapped.
			}

			res, err := d.Wait(cmd.Context(), args[0], target)
			if res != nil {
				mustN(fmt.Fprint(cmd.OutOrStdout(), res.Stdout))
				mustN(fmt.Fprint(cmd.ErrOrStderr(), res.Stderr))
			}

			return err //nolint:wrapcheck // Already wrapped.
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the program to exit and print its output")

	bindEnvVars(cmd)

	return cmd
}

func actionCompletions(ra *RootArgs) []cobra.Completion {
	cfg, err := ra.loadConfig()
	if err != nil {
		return nil
	}

	completions := make([]cobra.Completion, 0, len(cfg.Actions))
	for _, a := range cfg.Actions {
		completions = append(completions, cobra.CompletionWithDesc(a.ID, a.Label))
	}

	return completions
}
