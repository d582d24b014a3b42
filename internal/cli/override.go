package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/catalog"
)

func NewOverrideCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override <id> <type>",
		Short: "Set a folder's type and stop refreshing it",
		Args:  cobra.ExactArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
			if len(args) != 1 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}

			return typeCompletions(ra), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := ra.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			f, err := a.service.Override(cmd.Context(), id, args[1])
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			printFolder(cmd, "locked", f)

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}

func NewUnlockCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock <id>",
		Short: "Let a folder's type be refreshed again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := ra.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			f, err := a.service.Unlock(cmd.Context(), id)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			printFolder(cmd, "unlocked", f)

			return nil
		},
	}

	bindEnvVars(cmd)

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid argument %q: folder id must be a positive integer", s)
	}

	return id, nil
}

func printFolder(cmd *cobra.Command, verb string, f catalog.Folder) {
	mustN(fmt.Fprintf(cmd.OutOrStdout(), "%s %s (id %d): %s\n", verb, f.Path, f.ID, f.FolderType))
}

// typeCompletions lists the configured folder types, or nothing if the
// configuration cannot be loaded.
func typeCompletions(ra *RootArgs) []cobra.Completion {
	cfg, err := ra.loadConfig()
	if err != nil {
		return nil
	}

	set, err := cfg.TypeSet()
	if err != nil {
		return nil
	}

	completions := make([]cobra.Completion, 0, set.Len())
	for _, t := range set.Public() {
		completions = append(completions, cobra.CompletionWithDesc(t.ID, t.Label))
	}

	return completions
}
