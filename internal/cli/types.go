package cli

import (
	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/foldertype"
)

type TypesArgs struct {
	*RootArgs

	Output string
}

func NewTypesCmd(ra *RootArgs) *cobra.Command {
	ta := &TypesArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the configured folder types in priority order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := resolveOutput(cmd.OutOrStdout(), ta.Output)
			if err != nil {
				return err
			}

			cfg, err := ta.loadConfig()
			if err != nil {
				return err
			}

			set, err := cfg.TypeSet()
			if err != nil {
				return err //nolint:wrapcheck // Already located in the config.
			}

			return writeOutput(cmd.OutOrStdout(), format, typesTable(set))
		},
	}

	addOutputFlag(cmd, &ta.Output)

	bindEnvVars(cmd)

	return cmd
}

func typesTable(set *foldertype.Set) tabular {
	types := set.Public()

	t := tabular{
		data:    types,
		headers: []string{"ID", "LABEL", "ICON", "DETECTED"},
		rows:    make([][]string, 0, len(types)),
	}

	for _, def := range set.Definitions() {
		detected := "no"
		if def.Detectable() {
			detected = "yes"
		}

		t.rows = append(t.rows, []string{def.ID, def.Label, def.Icon, detected})
	}

	return t
}
