package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func NewTrackCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <path>...",
		Short: "Start tracking folders",
		Long: `Start tracking folders.

Each folder is classified once when it is added. Relative paths are resolved
against the working directory.`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := ra.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			var errs []error

			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					errs = append(errs, fmt.Errorf("resolve %s: %w", arg, err))
					continue
				}

				f, err := a.service.Track(cmd.Context(), path)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", arg, err))
					continue
				}

				mustN(fmt.Fprintf(cmd.OutOrStdout(), "tracking %s as %s (id %d)\n", f.Path, f.FolderType, f.ID))
			}

			return errors.Join(errs...)
		},
	}

	bindEnvVars(cmd)

	return cmd
}
