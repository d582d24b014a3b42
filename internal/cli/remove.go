package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when confirmation is needed but cannot be
// asked for.
var ErrNotInteractive = errors.New("confirmation required, but stdin is not a terminal")

type RemoveArgs struct {
	*RootArgs

	Yes bool
}

func NewRemoveCmd(ra *RootArgs) *cobra.Command {
	rma := &RemoveArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a folder",
		Long: `Stop tracking a folder. The folder itself is not touched.

You are asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
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

			f, err := a.service.Get(cmd.Context(), id)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			if !rma.Yes {
				ok, err := confirmRemove(cmd, f.Path)
				if err != nil {
					return err
				}

				if !ok {
					mustN(fmt.Fprintln(cmd.OutOrStdout(), "canceled"))
					return nil
				}
			}

			err = a.service.Remove(cmd.Context(), id)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			printFolder(cmd, "removed", f)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&rma.Yes, "yes", "y", false, "Do not ask for confirmation")

	bindEnvVars(cmd)

	return cmd
}

func confirmRemove(cmd *cobra.Command, path string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, ErrNotInteractive
	}

	var ok bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Stop tracking this folder?").
				Description(path).
				Affirmative("Remove").
				Negative("Cancel").
				Value(&ok),
		),
	).
		WithShowHelp(false)

	err := form.RunWithContext(cmd.Context())
	if err != nil {
		return false, fmt.Errorf("run confirmation prompt: %w", err)
	}

	return ok, nil
}
