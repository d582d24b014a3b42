package cli

import (
	"fmt"
	"log/slog"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"github.com/macropower/foldex/api/v1beta1/configs"
	"github.com/macropower/foldex/pkg/yaml"
)

func NewConfigCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the foldex configuration file",
	}

	cmd.AddCommand(
		newConfigInitCmd(ra),
		newConfigShowCmd(ra),
		newConfigPathCmd(ra),
		newConfigValidateCmd(ra),
	)

	return cmd
}

func newConfigInitCmd(ra *RootArgs) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Long: `Write the default configuration file.

An existing file is left alone unless --force is given, in which case it is
backed up next to the new one first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := ra.configPath()

			err := configs.WriteDefault(path, force)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file after backing it up")

	bindEnvVars(cmd)

	return cmd
}

func newConfigShowCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration, including defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ra.loadConfig()
			if err != nil {
				return err
			}

			b, err := cfg.MarshalYAML()
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				_, err = w.Write(b)
				if err != nil {
					return fmt.Errorf("write config: %w", err)
				}

				return nil
			}

			err = quick.Highlight(w, string(b), "yaml", "terminal256", yaml.DefaultStyle)
			if err != nil {
				slog.DebugContext(cmd.Context(), "highlight config", slog.Any("error", err))

				_, err = w.Write(b)
				if err != nil {
					return fmt.Errorf("write config: %w", err)
				}
			}

			return nil
		},
	}

	return cmd
}

func newConfigPathCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := ra.configPath()
			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}
}

func newConfigValidateCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := ra.configPath()

			// Unlike other commands, a missing file is an error here.
			ra.ConfigPath = path

			cfg, err := ra.loadConfig()
			if err != nil {
				return err
			}

			set, err := cfg.TypeSet()
			if err != nil {
				return err //nolint:wrapcheck // Already located in the config.
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d folder types, %d actions)\n",
				path, set.Len(), len(cfg.Actions)))

			return nil
		},
	}
}
