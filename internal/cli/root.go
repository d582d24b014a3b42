package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/log"
	"github.com/macropower/foldex/pkg/telemetry"
)

const (
	cmdName     = "foldex"
	cmdDesc     = `Track project folders and classify them by the files they contain.`
	cmdExamples = `  # Track some folders:
  foldex track ~/src/site ~/src/app

  # List tracked folders, refreshing their types first:
  foldex list

  # Show why a directory gets its type:
  foldex classify ~/src/site --explain

  # Pin a folder's type:
  foldex override 3 python

  # Open a folder in VS Code:
  foldex open open_vscode ~/src/site`
)

// RootArgs holds the flags shared by all commands.
type RootArgs struct {
	shutdown telemetry.ShutdownFunc

	ConfigPath    string
	CatalogPath   string
	LogLevel      string
	LogFormat     string
	TraceEndpoint string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	cmd.PersistentFlags().
		StringVar(&ra.ConfigPath, "config", "", "Path to the foldex configuration file")
	cmd.PersistentFlags().
		StringVar(&ra.CatalogPath, "catalog", "", "Path to the folder catalog database, overrides the configuration")
	cmd.PersistentFlags().
		StringVar(&ra.TraceEndpoint, "trace-endpoint", "", "OTLP/gRPC endpoint to export traces to")

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml", "json"))
	must(cmd.MarkPersistentFlagFilename("catalog", "db"))
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		Example:            cmdExamples,
		SilenceUsage:       true,
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewListCmd(args),
		NewTrackCmd(args),
		NewOverrideCmd(args),
		NewUnlockCmd(args),
		NewRemoveCmd(args),
		NewClassifyCmd(args),
		NewTypesCmd(args),
		NewOpenCmd(args),
		NewConfigCmd(args),
		NewMCPCmd(args),
		NewVersionCmd(),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		if ra.TraceEndpoint == "" {
			return nil
		}

		ra.shutdown, err = telemetry.Setup(cmd.Context(), telemetry.WithEndpoint(ra.TraceEndpoint))
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdown == nil {
			return nil
		}

		return ra.shutdown(cmd.Context())
	}
}
