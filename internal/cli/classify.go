package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/diag"
)

// maxDiagnostics bounds how many diagnostics --explain prints.
const maxDiagnostics = 50

type ClassifyArgs struct {
	*RootArgs

	Output  string
	Explain bool
}

func NewClassifyCmd(ra *RootArgs) *cobra.Command {
	ca := &ClassifyArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "classify <path>",
		Short: "Print the type of a folder without tracking it",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, ca, args[0])
		},
	}

	cmd.Flags().BoolVar(&ca.Explain, "explain", false, "Show how each folder type's rule was evaluated")
	addOutputFlag(cmd, &ca.Output)

	bindEnvVars(cmd)

	return cmd
}

func runClassify(cmd *cobra.Command, ca *ClassifyArgs, arg string) error {
	format, err := resolveOutput(cmd.OutOrStdout(), ca.Output)
	if err != nil {
		return err
	}

	path, err := filepath.Abs(arg)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", arg, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("classify: %s is not a directory", path)
	}

	cfg, err := ca.loadConfig()
	if err != nil {
		return err
	}

	set, err := cfg.TypeSet()
	if err != nil {
		return err //nolint:wrapcheck // Already located in the config.
	}

	rec := diag.NewRecorder(maxDiagnostics)
	res := newClassifier(cfg, rec).Explain(cmd.Context(), path, set)

	if !ca.Explain {
		if format == outputJSON || format == outputYAML {
			return writeOutput(cmd.OutOrStdout(), format, tabular{
				data: map[string]string{"root": res.Root, "type": res.Type},
			})
		}

		mustN(fmt.Fprintln(cmd.OutOrStdout(), res.Type))

		return nil
	}

	for _, d := range rec.Diagnostics() {
		mustN(fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", d))
	}

	if n := rec.Dropped(); n > 0 {
		mustN(fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d more diagnostics not shown\n", n))
	}

	return writeOutput(cmd.OutOrStdout(), format, explainTable(res))
}

func explainTable(res classify.Result) tabular {
	t := tabular{
		data:    res,
		headers: []string{"TYPE", "ANY", "ALL", "MATCH", "RESULT"},
		rows:    make([][]string, 0, len(res.Evaluations)),
	}

	for _, ev := range res.Evaluations {
		result := "-"
		if ev.Matched {
			result = "matched"
		}

		t.rows = append(t.rows, []string{
			ev.Type,
			string(ev.Any),
			string(ev.All),
			string(ev.Match),
			result,
		})
	}

	return t
}
