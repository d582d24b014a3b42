package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/foldex/pkg/yaml"
)

const (
	outputTable = "table"
	outputPlain = "plain"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	ErrUnknownOutput = errors.New("unknown output format")

	allOutputs = []string{outputTable, outputPlain, outputJSON, outputYAML}

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "250", Dark: "238"})
)

func addOutputFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "output", "o", "",
		fmt.Sprintf("Output format, one of: %s (default table on a terminal, plain otherwise)", allOutputs))

	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(allOutputs, cobra.ShellCompDirectiveNoFileComp),
	))
}

// resolveOutput validates format, choosing one from w when it is empty.
func resolveOutput(w io.Writer, format string) (string, error) {
	if format == "" {
		if isTerminal(w) {
			return outputTable, nil
		}

		return outputPlain, nil
	}

	if !slices.Contains(allOutputs, format) {
		return "", fmt.Errorf("%w: %q", ErrUnknownOutput, format)
	}

	return format, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// tabular is data that can be written in any output format.
type tabular struct {
	data    any
	headers []string
	rows    [][]string
}

func writeOutput(w io.Writer, format string, t tabular) error {
	var err error

	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(t.data)

	case outputYAML:
		var b []byte

		b, err = yaml.Marshal(t.data)
		if err == nil {
			_, err = w.Write(b)
		}

	case outputTable:
		_, err = fmt.Fprintln(w, renderTable(t.headers, t.rows))

	default:
		for _, row := range t.rows {
			if _, err = fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
				break
			}
		}
	}

	if err != nil {
		return fmt.Errorf("write %s output: %w", format, err)
	}

	return nil
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		String()
}
