package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/log"
)

type ListArgs struct {
	*RootArgs

	Filter  string
	Output  string
	Timeout time.Duration
}

func NewListCmd(ra *RootArgs) *cobra.Command {
	la := &ListArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Refresh folder types and list tracked folders",
		Long: `Refresh folder types and list tracked folders.

Every unlocked folder that still exists is classified again before listing.
Folders that cannot be updated are listed with their stored type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, la)
		},
	}

	cmd.Flags().StringVarP(&la.Filter, "filter", "f", "", "Fuzzy filter on folder name and type")
	cmd.Flags().DurationVar(&la.Timeout, "timeout", 0, "Maximum time to wait for folder types to refresh (default from config)")
	addOutputFlag(cmd, &la.Output)

	bindEnvVars(cmd)

	return cmd
}

func runList(cmd *cobra.Command, la *ListArgs) (err error) {
	format, err := resolveOutput(cmd.OutOrStdout(), la.Output)
	if err != nil {
		return err
	}

	a, err := la.open(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	timeout := la.Timeout
	if timeout <= 0 {
		timeout = a.cfg.Reconcile.Timeout
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pass, err := a.service.Sync(ctx)
	list := pass.Folders

	for _, u := range pass.Updates {
		slog.InfoContext(ctx, "updated folder type",
			slog.Int64("id", u.FolderID),
			slog.String("from", u.From),
			slog.String("to", u.To),
		)
	}

	if err != nil {
		if list == nil {
			return fmt.Errorf("list folders: %w", err)
		}

		// The snapshot is still current for every folder that was written.
		slog.WarnContext(ctx, "some folder types could not be saved", log.ErrAttr(err))
	}

	list = filterFolders(list, la.Filter)

	return writeOutput(cmd.OutOrStdout(), format, folderTable(list, format, time.Now()))
}

// filterFolders returns the folders fuzzily matching query, best first.
// Matching ignores diacritics.
func filterFolders(list []catalog.Folder, query string) []catalog.Folder {
	if query == "" {
		return list
	}

	targets := make([]string, len(list))
	for i, f := range list {
		targets[i] = foldMarks(f.Name + " " + f.FolderType)
	}

	matches := fuzzy.Find(foldMarks(query), targets)

	out := make([]catalog.Folder, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}

	return out
}

func folderTable(list []catalog.Folder, format string, now time.Time) tabular {
	t := tabular{
		data:    list,
		headers: []string{"ID", "NAME", "TYPE", "MODIFIED", "PATH"},
		rows:    make([][]string, 0, len(list)),
	}

	if t.data == nil {
		t.data = []catalog.Folder{}
	}

	for _, f := range list {
		folderType := f.FolderType
		modified := f.LastModified.UTC().Format(time.RFC3339)

		if format == outputTable {
			modified = humanize.RelTime(f.LastModified, now, "ago", "from now")
			if f.Locked {
				folderType += " (locked)"
			}
		}

		t.rows = append(t.rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.Name,
			folderType,
			modified,
			f.Path,
		})
	}

	return t
}

// foldMarks strips nonspacing marks, so "é" becomes "e".
func foldMarks(in string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	out, _, err := transform.String(t, in)
	if err != nil {
		return in
	}

	return out
}
