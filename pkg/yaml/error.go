package yaml

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// DefaultStyle is the chroma style used to highlight source excerpts.
const DefaultStyle = "onedark"

var (
	gutterStyle = lipgloss.NewStyle().Faint(true)
	markerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

// ErrorWrapper applies a fixed set of options to every [Error] it wraps.
type ErrorWrapper struct {
	Opts []ErrorOpt
}

func NewErrorWrapper(opts ...ErrorOpt) *ErrorWrapper {
	return &ErrorWrapper{
		Opts: opts,
	}
}

// Wrap adds context to err if it is (or wraps) an [*Error].
// Other errors are returned unmodified.
func (ew *ErrorWrapper) Wrap(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if !errors.As(err, &yamlErr) {
		return err
	}

	for _, opt := range ew.Opts {
		opt(yamlErr)
	}

	for _, opt := range opts {
		opt(yamlErr)
	}

	return err
}

// Error is an error located in a YAML document, either by [*yaml.Path] or by
// [*token.Token]. When the source is known, the message includes an excerpt
// around the offending line.
type Error struct {
	Err   error
	Path  *yaml.Path
	Token *token.Token
	// Formatter is a chroma formatter name (e.g. "terminal256"). When empty,
	// the excerpt is rendered without color.
	Formatter   string
	Style       string
	Source      []byte
	SourceLines int // Number of lines to show around the error in the source.
}

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{
		Err:         err,
		SourceLines: 4,
		Style:       DefaultStyle,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type ErrorOpt func(e *Error)

func WithSourceLines(lines int) ErrorOpt {
	return func(e *Error) {
		e.SourceLines = lines
	}
}

func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

func WithStyle(style string) ErrorOpt {
	return func(e *Error) {
		e.Style = style
	}
}

func WithFormatter(formatter string) ErrorOpt {
	return func(e *Error) {
		e.Formatter = formatter
	}
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

func (e Error) Error() string {
	if e.Err == nil {
		return ""
	}

	if e.Path == nil && e.Token == nil {
		return e.Err.Error()
	}

	if len(e.Source) == 0 && e.Token == nil {
		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	msg, err := e.annotateSource()
	if err != nil {
		slog.Debug("annotate source with error", slog.Any("error", err))

		if e.Path != nil {
			return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
		}

		return e.Err.Error()
	}

	return msg
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) annotateSource() (string, error) {
	tk := e.Token
	if tk == nil {
		var err error

		tk, err = getTokenFromPath(e.Source, e.Path)
		if err != nil {
			return "", fmt.Errorf("get token from path: %w", err)
		}
	}

	if tk == nil {
		return "", errors.New("no token")
	}

	line, col := tk.Position.Line, tk.Position.Column
	head := fmt.Sprintf("[%d:%d] %v:", line, col, e.Err)

	if len(e.Source) == 0 {
		return head, nil
	}

	return head + "\n" + e.excerpt(line), nil
}

// excerpt renders the source lines around line with a gutter and a marker on
// the offending line.
func (e Error) excerpt(line int) string {
	lines := strings.Split(strings.TrimRight(string(e.Source), "\n"), "\n")
	line = min(max(line, 1), len(lines))

	first := max(line-e.SourceLines, 1)
	last := min(line+e.SourceLines, len(lines))
	window := lines[first-1 : last]

	rendered := window
	if e.Formatter != "" {
		var sb strings.Builder

		err := quick.Highlight(&sb, strings.Join(window, "\n"), "yaml", e.Formatter, e.Style)
		if hl := strings.Split(sb.String(), "\n"); err == nil && len(hl) >= len(window) {
			rendered = hl[:len(window)]
		}
	}

	width := len(strconv.Itoa(last))

	var sb strings.Builder
	for i, src := range rendered {
		n := first + i

		marker := "  "
		gutter := fmt.Sprintf("%*d | ", width, n)

		if e.Formatter != "" {
			gutter = gutterStyle.Render(gutter)
		}

		if n == line {
			marker = "> "
			if e.Formatter != "" {
				marker = markerStyle.Render(marker)
			}
		}

		sb.WriteString(marker + gutter + src)

		if i < len(rendered)-1 {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

func getTokenFromPath(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter by path: %w", err)
	}

	// FilterFile returns the value node; point at the key where there is one.
	if keyToken := findKeyToken(file, path); keyToken != nil {
		return keyToken, nil
	}

	return node.GetToken(), nil
}

// findKeyToken returns the key token of the last path segment, or nil if the
// path ends in an index or is the root.
func findKeyToken(file *ast.File, path *yaml.Path) *token.Token {
	pathStr := path.String()

	lastDot := strings.LastIndex(pathStr, ".")
	lastBracket := strings.LastIndex(pathStr, "[")

	if lastDot == -1 || lastDot <= lastBracket {
		return nil
	}

	parentPath, err := yaml.PathString(pathStr[:lastDot])
	if err != nil {
		return nil
	}

	parentNode, err := parentPath.FilterFile(file)
	if err != nil {
		return nil
	}

	mapping, ok := parentNode.(*ast.MappingNode)
	if !ok {
		return nil
	}

	for _, val := range mapping.Values {
		if val.Key.String() == pathStr[lastDot+1:] {
			return val.Key.GetToken()
		}
	}

	return nil
}
