package expr

import (
	"path"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/ext"

	"github.com/macropower/foldex/pkg/glob"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),

		// `pathBase` returns the last element of the path.
		// Example: files.exists(f, pathBase(f) in ["go.mod", "go.work"]).
		cel.Function("pathBase",
			cel.Overload("path_base", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(p ref.Val) ref.Val {
					s, ok := p.(types.String)
					if !ok {
						return types.NewErr("pathBase: invalid string value")
					}

					return types.String(path.Base(string(s)))
				}),
			),
		),

		// `pathDir` returns all but the last element of the path.
		// Example: pathDir(dir).endsWith("/projects").
		cel.Function("pathDir",
			cel.Overload("path_dir", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(p ref.Val) ref.Val {
					s, ok := p.(types.String)
					if !ok {
						return types.NewErr("pathDir: invalid string value")
					}

					return types.String(path.Dir(string(s)))
				}),
			),
		),

		// `pathExt` returns the file extension of the path, including the dot.
		// Example: files.exists(f, pathExt(f) == ".sln").
		cel.Function("pathExt",
			cel.Overload("path_ext", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(p ref.Val) ref.Val {
					s, ok := p.(types.String)
					if !ok {
						return types.NewErr("pathExt: invalid string value")
					}

					return types.String(path.Ext(string(s)))
				}),
			),
		),

		// `pathMatch` reports whether a path matches a glob pattern.
		// Example: files.exists(f, pathMatch("*.csproj", f)).
		cel.Function("pathMatch",
			cel.Overload("path_match", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(pattern, p ref.Val) ref.Val {
					ps, ok := pattern.(types.String)
					if !ok {
						return types.NewErr("pathMatch: invalid pattern value")
					}

					s, ok := p.(types.String)
					if !ok {
						return types.NewErr("pathMatch: invalid path value")
					}

					m, err := glob.Compile(string(ps))
					if err != nil {
						return types.NewErr("pathMatch: %v", err)
					}

					return types.Bool(m.Matches(string(s)))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}
