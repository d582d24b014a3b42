package yaml

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

// ModulePath is the import path prefix of this module, used to locate the
// source of packages whose comments are added to generated schemas.
const ModulePath = "github.com/macropower/foldex"

// SchemaGenerator creates JSON schemas from Go types.
// Uses [github.com/invopop/jsonschema].
type SchemaGenerator struct {
	reflector *jsonschema.Reflector
	obj       any
	packages  []string
}

// NewSchemaGenerator creates a [SchemaGenerator] for obj. Doc comments are
// read from the given packages, which must be part of [ModulePath] and are
// resolved relative to the working directory's module root.
func NewSchemaGenerator(obj any, packages ...string) *SchemaGenerator {
	return &SchemaGenerator{
		obj:      obj,
		packages: packages,
		reflector: &jsonschema.Reflector{
			DoNotReference: false,
			ExpandedStruct: true,
		},
	}
}

// Generate reflects the schema and returns it as indented JSON.
func (g *SchemaGenerator) Generate() ([]byte, error) {
	for _, pkg := range g.packages {
		dir, ok := strings.CutPrefix(pkg, ModulePath+"/")
		if !ok {
			return nil, fmt.Errorf("package %q is not in module %s", pkg, ModulePath)
		}

		err := g.reflector.AddGoComments(ModulePath, dir)
		if err != nil {
			return nil, fmt.Errorf("add comments from %s: %w", pkg, err)
		}
	}

	js := g.reflector.Reflect(g.obj)

	b, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}
