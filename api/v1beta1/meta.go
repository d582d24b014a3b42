// Package v1beta1 holds the versioned envelope of foldex config files.
//
// Every file starts with an apiVersion and a kind. The only kind today is
// [KindConfiguration], defined in the configs subpackage.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the API version written by this release.
const APIVersion = "foldex.jacobcolvin.com/v1beta1"

// KindConfiguration is the kind of the main foldex config file.
const KindConfiguration = "Configuration"

// ValidAPIVersions lists the API versions this release reads.
var ValidAPIVersions = []string{APIVersion}

var (
	// ErrUnsupportedAPIVersion is returned for an apiVersion this release cannot read.
	ErrUnsupportedAPIVersion = errors.New("unsupported apiVersion")

	// ErrUnsupportedKind is returned for a kind the caller does not expect.
	ErrUnsupportedKind = errors.New("unsupported kind")
)

// TypeMeta is embedded inline by every config kind.
type TypeMeta struct {
	// APIVersion is the schema version of the file, e.g. foldex.jacobcolvin.com/v1beta1.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind names the config type, e.g. Configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Check returns an error unless the apiVersion is one of [ValidAPIVersions]
// and the kind is one of kinds.
func (tm TypeMeta) Check(kinds ...string) error {
	if !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnsupportedAPIVersion, tm.APIVersion, ValidAPIVersions)
	}

	if !slices.Contains(kinds, tm.Kind) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnsupportedKind, tm.Kind, kinds)
	}

	return nil
}

// Object is implemented by every config kind the loader can read.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums restricts the apiVersion and kind properties of jss
// to the given values, so editors can complete them. It panics if jss lacks
// either property.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	setConsts(jss, "apiVersion", "API Version", apiVersions)
	setConsts(jss, "kind", "Kind", kinds)
}

func setConsts(jss *jsonschema.Schema, prop, title string, values []string) {
	s, ok := jss.Properties.Get(prop)
	if !ok {
		panic(prop + " property not found in schema")
	}

	for _, v := range values {
		s.OneOf = append(s.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: v,
			Title: title,
		})
	}

	_, _ = jss.Properties.Set(prop, s)
}
