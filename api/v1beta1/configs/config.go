// Package configs provides the Configuration kind for foldex.
package configs

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/foldex/api"
	"github.com/macropower/foldex/api/v1beta1"
	"github.com/macropower/foldex/pkg/action"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen/main.go -o configs.v1beta1.json

const (
	// DefaultTimeout bounds a reconciliation pass triggered by a read.
	DefaultTimeout = time.Minute

	// FileName is the name of the configuration file.
	FileName = "config.yaml"
)

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{v1beta1.KindConfiguration}

	// DefaultValidator validates configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Config is the foldex configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	set *foldertype.Set

	// Probe bounds filesystem walks for glob path specs.
	Probe *ProbeConfig `json:"probe,omitempty" jsonschema:"title=Probe"`
	// Reconcile tunes reconciliation passes.
	Reconcile *ReconcileConfig `json:"reconcile,omitempty" jsonschema:"title=Reconcile"`
	// Catalog configures the folder catalog.
	Catalog *CatalogConfig `json:"catalog,omitempty" jsonschema:"title=Catalog"`
	v1beta1.TypeMeta `json:",inline"`
	// Types is the ordered list of folder types. Exactly one must have the
	// id "unknown".
	Types []*foldertype.Definition `json:"types" jsonschema:"title=Folder Types,minItems=1"`
	// Actions are the launchers available for tracked folders and files.
	// When omitted, platform defaults are used.
	Actions []*action.Action `json:"actions,omitempty" jsonschema:"title=Actions"`
}

// ProbeConfig bounds filesystem walks.
type ProbeConfig struct {
	// MaxDepth limits how many directory levels a glob walk descends.
	// Zero means unbounded.
	MaxDepth int `json:"maxDepth,omitempty" jsonschema:"title=Max Depth,minimum=0"`
	// MaxEntries limits how many entries a glob walk visits.
	// Zero means unbounded.
	MaxEntries int `json:"maxEntries,omitempty" jsonschema:"title=Max Entries,minimum=0"`
	// WalkCache walks each folder at most once per classification and
	// matches every glob against that listing.
	WalkCache *bool `json:"walkCache,omitempty" jsonschema:"title=Walk Cache"`
}

// ReconcileConfig tunes reconciliation passes.
type ReconcileConfig struct {
	// Workers is how many folders are classified at once.
	// Zero picks a value from the CPU count.
	Workers int `json:"workers,omitempty" jsonschema:"title=Workers,minimum=0,maximum=32"`
	// Timeout bounds how long a read waits for a pass.
	Timeout time.Duration `json:"timeout,omitempty" jsonschema:"title=Timeout,type=string"`
}

// CatalogConfig configures the folder catalog.
type CatalogConfig struct {
	// Path is the SQLite database file. Defaults to the user data directory.
	Path string `json:"path,omitempty" jsonschema:"title=Path"`
}

// New creates a new [Config] with default values and no folder types.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       v1beta1.KindConfiguration,
		},
	}
	c.EnsureDefaults()

	return c
}

// Default returns the embedded default configuration.
func Default() *Config {
	c := New()
	if err := yaml.Unmarshal(defaultConfigYAML, c); err != nil {
		panic(fmt.Sprintf("decode default config: %v", err))
	}

	c.EnsureDefaults()

	return c
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultConfigYAML
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Probe == nil {
		c.Probe = &ProbeConfig{}
	}

	if c.Probe.WalkCache == nil {
		enabled := true
		c.Probe.WalkCache = &enabled
	}

	if c.Reconcile == nil {
		c.Reconcile = &ReconcileConfig{}
	}

	if c.Reconcile.Timeout == 0 {
		c.Reconcile.Timeout = DefaultTimeout
	}

	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{}
	}

	if c.Catalog.Path == "" {
		c.Catalog.Path = api.GetDataPath("foldex.db")
	}

	if c.Actions == nil {
		c.Actions = action.Defaults(runtime.GOOS)
	}
}

// Validate checks the apiVersion and kind, the folder types and actions. Errors in the folder types
// are returned as [*yaml.Error] values located at the offending entry.
func (c *Config) Validate() error {
	if err := c.TypeMeta.Check(ValidKinds...); err != nil {
		field := "kind"
		if errors.Is(err, v1beta1.ErrUnsupportedAPIVersion) {
			field = "apiVersion"
		}

		return yaml.NewError(err, yaml.WithPath(yaml.NewPathBuilder().Root().Child(field).Build()))
	}

	set, err := foldertype.NewSet(c.Types)
	if err != nil {
		return typesError(err)
	}

	for i, d := range c.Types {
		if d.Detect == nil {
			continue
		}

		if _, err := d.Detect.Program(); err != nil {
			path := yaml.NewPathBuilder().Root().
				Child("types").Index(uint(i)).Child("detect").Child("match").Build() //nolint:gosec // G115: Index is non-negative.

			return yaml.NewError(err, yaml.WithPath(path))
		}
	}

	if _, err := action.NewDispatcher(c.Actions, nil); err != nil {
		return fmt.Errorf("validate actions: %w", err)
	}

	c.set = set

	return nil
}

// TypeSet returns the validated folder types.
// It returns an error if [Config.Validate] fails.
func (c *Config) TypeSet() (*foldertype.Set, error) {
	if c.set != nil {
		return c.set, nil
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c.set, nil
}

func typesError(err error) error {
	var verr *foldertype.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("validate types: %w", err)
	}

	pb := yaml.NewPathBuilder().Root().Child("types")
	if verr.Index >= 0 {
		pb = pb.Index(uint(verr.Index)).Child(verr.Field) //nolint:gosec // G115: Checked above.
	}

	return yaml.NewError(err, yaml.WithPath(pb.Build()))
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default config.yaml to the specified path.
func WriteDefault(path string, force bool) error {
	err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path to the user's configuration file.
func GetPath() string {
	return api.GetConfigPath(FileName)
}
