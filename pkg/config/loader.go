package config

import (
	"bytes"

	"github.com/macropower/foldex/api"
	"github.com/macropower/foldex/api/v1beta1"
	"github.com/macropower/foldex/pkg/yaml"
)

// Validator validates decoded configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// semanticValidator is implemented by config types with checks beyond the
// schema.
type semanticValidator interface {
	Validate() error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator Validator
	formatter string
}

// WithValidator sets a custom validator.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithFormatter sets the chroma formatter used to highlight source excerpts
// in errors. The default renders excerpts without color.
func WithFormatter(formatter string) LoaderOpt {
	return func(o *loaderOptions) {
		o.formatter = formatter
	}
}

// Loader handles validation, YAML parsing, and error formatting for any
// config type T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] from byte data.
// The newFunc parameter is the constructor for type T (e.g., configs.New).
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	options := &loaderOptions{
		validator: defaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithSource(data),
			yaml.WithSourceLines(4),
			yaml.WithFormatter(options.formatter),
		),
	}
}

// NewLoaderFromFile creates a [Loader] from a file path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate validates the configuration data against the schema.
func (l *Loader[T]) Validate() error {
	var doc any

	dec := yaml.NewDecoder(bytes.NewReader(l.data))
	if err := dec.Decode(&doc); err != nil {
		return l.yamlError.Wrap(err)
	}

	if l.validator != nil {
		if err := l.validator.Validate(doc); err != nil {
			return l.yamlError.Wrap(err)
		}
	}

	return nil
}

// Load validates, parses and returns the configuration. If T has its own
// Validate method, it runs after defaults are applied.
//
//nolint:ireturn // Generic type parameter return is intentional.
func (l *Loader[T]) Load() (T, error) {
	var zero T

	if err := l.Validate(); err != nil {
		return zero, err
	}

	cfg := l.newFunc()

	dec := yaml.NewDecoder(bytes.NewReader(l.data))
	if err := dec.Decode(cfg); err != nil {
		return zero, l.yamlError.Wrap(err)
	}

	cfg.EnsureDefaults()

	if v, ok := any(cfg).(semanticValidator); ok {
		if err := v.Validate(); err != nil {
			return zero, l.yamlError.Wrap(err)
		}
	}

	return cfg, nil
}
