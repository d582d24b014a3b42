package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/macropower/foldex/api/v1beta1/configs"
)

// Error is returned when configuration cannot be loaded. It is fatal.
type Error struct {
	Err  error
	Path string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load config: %v", e.Err)
	}

	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the configuration at path.
//
// When path does not exist and required is false, the embedded default
// configuration is used instead. A missing file is an error when required
// is true, e.g. when the path was given explicitly.
func Load(path string, required bool, opts ...LoaderOpt) (*configs.Config, error) {
	l, err := NewLoaderFromFile(path, configs.New, configs.DefaultValidator, opts...)

	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !required:
		slog.Debug("config file not found, using defaults", slog.String("path", path))

		l = NewLoaderFromBytes(configs.DefaultYAML(), configs.New, configs.DefaultValidator, opts...)
		path = ""
	default:
		return nil, &Error{Path: path, Err: err}
	}

	cfg, err := l.Load()
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	return cfg, nil
}
