// Package api contains the foldex configuration API and file helpers.
package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/macropower/foldex/pkg/yaml"
)

const appName = "foldex"

// GetConfigPath returns the path to a file in the user's config directory.
// It checks $XDG_CONFIG_HOME, then ~/.config, and finally a temp directory.
func GetConfigPath(filename string) string {
	return xdgPath("XDG_CONFIG_HOME", ".config", filename)
}

// GetDataPath returns the path to a file in the user's data directory.
// It checks $XDG_DATA_HOME, then ~/.local/share, and finally a temp directory.
func GetDataPath(filename string) string {
	return xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share"), filename)
}

func xdgPath(envVar, homeDir, filename string) string {
	if dir, ok := os.LookupEnv(envVar); ok && dir != "" {
		return filepath.Join(dir, appName, filename)
	}

	usrHome, err := os.UserHomeDir()
	if err == nil && usrHome != "" {
		return filepath.Join(usrHome, homeDir, appName, filename)
	}

	tmpPath := filepath.Join(os.TempDir(), appName, filename)

	slog.Warn("could not determine user directory, using temp path",
		slog.String("path", tmpPath),
		slog.Any("error", fmt.Errorf("$%s is unset, fall back to home directory: %w", envVar, err)),
	)

	return tmpPath
}

// ReadFile reads a regular file from disk.
func ReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s: path is a directory", path)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: unknown file state", path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: Potential file inclusion via variable.
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// MarshalYAML serializes an object to YAML bytes.
func MarshalYAML(obj any) ([]byte, error) {
	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)
	if err := enc.Encode(obj); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b.Bytes(), nil
}

// WriteDefaultFile writes defaultData to path unless a file already exists.
// Using force backs up and replaces an existing file.
func WriteDefaultFile(path string, defaultData []byte, force bool, kind string) error {
	logger := slog.With(slog.String("type", kind), slog.String("path", path))

	info, err := os.Stat(path)
	exists := err == nil

	switch {
	case exists && info.IsDir():
		return fmt.Errorf("%s: path is a directory", path)
	case exists && !info.Mode().IsRegular():
		return fmt.Errorf("%s: unknown file state", path)
	case exists && !force:
		logger.Debug("file already exists, skipping write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	if exists {
		backupPath := fmt.Sprintf("%s.%d.old", path, time.Now().UnixNano())
		logger.Info("backing up existing file", slog.String("backup", backupPath))

		if err := os.Rename(path, backupPath); err != nil {
			return fmt.Errorf("rename existing %s file to backup: %w", kind, err)
		}
	}

	logger.Info("write default file")

	if err := os.WriteFile(path, defaultData, 0o600); err != nil {
		return fmt.Errorf("write %s file: %w", kind, err)
	}

	return nil
}
