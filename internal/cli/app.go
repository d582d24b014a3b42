package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/macropower/foldex/api/v1beta1/configs"
	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/config"
	"github.com/macropower/foldex/pkg/diag"
	"github.com/macropower/foldex/pkg/folders"
	"github.com/macropower/foldex/pkg/probe"
	"github.com/macropower/foldex/pkg/reconcile"
)

// app holds the components built from the configuration for one command.
type app struct {
	cfg     *configs.Config
	catalog *catalog.Catalog
	service *folders.Service
}

// configPath returns the configuration path and whether it was given
// explicitly.
func (ra *RootArgs) configPath() (string, bool) {
	if ra.ConfigPath != "" {
		return ra.ConfigPath, true
	}

	return configs.GetPath(), false
}

// loadConfig loads the configuration. An explicitly given file must exist.
// Otherwise the embedded default is used when no file is found.
func (ra *RootArgs) loadConfig() (*configs.Config, error) {
	path, required := ra.configPath()

	var opts []config.LoaderOpt
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts = append(opts, config.WithFormatter("terminal256"))
	}

	cfg, err := config.Load(path, required, opts...)
	if err != nil {
		return nil, err //nolint:wrapcheck // Already a [*config.Error].
	}

	if ra.CatalogPath != "" {
		cfg.Catalog.Path = ra.CatalogPath
	}

	return cfg, nil
}

// newClassifier builds the classifier only, for commands that do not need
// the catalog. Diagnostics are logged and also sent to sinks.
func newClassifier(cfg *configs.Config, sinks ...diag.Sink) *classify.Classifier {
	opts := []probe.Opt{
		probe.WithDiagnostics(diag.Multi(append([]diag.Sink{diag.LogSink{}}, sinks...)...)),
		probe.WithMaxDepth(cfg.Probe.MaxDepth),
		probe.WithMaxEntries(cfg.Probe.MaxEntries),
	}
	if cfg.Probe.WalkCache != nil {
		opts = append(opts, probe.WithWalkCache(*cfg.Probe.WalkCache))
	}

	return classify.New(probe.New(opts...))
}

// open loads the configuration and opens the catalog.
// The returned app must be closed.
func (ra *RootArgs) open(ctx context.Context) (*app, error) {
	cfg, err := ra.loadConfig()
	if err != nil {
		return nil, err
	}

	set, err := cfg.TypeSet()
	if err != nil {
		return nil, &config.Error{Err: err}
	}

	cat, err := catalog.Open(ctx, cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	slog.DebugContext(ctx, "opened catalog", slog.String("path", cfg.Catalog.Path))

	var rOpts []reconcile.Opt
	if cfg.Reconcile.Workers > 0 {
		rOpts = append(rOpts, reconcile.WithWorkers(cfg.Reconcile.Workers))
	}

	classifier := newClassifier(cfg)
	svc := folders.New(cat, classifier, reconcile.New(classifier, cat, rOpts...), set)

	return &app{
		cfg:     cfg,
		catalog: cat,
		service: svc,
	}, nil
}

func (a *app) Close() error {
	err := a.catalog.Close()
	if err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}

	return nil
}

// closeApp closes a and joins any failure into errp.
func closeApp(a *app, errp *error) {
	*errp = errors.Join(*errp, a.Close())
}
