// Package reconcile keeps stored folder types in sync with the filesystem.
//
// A [Reconciler] reclassifies every unlocked tracked folder whose path still
// exists and writes back the types that changed. Folders are processed
// independently by a bounded pool of workers, and each write is an atomic
// point update guarded by the catalog itself.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/log"
)

const (
	defaultMaxWorkers = 8
	maxWorkers        = 32
)

// Writer applies a computed folder type to the catalog.
//
// UpdateFolderType stores a changed type. MarkClassified records that the
// stored type was confirmed at classifiedAt, so that slower passes which
// started earlier can no longer overwrite it. Both return false without an
// error when the catalog refused the write: the folder is locked, gone, or
// already holds a classification newer than classifiedAt.
type Writer interface {
	UpdateFolderType(ctx context.Context, id int64, folderType string, classifiedAt time.Time) (bool, error)
	MarkClassified(ctx context.Context, id int64, folderType string, classifiedAt time.Time) (bool, error)
}

// Update is a folder type change applied by a pass.
type Update struct {
	From     string `json:"from"     yaml:"from"`
	To       string `json:"to"       yaml:"to"`
	FolderID int64  `json:"folderId" yaml:"folderId"`
}

// WriteError is returned when a computed change could not be written.
type WriteError struct {
	Err      error
	FolderID int64
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write folder %d: %v", e.FolderID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Reconciler runs reconciliation passes. It is safe for concurrent use.
type Reconciler struct {
	classifier *classify.Classifier
	writer     Writer
	tracer     trace.Tracer
	now        func() time.Time
	workers    int
}

// Opt configures a [Reconciler].
type Opt func(*Reconciler)

// WithWorkers sets how many folders are classified at once.
// Values are clamped to [1, 32].
func WithWorkers(n int) Opt {
	return func(r *Reconciler) {
		r.workers = min(max(n, 1), maxWorkers)
	}
}

// WithClock sets the function used to timestamp classifications.
func WithClock(now func() time.Time) Opt {
	return func(r *Reconciler) {
		r.now = now
	}
}

// New creates a new [Reconciler].
func New(c *classify.Classifier, w Writer, opts ...Opt) *Reconciler {
	r := &Reconciler{
		classifier: c,
		writer:     w,
		tracer:     otel.Tracer("reconciler"),
		now:        time.Now,
		workers:    min(runtime.GOMAXPROCS(0), defaultMaxWorkers),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reconcile runs one pass over folders and returns the applied updates in
// input order.
//
// Locked folders and folders whose path is not an existing directory are left
// untouched. Write failures do not stop the pass; they are returned together
// as [*WriteError] values. If ctx is canceled, folders not yet started are
// skipped and the context error is included.
func (r *Reconciler) Reconcile(ctx context.Context, folders []catalog.Folder, set *foldertype.Set) ([]Update, error) {
	ctx, span := r.tracer.Start(ctx, "reconcile", trace.WithAttributes(
		attribute.Int("folders", len(folders)),
		attribute.Int("workers", r.workers),
	))
	defer span.End()

	var (
		g       errgroup.Group
		updates = make([]*Update, len(folders))
		errs    = make([]error, len(folders))
	)

	g.SetLimit(r.workers)

	for i, f := range folders {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			updates[i], errs[i] = r.reconcileOne(ctx, f, set)
			return nil
		})
	}

	_ = g.Wait() // Workers never return errors.

	var applied []Update
	for _, u := range updates {
		if u != nil {
			applied = append(applied, *u)
		}
	}

	err := errors.Join(append(errs, ctx.Err())...)

	span.SetAttributes(attribute.Int("updates", len(applied)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile incomplete")
	}

	log.WithContext(ctx).DebugContext(ctx, "reconciled folders",
		slog.Int("folders", len(folders)),
		slog.Int("updates", len(applied)),
	)

	return applied, err
}

func (r *Reconciler) reconcileOne(ctx context.Context, f catalog.Folder, set *foldertype.Set) (*Update, error) {
	logger := log.WithContext(ctx).With(
		slog.Int64("id", f.ID),
		slog.String("path", f.Path),
	)

	if f.Locked {
		logger.DebugContext(ctx, "skip locked folder")
		return nil, nil
	}

	if ctx.Err() != nil {
		return nil, nil //nolint:nilerr // Reported once by the caller.
	}

	info, err := os.Stat(f.Path)
	if err != nil || !info.IsDir() {
		// The stored type is kept until the path comes back.
		logger.DebugContext(ctx, "skip missing folder", log.ErrAttr(err))
		return nil, nil
	}

	classifiedAt := r.now()

	detected := r.classifier.Classify(ctx, f.Path, set)
	if detected == f.FolderType {
		if _, err := r.writer.MarkClassified(ctx, f.ID, detected, classifiedAt); err != nil {
			logger.ErrorContext(ctx, "mark folder classified", log.ErrAttr(err))
			return nil, &WriteError{FolderID: f.ID, Err: err}
		}

		return nil, nil
	}

	ok, err := r.writer.UpdateFolderType(ctx, f.ID, detected, classifiedAt)
	if err != nil {
		logger.ErrorContext(ctx, "update folder type", log.ErrAttr(err))
		return nil, &WriteError{FolderID: f.ID, Err: err}
	}

	if !ok {
		logger.DebugContext(ctx, "folder type write refused",
			slog.String("type", detected),
		)

		return nil, nil
	}

	logger.DebugContext(ctx, "folder type changed",
		slog.String("from", f.FolderType),
		slog.String("to", detected),
	)

	return &Update{FolderID: f.ID, From: f.FolderType, To: detected}, nil
}
