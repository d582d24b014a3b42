// Package folders is the caller-facing service over the folder catalog.
//
// Every read through [Service.GetFolders] first runs a reconciliation pass so
// the returned snapshot reflects the current filesystem.
package folders

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/reconcile"
)

var (
	// ErrUnknownType is returned when overriding with an id that is not loaded.
	ErrUnknownType = errors.New("unknown folder type")

	// ErrInvalidPath is returned when tracking a path that is not an
	// absolute path to an existing directory.
	ErrInvalidPath = errors.New("invalid folder path")
)

// Catalog is the folder store used by a [Service].
type Catalog interface {
	reconcile.Writer

	List(ctx context.Context) ([]catalog.Folder, error)
	Get(ctx context.Context, id int64) (catalog.Folder, error)
	Add(ctx context.Context, nf catalog.NewFolder) (catalog.Folder, error)
	Override(ctx context.Context, id int64, folderType string) error
	Unlock(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
}

// Pass is the result of a reconciliation pass followed by a catalog read.
type Pass struct {
	Folders []catalog.Folder   `json:"folders"           yaml:"folders"`
	Updates []reconcile.Update `json:"updates,omitempty" yaml:"updates,omitempty"`
}

// Service tracks folders and keeps their types current.
// It is safe for concurrent use.
type Service struct {
	catalog    Catalog
	classifier *classify.Classifier
	reconciler *reconcile.Reconciler
	set        *foldertype.Set
	now        func() time.Time
	passes     singleflight.Group
}

// Opt configures a [Service].
type Opt func(*Service)

// WithClock sets the function used to timestamp initial classifications.
func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a new [Service]. The set must have been validated by
// [foldertype.NewSet]; it is never modified.
func New(c Catalog, cl *classify.Classifier, r *reconcile.Reconciler, set *foldertype.Set, opts ...Opt) *Service {
	s := &Service{
		catalog:    c,
		classifier: cl,
		reconciler: r,
		set:        set,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetFolders reconciles every tracked folder and returns the catalog
// snapshot taken afterwards.
//
// Write failures from the pass are returned alongside the snapshot. Callers
// arriving while a pass is running wait for it instead of starting another.
// Canceling ctx stops the wait but not a pass that other callers share.
func (s *Service) GetFolders(ctx context.Context) ([]catalog.Folder, error) {
	p, err := s.Sync(ctx)
	return p.Folders, err
}

// Sync is like [Service.GetFolders] but also reports the applied updates.
func (s *Service) Sync(ctx context.Context) (Pass, error) {
	if err := ctx.Err(); err != nil {
		return Pass{}, fmt.Errorf("get folders: %w", err)
	}

	ch := s.passes.DoChan("reconcile", func() (any, error) {
		return s.pass(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return Pass{}, fmt.Errorf("get folders: %w", ctx.Err())

	case res := <-ch:
		p, _ := res.Val.(Pass)

		// Results are shared between callers.
		return Pass{
			Folders: slices.Clone(p.Folders),
			Updates: slices.Clone(p.Updates),
		}, res.Err
	}
}

func (s *Service) pass(ctx context.Context) (Pass, error) {
	folders, err := s.catalog.List(ctx)
	if err != nil {
		return Pass{}, fmt.Errorf("get folders: %w", err)
	}

	updates, passErr := s.reconciler.Reconcile(ctx, folders, s.set)

	snapshot, err := s.catalog.List(ctx)
	if err != nil {
		return Pass{}, fmt.Errorf("get folders: %w", errors.Join(passErr, err))
	}

	if passErr != nil {
		passErr = fmt.Errorf("reconcile: %w", passErr)
	}

	return Pass{Folders: snapshot, Updates: updates}, passErr
}

// Track adds the directory at path to the catalog with an initial
// classification.
func (s *Service) Track(ctx context.Context, path string) (catalog.Folder, error) {
	if !filepath.IsAbs(path) {
		return catalog.Folder{}, fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, path)
	}

	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return catalog.Folder{}, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	if !info.IsDir() {
		return catalog.Folder{}, fmt.Errorf("%w: %q is not a directory", ErrInvalidPath, path)
	}

	classifiedAt := s.now()

	f, err := s.catalog.Add(ctx, catalog.NewFolder{
		Name:         filepath.Base(path),
		Path:         path,
		FolderType:   s.classifier.Classify(ctx, path, s.set),
		ClassifiedAt: classifiedAt,
	})
	if err != nil {
		return catalog.Folder{}, fmt.Errorf("track folder: %w", err)
	}

	return f, nil
}

// Override sets a folder's type and locks it against reclassification.
func (s *Service) Override(ctx context.Context, id int64, folderType string) (catalog.Folder, error) {
	if !s.set.Has(folderType) {
		return catalog.Folder{}, fmt.Errorf("%w: %q", ErrUnknownType, folderType)
	}

	if err := s.catalog.Override(ctx, id, folderType); err != nil {
		return catalog.Folder{}, fmt.Errorf("override folder type: %w", err)
	}

	return s.get(ctx, id)
}

// Unlock releases a folder's type so the next pass may reclassify it.
func (s *Service) Unlock(ctx context.Context, id int64) (catalog.Folder, error) {
	if err := s.catalog.Unlock(ctx, id); err != nil {
		return catalog.Folder{}, fmt.Errorf("unlock folder type: %w", err)
	}

	return s.get(ctx, id)
}

// Remove stops tracking a folder.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.catalog.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove folder: %w", err)
	}

	return nil
}

// Get returns a tracked folder without reconciling it.
func (s *Service) Get(ctx context.Context, id int64) (catalog.Folder, error) {
	return s.get(ctx, id)
}

// Explain classifies path without touching the catalog.
func (s *Service) Explain(ctx context.Context, path string) classify.Result {
	return s.classifier.Explain(ctx, path, s.set)
}

// Types returns the loaded folder types in priority order.
func (s *Service) Types() []foldertype.Public {
	return s.set.Public()
}

func (s *Service) get(ctx context.Context, id int64) (catalog.Folder, error) {
	f, err := s.catalog.Get(ctx, id)
	if err != nil {
		return catalog.Folder{}, fmt.Errorf("get folder: %w", err)
	}

	return f, nil
}
