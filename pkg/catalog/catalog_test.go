package catalog_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/foldex/pkg/catalog"
)

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func openCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	c, err := catalog.Open(t.Context(), filepath.Join(t.TempDir(), "data", "foldex.db"),
		catalog.WithClock(func() time.Time { return epoch }))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	return c
}

func TestCatalog_AddListGet(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	ctx := t.Context()

	empty, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	a, err := c.Add(ctx, catalog.NewFolder{Name: "a", Path: "/src/a"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", a.FolderType)
	assert.False(t, a.Locked)
	assert.Equal(t, epoch, a.LastModified)
	assert.True(t, a.ClassifiedAt.IsZero())

	b, err := c.Add(ctx, catalog.NewFolder{Name: "b", Path: "/src/b", FolderType: "go", ClassifiedAt: epoch})
	require.NoError(t, err)
	assert.Equal(t, "go", b.FolderType)
	assert.Equal(t, epoch, b.ClassifiedAt)

	_, err = c.Add(ctx, catalog.NewFolder{Name: "again", Path: "/src/a"})
	require.ErrorIs(t, err, catalog.ErrAlreadyTracked)

	folders, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Folder{b, a}, folders)

	got, err := c.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = c.Get(ctx, 999)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalog_UpdateFolderType(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	ctx := t.Context()

	f, err := c.Add(ctx, catalog.NewFolder{Name: "a", Path: "/src/a", ClassifiedAt: epoch})
	require.NoError(t, err)

	ok, err := c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	// A classification that started before the stored one is stale.
	ok, err = c.UpdateFolderType(ctx, f.ID, "rust", epoch)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := c.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "go", got.FolderType)
	assert.Equal(t, epoch.Add(time.Second), got.ClassifiedAt)

	// Locked folders are never written automatically.
	require.NoError(t, c.Override(ctx, f.ID, "python"))

	ok, err = c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = c.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "python", got.FolderType)
	assert.True(t, got.Locked)

	require.NoError(t, c.Unlock(ctx, f.ID))

	// Unlocking does not let stale classifications through.
	ok, err = c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	// Removed folders are refused without error.
	require.NoError(t, c.Remove(ctx, f.ID))

	ok, err = c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(2*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_MarkClassified(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	now := epoch

	c, err := catalog.Open(ctx, filepath.Join(t.TempDir(), "foldex.db"),
		catalog.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })

	f, err := c.Add(ctx, catalog.NewFolder{Name: "a", Path: "/src/a", FolderType: "go"})
	require.NoError(t, err)

	now = epoch.Add(time.Minute)

	// Confirming the stored type moves only the classification time.
	ok, err := c.MarkClassified(ctx, f.ID, "go", epoch.Add(10*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := c.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "go", got.FolderType)
	assert.Equal(t, epoch, got.LastModified)
	assert.Equal(t, epoch.Add(10*time.Second), got.ClassifiedAt)

	// Passes that started before the confirmation are stale.
	ok, err = c.UpdateFolderType(ctx, f.ID, "rust", epoch.Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.MarkClassified(ctx, f.ID, "rust", epoch.Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, ok)

	// A differing stored type is restored and counts as a modification.
	ok, err = c.MarkClassified(ctx, f.ID, "unknown", epoch.Add(20*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = c.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.FolderType)
	assert.Equal(t, epoch.Add(time.Minute), got.LastModified)

	require.NoError(t, c.Override(ctx, f.ID, "python"))

	ok, err = c.MarkClassified(ctx, f.ID, "go", epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalog_NotFound(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	ctx := t.Context()

	tcs := map[string]func() error{
		"override": func() error { return c.Override(ctx, 42, "go") },
		"unlock":   func() error { return c.Unlock(ctx, 42) },
		"remove":   func() error { return c.Remove(ctx, 42) },
	}

	for name, fn := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, fn(), catalog.ErrNotFound)
		})
	}
}

func TestCatalog_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	c := openCatalog(t)
	ctx := t.Context()

	f, err := c.Add(ctx, catalog.NewFolder{Name: "a", Path: "/src/a"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			_, err := c.UpdateFolderType(ctx, f.ID, "go", epoch.Add(time.Duration(i)*time.Second))
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	// Whatever the interleaving, the newest classification wins.
	got, err := c.Get(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(19*time.Second), got.ClassifiedAt)
}
