package folders_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/folders"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/reconcile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSet = foldertype.MustNewSet(
	foldertype.New("go", "Go", foldertype.WithIcon("go"), foldertype.WithAny("go.mod")),
	foldertype.New("archive", "Archive"),
	foldertype.New(foldertype.Unknown, "Unknown"),
)

func newService(t *testing.T) *folders.Service {
	t.Helper()

	cat, err := catalog.Open(t.Context(), filepath.Join(t.TempDir(), "foldex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cat.Close()) })

	cl := classify.New(nil)

	return folders.New(cat, cl, reconcile.New(cl, cat), testSet)
}

func touch(t *testing.T, path string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestService_Track(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := t.Context()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "go.mod"))

	f, err := svc.Track(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "go", f.FolderType)
	assert.Equal(t, filepath.Base(dir), f.Name)
	assert.Equal(t, dir, f.Path)
	assert.False(t, f.ClassifiedAt.IsZero())

	_, err = svc.Track(ctx, dir)
	require.ErrorIs(t, err, catalog.ErrAlreadyTracked)

	tcs := map[string]string{
		"relative": "some/dir",
		"missing":  filepath.Join(dir, "missing"),
		"file":     filepath.Join(dir, "go.mod"),
	}

	for name, path := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Track(ctx, path)
			require.ErrorIs(t, err, folders.ErrInvalidPath)
		})
	}
}

func TestService_GetFolders(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := t.Context()

	dir := t.TempDir()
	f, err := svc.Track(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, foldertype.Unknown, f.FolderType)

	touch(t, filepath.Join(dir, "go.mod"))

	p, err := svc.Sync(ctx)
	require.NoError(t, err)
	require.Len(t, p.Folders, 1)
	assert.Equal(t, "go", p.Folders[0].FolderType)
	assert.Equal(t, []reconcile.Update{{FolderID: f.ID, From: foldertype.Unknown, To: "go"}}, p.Updates)

	got, err := svc.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].FolderType)

	// The stored type survives the path disappearing.
	require.NoError(t, os.RemoveAll(dir))

	got, err = svc.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].FolderType)
}

func TestService_OverrideUnlock(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := t.Context()

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "go.mod"))

	f, err := svc.Track(ctx, dir)
	require.NoError(t, err)

	_, err = svc.Override(ctx, f.ID, "cobol")
	require.ErrorIs(t, err, folders.ErrUnknownType)

	_, err = svc.Override(ctx, 999, "archive")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	f, err = svc.Override(ctx, f.ID, "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", f.FolderType)
	assert.True(t, f.Locked)

	got, err := svc.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "archive", got[0].FolderType)
	assert.True(t, got[0].Locked)

	f, err = svc.Unlock(ctx, f.ID)
	require.NoError(t, err)
	assert.False(t, f.Locked)
	assert.Equal(t, "archive", f.FolderType)

	got, err = svc.GetFolders(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "go", got[0].FolderType)

	require.NoError(t, svc.Remove(ctx, f.ID))
	require.ErrorIs(t, svc.Remove(ctx, f.ID), catalog.ErrNotFound)

	got, err = svc.GetFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_ConcurrentGetFolders(t *testing.T) {
	t.Parallel()

	svc := newService(t)
	ctx := t.Context()

	for range 5 {
		dir := t.TempDir()
		touch(t, filepath.Join(dir, "go.mod"))

		_, err := svc.Track(ctx, dir)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			got, err := svc.GetFolders(ctx)
			assert.NoError(t, err)
			assert.Len(t, got, 5)
		})
	}

	wg.Wait()
}

func TestService_Canceled(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := svc.GetFolders(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestService_TypesAndExplain(t *testing.T) {
	t.Parallel()

	svc := newService(t)

	assert.Equal(t, []foldertype.Public{
		{ID: "go", Label: "Go", Icon: "go"},
		{ID: "archive", Label: "Archive"},
		{ID: foldertype.Unknown, Label: "Unknown"},
	}, svc.Types())

	dir := t.TempDir()
	touch(t, filepath.Join(dir, "go.mod"))

	res := svc.Explain(t.Context(), dir)
	assert.Equal(t, "go", res.Type)
	require.Len(t, res.Evaluations, 1)
	assert.True(t, res.Evaluations[0].Matched)
}
