package action_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/foldex/pkg/action"
	"github.com/macropower/foldex/pkg/execs"
)

type launch struct {
	Argv []string
	Dir  string
}

type fakeLauncher struct {
	err      error
	launches []launch
	mu       sync.Mutex
}

func (l *fakeLauncher) Start(_ context.Context, cmd *execs.Command, dir, path string) (int, error) {
	if l.err != nil {
		return 0, l.err
	}

	argv, err := cmd.Argv(path)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, launch{Argv: argv, Dir: dir})

	return 42, nil
}

func (l *fakeLauncher) Run(ctx context.Context, cmd *execs.Command, dir, path string) (*execs.Result, error) {
	if _, err := l.Start(ctx, cmd, dir, path); err != nil {
		return nil, err
	}

	return &execs.Result{Stdout: path + "\n"}, nil
}

func TestTargetFor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	got, err := action.TargetFor(dir)
	require.NoError(t, err)
	assert.Equal(t, action.Target{Kind: action.KindFolder, Path: dir}, got)

	got, err = action.TargetFor(file)
	require.NoError(t, err)
	assert.Equal(t, action.Target{Kind: action.KindFile, Path: file}, got)

	_, err = action.TargetFor(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDispatcher_Run(t *testing.T) {
	t.Parallel()

	folder := action.Target{Kind: action.KindFolder, Path: "/src/app"}
	file := action.Target{Kind: action.KindFile, Path: "/src/app/main.go"}

	tcs := map[string]struct {
		err    error
		id     string
		target action.Target
		want   launch
	}{
		"vscode folder": {
			id:     "open_vscode",
			target: folder,
			want:   launch{Argv: []string{"code", "/src/app"}, Dir: "/src/app"},
		},
		"vscode file": {
			id:     "open_vscode",
			target: file,
			want:   launch{Argv: []string{"code", "/src/app/main.go"}, Dir: "/src/app"},
		},
		"explorer folder": {
			id:     "open_explorer",
			target: folder,
			want:   launch{Argv: []string{"xdg-open", "/src/app"}, Dir: "/src/app"},
		},
		"explorer file": {
			id:     "open_explorer",
			target: file,
			err:    action.ErrIncompatibleTarget,
		},
		"default file": {
			id:     "open_default",
			target: file,
			want:   launch{Argv: []string{"xdg-open", "/src/app/main.go"}, Dir: "/src/app"},
		},
		"unknown": {
			id:     "open_emacs",
			target: folder,
			err:    action.ErrUnknownAction,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			l := &fakeLauncher{}
			d, err := action.NewDispatcher(action.Defaults("linux"), l)
			require.NoError(t, err)

			err = d.Run(t.Context(), tc.id, tc.target)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Empty(t, l.launches)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []launch{tc.want}, l.launches)
		})
	}
}

func TestDispatcher_LaunchError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	d, err := action.NewDispatcher(action.Defaults("linux"), &fakeLauncher{err: errBoom})
	require.NoError(t, err)

	err = d.Run(t.Context(), "open_default", action.Target{Kind: action.KindFolder, Path: "/x"})
	require.ErrorIs(t, err, errBoom)
}

func TestNewDispatcher_Invalid(t *testing.T) {
	t.Parallel()

	cmd := execs.Command{Command: "code"}

	tcs := map[string][]*action.Action{
		"empty id": {
			{Accepts: []action.TargetKind{action.KindFile}, Command: cmd},
		},
		"no kinds": {
			{ID: "a", Command: cmd},
		},
		"bad kind": {
			{ID: "a", Accepts: []action.TargetKind{"socket"}, Command: cmd},
		},
		"empty command": {
			{ID: "a", Accepts: []action.TargetKind{action.KindFile}},
		},
		"duplicate": {
			{ID: "a", Accepts: []action.TargetKind{action.KindFile}, Command: cmd},
			{ID: "a", Accepts: []action.TargetKind{action.KindFolder}, Command: cmd},
		},
	}

	for name, actions := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := action.NewDispatcher(actions, &fakeLauncher{})
			require.ErrorIs(t, err, action.ErrInvalidAction)
		})
	}
}

func TestDispatcher_For(t *testing.T) {
	t.Parallel()

	d, err := action.NewDispatcher(action.Defaults(runtime.GOOS), &fakeLauncher{})
	require.NoError(t, err)

	ids := func(as []*action.Action) []string {
		var out []string
		for _, a := range as {
			out = append(out, a.ID)
		}

		return out
	}

	assert.Equal(t, []string{"open_vscode", "open_explorer", "open_default"}, ids(d.Actions()))
	assert.Equal(t, []string{"open_vscode", "open_default"}, ids(d.For(action.KindFile)))
	assert.Equal(t, []string{"open_vscode", "open_explorer", "open_default"}, ids(d.For(action.KindFolder)))
}

func TestDefaults_Platforms(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"linux", "darwin", "windows", "freebsd"} {
		_, err := action.NewDispatcher(action.Defaults(goos), &fakeLauncher{})
		require.NoError(t, err, goos)
	}
}

func TestDispatcher_Wait(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{}
	d, err := action.NewDispatcher(action.Defaults("linux"), l)
	require.NoError(t, err)

	res, err := d.Wait(t.Context(), "open_explorer", action.Target{Kind: action.KindFolder, Path: "/src/site"})
	require.NoError(t, err)
	assert.Equal(t, "/src/site\n", res.Stdout)
	assert.Equal(t, []launch{{Argv: []string{"xdg-open", "/src/site"}, Dir: "/src/site"}}, l.launches)

	_, err = d.Wait(t.Context(), "open_explorer", action.Target{Kind: action.KindFile, Path: "/src/site/a.go"})
	require.ErrorIs(t, err, action.ErrIncompatibleTarget)

	_, err = d.Wait(t.Context(), "open_emacs", action.Target{Kind: action.KindFolder, Path: "/src/site"})
	require.ErrorIs(t, err, action.ErrUnknownAction)

	errBoom := errors.New("boom")
	d, err = action.NewDispatcher(action.Defaults("linux"), &fakeLauncher{err: errBoom})
	require.NoError(t, err)

	_, err = d.Wait(t.Context(), "open_default", action.Target{Kind: action.KindFolder, Path: "/x"})
	require.ErrorIs(t, err, errBoom)
}
