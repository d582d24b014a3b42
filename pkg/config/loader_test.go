package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/foldex/api/v1beta1/configs"
	"github.com/macropower/foldex/pkg/config"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/yaml"
)

const header = `apiVersion: foldex.jacobcolvin.com/v1beta1
kind: Configuration
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		content string
		errMsg  string
		types   []string
	}{
		"minimal": {
			content: header + `types:
  - id: next
    label: Next.js
    detect:
      any: [.next, next.config.js]
  - id: unknown
    label: Unknown
`,
			types: []string{"next", foldertype.Unknown},
		},
		"missing unknown": {
			content: header + `types:
  - id: next
    label: Next.js
`,
			errMsg: `missing "unknown" type`,
		},
		"duplicate id": {
			content: header + `types:
  - id: go
    label: Go
  - id: go
    label: Golang
  - id: unknown
    label: Unknown
`,
			errMsg: "[6:5] types[1].id: invalid folder types: duplicate id",
		},
		"empty id": {
			content: header + `types:
  - id: ""
    label: Nameless
  - id: unknown
    label: Unknown
`,
			errMsg: "[4:5]",
		},
		"unknown field": {
			content: header + `types:
  - id: unknown
    label: Unknown
    detcet:
      any: [x]
`,
			errMsg: "detcet",
		},
		"bad expression": {
			content: header + `types:
  - id: dotnet
    label: .NET
    detect:
      match: files.exists(f,
  - id: unknown
    label: Unknown
`,
			errMsg: "compile expression",
		},
		"wrong kind": {
			content: `apiVersion: foldex.jacobcolvin.com/v1beta1
kind: Policy
types:
  - id: unknown
    label: Unknown
`,
			errMsg: "[2:1]",
		},
		"invalid yaml": {
			content: header + "types: [\n",
			errMsg:  "[",
		},
		"bad action": {
			content: header + `types:
  - id: unknown
    label: Unknown
actions:
  - id: open
    accepts: [folder]
    command: 'code "unterminated'
`,
			errMsg: "validate actions",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg, err := config.Load(writeConfig(t, tc.content), true)
			if tc.errMsg != "" {
				var cerr *config.Error
				require.ErrorAs(t, err, &cerr)
				assert.Contains(t, err.Error(), tc.errMsg)
				assert.Nil(t, cfg)

				return
			}

			require.NoError(t, err)

			set, err := cfg.TypeSet()
			require.NoError(t, err)

			var ids []string
			for _, d := range set.Definitions() {
				ids = append(ids, d.ID)
			}

			assert.Equal(t, tc.types, ids)
			assert.NotEmpty(t, cfg.Actions)
			assert.Equal(t, configs.DefaultTimeout, cfg.Reconcile.Timeout)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := config.Load(path, true)

	var cerr *config.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, path, cerr.Path)
	require.ErrorIs(t, err, os.ErrNotExist)

	cfg, err := config.Load(path, false)
	require.NoError(t, err)

	set, err := cfg.TypeSet()
	require.NoError(t, err)
	assert.True(t, set.Has("next"))
	assert.Equal(t, foldertype.Unknown, set.Definitions()[set.Len()-1].ID)
}

func TestLoader_Validate(t *testing.T) {
	t.Parallel()

	l := config.NewLoaderFromBytes([]byte(header+`types:
  - id: unknown
    label: Unknown
probe:
  maxDepth: -1
`), configs.New, configs.DefaultValidator)

	err := l.Validate()

	var yerr *yaml.Error
	require.ErrorAs(t, err, &yerr)
	assert.Equal(t, "$.probe.maxDepth", yerr.Path.String())
	assert.Contains(t, err.Error(), "> 7 |   maxDepth: -1")
}

func TestLoader_Settings(t *testing.T) {
	t.Parallel()

	cfg, err := config.NewLoaderFromBytes([]byte(header+`types:
  - id: unknown
    label: Unknown
probe:
  maxDepth: 6
  walkCache: false
reconcile:
  workers: 4
  timeout: 10s
catalog:
  path: /tmp/foldex.db
actions:
  - id: open_vscode
    label: Code
    accepts: [file, folder]
    command: code --reuse-window {path}
    envFrom:
      - pattern: ^VSCODE_
`), configs.New, configs.DefaultValidator).Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Probe.MaxDepth)
	assert.False(t, *cfg.Probe.WalkCache)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.Equal(t, "10s", cfg.Reconcile.Timeout.String())
	assert.Equal(t, "/tmp/foldex.db", cfg.Catalog.Path)
	require.Len(t, cfg.Actions, 1)
	assert.Equal(t, "code --reuse-window {path}", cfg.Actions[0].Command.Command)
}
