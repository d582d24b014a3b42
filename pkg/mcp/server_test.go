package mcp_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/folders"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/mcp"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeService struct {
	err     error
	folders map[int64]catalog.Folder
}

func newFakeService() *fakeService {
	return &fakeService{
		folders: map[int64]catalog.Folder{
			1: {
				ID:           1,
				Name:         "site",
				Path:         "/src/site",
				FolderType:   "next",
				LastModified: testTime,
				ClassifiedAt: testTime.Add(time.Hour),
			},
			2: {
				ID:           2,
				Name:         "notes",
				Path:         "/src/notes",
				FolderType:   "unknown",
				LastModified: testTime,
			},
		},
	}
}

func (f *fakeService) GetFolders(context.Context) ([]catalog.Folder, error) {
	return []catalog.Folder{f.folders[2], f.folders[1]}, f.err
}

func (f *fakeService) Explain(_ context.Context, path string) classify.Result {
	return classify.Result{
		Type: "python",
		Root: path,
		Evaluations: []classify.Evaluation{
			{Type: "next", Any: classify.OutcomeFail, All: classify.OutcomeSkipped, Match: classify.OutcomeSkipped},
			{Type: "python", Any: classify.OutcomePass, All: classify.OutcomeAbsent, Match: classify.OutcomeAbsent, Matched: true},
		},
	}
}

func (f *fakeService) Types() []foldertype.Public {
	return []foldertype.Public{
		{ID: "next", Label: "Next.js", Icon: "nextjs"},
		{ID: "python", Label: "Python", Icon: "python"},
		{ID: "unknown", Label: "Unknown", Icon: "folder"},
	}
}

func (f *fakeService) Override(_ context.Context, id int64, folderType string) (catalog.Folder, error) {
	if folderType != "next" && folderType != "python" && folderType != "unknown" {
		return catalog.Folder{}, fmt.Errorf("%w: %q", folders.ErrUnknownType, folderType)
	}

	folder, ok := f.folders[id]
	if !ok {
		return catalog.Folder{}, fmt.Errorf("override folder type: %w", catalog.ErrNotFound)
	}

	folder.FolderType = folderType
	folder.Locked = true

	return folder, nil
}

func (f *fakeService) Unlock(_ context.Context, id int64) (catalog.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return catalog.Folder{}, fmt.Errorf("unlock folder type: %w", catalog.ErrNotFound)
	}

	return folder, nil
}

func connect(t *testing.T, svc mcp.FolderService) *sdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ctx := t.Context()

	serverSession, err := mcp.NewServer("", svc).Server().Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "client"}, nil)
	clientSession, err := client.Connect(ctx, clientTransport)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, clientSession.Close())
		assert.NoError(t, serverSession.Wait())
	})

	return clientSession
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tcs := map[string]struct {
		params  *sdk.CallToolParams
		want    map[string]any
		isError bool
	}{
		"get_folders": {
			params: &sdk.CallToolParams{
				Name:      "get_folders",
				Arguments: map[string]any{},
			},
			want: map[string]any{
				"message": "Found 2 tracked folders.",
				"count":   float64(2),
				"folders": []any{
					map[string]any{
						"id":           float64(2),
						"name":         "notes",
						"path":         "/src/notes",
						"folderType":   "unknown",
						"lastModified": "2026-03-01T12:00:00Z",
						"locked":       false,
					},
					map[string]any{
						"id":           float64(1),
						"name":         "site",
						"path":         "/src/site",
						"folderType":   "next",
						"lastModified": "2026-03-01T12:00:00Z",
						"classifiedAt": "2026-03-01T13:00:00Z",
						"locked":       false,
					},
				},
			},
		},
		"classify_path": {
			params: &sdk.CallToolParams{
				Name:      "classify_path",
				Arguments: map[string]any{"path": dir},
			},
			want: map[string]any{
				"message": fmt.Sprintf("Classified %s as %q.", dir, "python"),
				"path":    dir,
				"type":    "python",
				"evaluations": []any{
					map[string]any{"type": "next", "any": "fail", "all": "skipped", "match": "skipped", "matched": false},
					map[string]any{"type": "python", "any": "pass", "all": "absent", "match": "absent", "matched": true},
				},
			},
		},
		"classify_path relative": {
			params: &sdk.CallToolParams{
				Name:      "classify_path",
				Arguments: map[string]any{"path": "src/site"},
			},
			want: map[string]any{
				"message":     `INVALID INPUT ERROR: path "src/site" is not absolute.`,
				"error":       `path "src/site" is not absolute`,
				"path":        "src/site",
				"type":        "",
				"evaluations": []any{},
			},
			isError: true,
		},
		"list_folder_types": {
			params: &sdk.CallToolParams{
				Name:      "list_folder_types",
				Arguments: map[string]any{},
			},
			want: map[string]any{
				"message": "Found 3 folder types.",
				"count":   float64(3),
				"types": []any{
					map[string]any{"id": "next", "label": "Next.js", "icon": "nextjs"},
					map[string]any{"id": "python", "label": "Python", "icon": "python"},
					map[string]any{"id": "unknown", "label": "Unknown", "icon": "folder"},
				},
			},
		},
		"override_folder_type": {
			params: &sdk.CallToolParams{
				Name:      "override_folder_type",
				Arguments: map[string]any{"id": 2, "type": "python"},
			},
			want: map[string]any{
				"message": `Folder 2 is now locked to type "python".`,
				"folder": map[string]any{
					"id":           float64(2),
					"name":         "notes",
					"path":         "/src/notes",
					"folderType":   "python",
					"lastModified": "2026-03-01T12:00:00Z",
					"locked":       true,
				},
			},
		},
		"override_folder_type unknown type": {
			params: &sdk.CallToolParams{
				Name:      "override_folder_type",
				Arguments: map[string]any{"id": 2, "type": "cobol"},
			},
			want: map[string]any{
				"message": `INVALID INPUT ERROR: Unknown folder type "cobol". Use an id from the list_folder_types tool.`,
				"error":   `unknown folder type: "cobol"`,
			},
			isError: true,
		},
		"unlock_folder_type not tracked": {
			params: &sdk.CallToolParams{
				Name:      "unlock_folder_type",
				Arguments: map[string]any{"id": 9},
			},
			want: map[string]any{
				"message": "INVALID INPUT ERROR: Folder 9 is not tracked. Use an id from the get_folders tool.",
				"error":   "unlock folder type: folder not found",
			},
			isError: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			session := connect(t, newFakeService())

			r, err := session.CallTool(t.Context(), tc.params)
			require.NoError(t, err)
			require.NotNil(t, r)

			assert.Equal(t, tc.isError, r.IsError)
			assert.Equal(t, tc.want, r.StructuredContent)

			require.Len(t, r.Content, 1)
			text, ok := r.Content[0].(*sdk.TextContent)
			require.True(t, ok)
			assert.Equal(t, tc.want["message"], text.Text)
		})
	}
}

func TestServer_GetFoldersWriteError(t *testing.T) {
	t.Parallel()

	svc := newFakeService()
	svc.err = fmt.Errorf("reconcile: %w", assert.AnError)

	session := connect(t, svc)

	r, err := session.CallTool(t.Context(), &sdk.CallToolParams{
		Name:      "get_folders",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)

	// The snapshot is still returned.
	assert.False(t, r.IsError)

	content, ok := r.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), content["count"])
	assert.Contains(t, content["error"], "reconcile")
}

func TestServer_ListTools(t *testing.T) {
	t.Parallel()

	session := connect(t, newFakeService())

	res, err := session.ListTools(t.Context(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}

	assert.ElementsMatch(t, []string{
		"get_folders",
		"classify_path",
		"list_folder_types",
		"override_folder_type",
		"unlock_folder_type",
	}, names)
}
