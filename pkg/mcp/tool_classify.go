package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/foldertype"
)

// ClassifyPathParams defines parameters for the classify_path tool.
type ClassifyPathParams struct {
	Path string `json:"path"`
}

// ClassifyPathResult contains the classification of a directory.
type ClassifyPathResult struct {
	Error       string                `json:"error,omitempty"`
	Message     string                `json:"message"`
	Path        string                `json:"path"`
	Type        string                `json:"type"`
	Evaluations []classify.Evaluation `json:"evaluations"`
}

// ListFolderTypesParams defines parameters for the list_folder_types tool.
type ListFolderTypesParams struct{}

// ListFolderTypesResult contains the configured folder types.
type ListFolderTypesResult struct {
	Message string              `json:"message"`
	Types   []foldertype.Public `json:"types"`
	Count   int                 `json:"count"`
}

func (s *Server) handleClassifyPath(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ClassifyPathParams],
) (*mcp.CallToolResultFor[ClassifyPathResult], error) {
	path := params.Arguments.Path

	result := ClassifyPathResult{
		Path:        path,
		Evaluations: []classify.Evaluation{},
	}

	if err := checkDir(path); err != nil {
		result.Error = err.Error()
		result.Message = fmt.Sprintf("INVALID INPUT ERROR: %v.", err)

		return newResult(result.Message, result, true), nil
	}

	res := s.service.Explain(ctx, filepath.Clean(path))

	result.Path = res.Root
	result.Type = res.Type
	if res.Evaluations != nil {
		result.Evaluations = res.Evaluations
	}

	result.Message = fmt.Sprintf("Classified %s as %q.", result.Path, result.Type)

	return newResult(result.Message, result, false), nil
}

func (s *Server) handleListFolderTypes(
	_ context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[ListFolderTypesParams],
) (*mcp.CallToolResultFor[ListFolderTypesResult], error) {
	types := s.service.Types()
	if types == nil {
		types = []foldertype.Public{}
	}

	result := ListFolderTypesResult{
		Types:   types,
		Count:   len(types),
		Message: fmt.Sprintf("Found %d folder types.", len(types)),
	}

	return newResult(result.Message, result, false), nil
}

func checkDir(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path %q is not absolute", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path %q cannot be read", path)
	}

	if !info.IsDir() {
		return fmt.Errorf("path %q is not a directory", path)
	}

	return nil
}
