package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/folders"
)

// GetFoldersParams defines parameters for the get_folders tool.
type GetFoldersParams struct{}

// GetFoldersResult contains the tracked folders after a refresh.
type GetFoldersResult struct {
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message"`
	Folders []FolderInfo `json:"folders"`
	Count   int          `json:"count"`
}

// FolderParams identifies a tracked folder, and optionally a type to assign.
type FolderParams struct {
	Type string `json:"type,omitempty"`
	ID   int64  `json:"id"`
}

// FolderResult contains a single tracked folder.
type FolderResult struct {
	Folder  *FolderInfo `json:"folder,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
}

// FolderInfo is a tracked folder as reported to clients.
// Times are RFC 3339 strings in UTC.
type FolderInfo struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	FolderType   string `json:"folderType"`
	LastModified string `json:"lastModified"`
	ClassifiedAt string `json:"classifiedAt,omitempty"`
	ID           int64  `json:"id"`
	Locked       bool   `json:"locked"`
}

func newFolderInfo(f catalog.Folder) FolderInfo {
	info := FolderInfo{
		ID:           f.ID,
		Name:         f.Name,
		Path:         f.Path,
		FolderType:   f.FolderType,
		Locked:       f.Locked,
		LastModified: formatTime(f.LastModified),
	}
	if !f.ClassifiedAt.IsZero() {
		info.ClassifiedAt = formatTime(f.ClassifiedAt)
	}

	return info
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Server) handleGetFolders(
	ctx context.Context,
	_ *mcp.ServerSession,
	_ *mcp.CallToolParamsFor[GetFoldersParams],
) (*mcp.CallToolResultFor[GetFoldersResult], error) {
	list, err := s.service.GetFolders(ctx)

	result := GetFoldersResult{
		Folders: make([]FolderInfo, 0, len(list)),
		Count:   len(list),
	}
	for _, f := range list {
		result.Folders = append(result.Folders, newFolderInfo(f))
	}

	result.Message = fmt.Sprintf("Found %d tracked folders.", result.Count)

	if err != nil {
		result.Error = err.Error()

		// Write failures still come with a usable snapshot.
		if list == nil {
			result.Message = "ERROR: Could not read the folder catalog."
			return newResult(result.Message, result, true), nil
		}
	}

	return newResult(result.Message, result, false), nil
}

func (s *Server) handleOverrideFolderType(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[FolderParams],
) (*mcp.CallToolResultFor[FolderResult], error) {
	args := params.Arguments

	f, err := s.service.Override(ctx, args.ID, args.Type)
	if err != nil {
		return folderError(err, args), nil
	}

	return folderResult(f, fmt.Sprintf("Folder %d is now locked to type %q.", f.ID, f.FolderType)), nil
}

func (s *Server) handleUnlockFolderType(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[FolderParams],
) (*mcp.CallToolResultFor[FolderResult], error) {
	args := params.Arguments

	f, err := s.service.Unlock(ctx, args.ID)
	if err != nil {
		return folderError(err, args), nil
	}

	return folderResult(f, fmt.Sprintf("Folder %d is unlocked.", f.ID)), nil
}

func folderResult(f catalog.Folder, msg string) *mcp.CallToolResultFor[FolderResult] {
	info := newFolderInfo(f)

	return newResult(msg, FolderResult{Folder: &info, Message: msg}, false)
}

func folderError(err error, args FolderParams) *mcp.CallToolResultFor[FolderResult] {
	var msg string

	switch {
	case errors.Is(err, catalog.ErrNotFound):
		msg = fmt.Sprintf("INVALID INPUT ERROR: Folder %d is not tracked. Use an id from the get_folders tool.", args.ID)
	case errors.Is(err, folders.ErrUnknownType):
		msg = fmt.Sprintf("INVALID INPUT ERROR: Unknown folder type %q. Use an id from the list_folder_types tool.", args.Type)
	default:
		msg = "ERROR: " + err.Error()
	}

	return newResult(msg, FolderResult{Message: msg, Error: err.Error()}, true)
}

func newResult[Out any](text string, out Out, isError bool) *mcp.CallToolResultFor[Out] {
	return &mcp.CallToolResultFor[Out]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		StructuredContent: out,
		IsError:           isError,
	}
}
