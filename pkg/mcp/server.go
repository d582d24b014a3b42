package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/foldex/pkg/catalog"
	"github.com/macropower/foldex/pkg/classify"
	"github.com/macropower/foldex/pkg/foldertype"
	"github.com/macropower/foldex/pkg/version"
)

// FolderService is the subset of [folders.Service] used by the server.
type FolderService interface {
	GetFolders(ctx context.Context) ([]catalog.Folder, error)
	Explain(ctx context.Context, path string) classify.Result
	Types() []foldertype.Public
	Override(ctx context.Context, id int64, folderType string) (catalog.Folder, error)
	Unlock(ctx context.Context, id int64) (catalog.Folder, error)
}

// Server implements the MCP server for foldex.
type Server struct {
	service FolderService
	server  *mcp.Server
	tracer  trace.Tracer
	address string
}

// NewServer creates a new MCP server for svc. An empty address serves stdio.
func NewServer(address string, svc FolderService) *Server {
	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s := &Server{
		address: address,
		service: svc,
		server:  mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		tracer:  otel.Tracer("mcp"),
	}

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_folders",
		Description: "List all tracked folders with their current type. Types are refreshed from disk first, except for folders whose type was overridden.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, WithTracing(s.tracer, s.handleGetFolders))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_path",
		Description: "Classify a directory without tracking it. Returns the detected type and how each folder type's rule was evaluated.",
		InputSchema: newPathSchema("The absolute path of the directory to classify."),
	}, WithTracing(s.tracer, s.handleClassifyPath))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_folder_types",
		Description: "List the configured folder types in priority order. The first type whose rule matches a folder wins.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, WithTracing(s.tracer, s.handleListFolderTypes))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "override_folder_type",
		Description: "Set the type of a tracked folder and lock it, so automatic classification no longer changes it. You MUST use a type id from list_folder_types.",
		InputSchema: newFolderIDSchema(map[string]*jsonschema.Schema{
			"type": {
				Type:        "string",
				Description: "The folder type id to assign.",
			},
		}, "type"),
	}, WithTracing(s.tracer, s.handleOverrideFolderType))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "unlock_folder_type",
		Description: "Remove an override from a tracked folder, so its type is refreshed by the next get_folders call.",
		InputSchema: newFolderIDSchema(nil),
	}, WithTracing(s.tracer, s.handleUnlockFolderType))
}

// Server returns the underlying MCP server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve runs the server until ctx is canceled or the transport closes.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server failed: %w", err)
		}

		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)

	err := s.server.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
