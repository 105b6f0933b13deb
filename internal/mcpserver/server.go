// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the jotbox catalogue and note operations over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jotbox/internal/apperr"
	"github.com/starford/jotbox/internal/catalog"
	"github.com/starford/jotbox/internal/models"
)

const noteFormatURI = "jotbox://note-format"

// Server wraps the MCP server with jotbox tools.
type Server struct {
	mcp    *server.MCPServer
	engine *catalog.Engine
}

// New creates a new MCP server with all jotbox tools registered.
func New(engine *catalog.Engine, version string) *Server {
	s := &Server{engine: engine}

	s.mcp = server.NewMCPServer(
		"jotbox",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_catalogue",
		mcp.WithDescription("List asset names and note metadata (file, title, date)."),
	), s.getCatalogue)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw content of a note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note file name")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Fails if the note already exists. "+
			"Read the format first via get_note_format or the "+noteFormatURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note file name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full note content")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the content of an existing note. Fails if the note does not exist."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note file name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full note content")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete an existing note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note file name")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("resync",
		mcp.WithDescription("Reload the asset log and the notes directory, then return the catalogue."),
	), s.resync)

	s.mcp.AddTool(mcp.NewTool("resolve_asset",
		mcp.WithDescription("Return the URL of an asset by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Asset name")),
	), s.resolveAsset)

	s.mcp.AddTool(mcp.NewTool("get_note_format",
		mcp.WithDescription("Returns how note content maps to catalogue metadata."),
	), s.getNoteFormat)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("How note content maps to catalogue metadata."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a domain error into a tool-level error result. Unexpected
// errors are reported without detail.
func toolError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrInvalidName),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrNotReady):
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultError("internal error"), nil
}

func (s *Server) getCatalogue(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Catalogue())
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.engine.ReadNote(ctx, name)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.write(ctx, req, s.engine.Create)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.write(ctx, req, s.engine.Update)
}

func (s *Server) write(ctx context.Context, req mcp.CallToolRequest,
	op func(context.Context, string, []byte) (models.Catalogue, error),
) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := op(ctx, name, []byte(content))
	if err != nil {
		return toolError(err)
	}
	return jsonResult(c)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.engine.Delete(ctx, name)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(c)
}

func (s *Server) resync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.Sync(ctx); err != nil {
		return mcp.NewToolResultError("sync failed"), nil
	}
	return jsonResult(s.engine.Catalogue())
}

func (s *Server) resolveAsset(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	url, ok := s.engine.State().Asset(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown asset: %s", name)), nil
	}
	return mcp.NewToolResultText(url), nil
}

func (s *Server) getNoteFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormat), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
