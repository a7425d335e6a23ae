// Package mcpserver is the JSON-RPC/MCP front-end (spec §4.12): a
// stdio-framed JSON-RPC 2.0 server registering 11 tools, each a thin
// wrapper around a service.Facade call, bound to a sandboxed
// workspace root. Adapted from the teacher's internal/mcp server
// setup (github.com/modelcontextprotocol/go-sdk/mcp), stripped of the
// teacher's index-management and search tool surface in favor of the
// 11 tools this spec names.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/owayo/astro-sight/internal/cochange"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/impact"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/version"
)

// Server wraps an *mcp.Server bound to one sandboxed service.Facade.
type Server struct {
	facade *service.Facade
	server *mcp.Server
}

// New builds a Server whose tools all dispatch through facade, which
// must already be constructed in sandboxed mode (service.Sandboxed).
func New(facade *service.Facade) *Server {
	s := &Server{facade: facade}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "astro-sight",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s
}

// Run serves JSON-RPC 2.0 over stdio until ctx is cancelled or the
// transport closes.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// toolHandler is the signature mcp.AddTool expects.
type toolHandler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// traced assigns each inbound tool call a correlation ID and traces
// its start/end through the façade's logger, so a single call can be
// followed across a session that may interleave many tools.
func (s *Server) traced(tool string, h toolHandler) toolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := uuid.NewString()
		s.facade.Logger.Tracef(tool, "start id=%s", id)
		res, err := h(ctx, req)
		if err != nil {
			s.facade.Logger.Tracef(tool, "error id=%s err=%v", id, err)
		} else {
			s.facade.Logger.Tracef(tool, "done id=%s", id)
		}
		return res, err
	}
}

func schema(props map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func strProp(desc string) *jsonschema.Schema { return &jsonschema.Schema{Type: "string", Description: desc} }
func intProp(desc string) *jsonschema.Schema { return &jsonschema.Schema{Type: "integer", Description: desc} }
func boolProp(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name: "ast", Description: "Return the AST fragment at or around a location in a file.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"path": strProp("file path"), "line": intProp("1-based line"), "col": intProp("0-based column"),
			"depth": intProp("child expansion depth"), "context": intProp("context lines per node"),
		}, "path"),
	}, s.traced("ast", s.handleAST))

	s.server.AddTool(&mcp.Tool{
		Name: "symbols", Description: "List symbol definitions in a file, in source order.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"path": strProp("file path"), "full": boolProp("include range+hash"), "doc": boolProp("include docstring"),
		}, "path"),
	}, s.traced("symbols", s.handleSymbols))

	s.server.AddTool(&mcp.Tool{
		Name: "calls", Description: "List call edges in a file, optionally filtered to one caller.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"path": strProp("file path"), "function": strProp("caller name filter"),
		}, "path"),
	}, s.traced("calls", s.handleCalls))

	s.server.AddTool(&mcp.Tool{
		Name: "imports", Description: "List import/use/include statements in a file.",
		InputSchema: schema(map[string]*jsonschema.Schema{"path": strProp("file path")}, "path"),
	}, s.traced("imports", s.handleImports))

	s.server.AddTool(&mcp.Tool{
		Name: "refs", Description: "Find references to one symbol name across the workspace.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"root": strProp("workspace root"), "name": strProp("symbol name"), "glob": strProp("path glob filter"),
		}, "root", "name"),
	}, s.traced("refs", s.handleRefs))

	s.server.AddTool(&mcp.Tool{
		Name: "refs_batch", Description: "Find references to several symbol names in one pass.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"root": strProp("workspace root"),
			"names": {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "symbol names"},
			"glob":  strProp("path glob filter"),
		}, "root", "names"),
	}, s.traced("refs_batch", s.handleRefsBatch))

	s.server.AddTool(&mcp.Tool{
		Name: "context", Description: "Impact analysis: affected symbols, signature changes, and impacted callers for a diff.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"root": strProp("workspace root"), "diff": strProp("unified diff text"),
			"git": boolProp("read diff from git"), "staged": boolProp("diff staged changes"), "base": strProp("base ref"),
		}, "root"),
	}, s.traced("context", s.handleContext))

	s.server.AddTool(&mcp.Tool{
		Name: "lint", Description: "Run lint rules against a file.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"path": strProp("file path"),
			"rules": {Type: "array", Description: "lint rule objects"},
		}, "path", "rules"),
	}, s.traced("lint", s.handleLint))

	s.server.AddTool(&mcp.Tool{
		Name: "sequence", Description: "Render a function's call tree as a Mermaid sequence diagram.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"path": strProp("file path"), "function": strProp("root function name"),
		}, "path", "function"),
	}, s.traced("sequence", s.handleSequence))

	s.server.AddTool(&mcp.Tool{
		Name: "cochange", Description: "Mine file co-change statistics from version-control history.",
		InputSchema: schema(map[string]*jsonschema.Schema{
			"root": strProp("workspace root"), "lookback": intProp("commits to scan"),
			"min_confidence": {Type: "number", Description: "confidence floor"}, "file": strProp("single-file filter"),
		}, "root"),
	}, s.traced("cochange", s.handleCochange))

	s.server.AddTool(&mcp.Tool{
		Name: "doctor", Description: "Report process and environment health.",
		InputSchema: schema(map[string]*jsonschema.Schema{}),
	}, s.traced("doctor", s.handleDoctor))
}

func textResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(data)}}}, nil
}

type astArgs struct {
	Path    string  `json:"path"`
	Line    *uint32 `json:"line"`
	Col     *uint32 `json:"col"`
	EndLine *uint32 `json:"end_line"`
	EndCol  *uint32 `json:"end_col"`
	Depth   int     `json:"depth"`
	Context int     `json:"context"`
}

func (s *Server) handleAST(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a astArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	sel := extract.Selection{Line: a.Line, Col: a.Col, EndLine: a.EndLine, EndCol: a.EndCol}
	return textResult(s.facade.AST(ctx, a.Path, sel, a.Depth, a.Context, false, false))
}

type symbolsArgs struct {
	Path string `json:"path"`
	Full bool   `json:"full"`
	Doc  bool   `json:"doc"`
}

func (s *Server) handleSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a symbolsArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	form := extract.FormCompact
	switch {
	case a.Full:
		form = extract.FormFull
	case a.Doc:
		form = extract.FormDoc
	}
	return textResult(s.facade.Symbols(ctx, a.Path, form, false, false))
}

type callsArgs struct {
	Path     string `json:"path"`
	Function string `json:"function"`
}

func (s *Server) handleCalls(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a callsArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.Calls(ctx, a.Path, a.Function, false, false))
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImports(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a pathArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.Imports(ctx, a.Path, false, false))
}

type refsArgs struct {
	Root string `json:"root"`
	Name string `json:"name"`
	Glob string `json:"glob"`
}

func (s *Server) handleRefs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a refsArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.Refs(ctx, a.Root, a.Name, a.Glob))
}

type refsBatchArgs struct {
	Root  string   `json:"root"`
	Names []string `json:"names"`
	Glob  string   `json:"glob"`
}

func (s *Server) handleRefsBatch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a refsBatchArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.RefsBatch(ctx, a.Root, a.Names, a.Glob))
}

type contextArgs struct {
	Root   string `json:"root"`
	Diff   string `json:"diff"`
	Git    bool   `json:"git"`
	Staged bool   `json:"staged"`
	Base   string `json:"base"`
}

func (s *Server) handleContext(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a contextArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	opts := impact.Options{DiffText: a.Diff, UseGit: a.Git, Staged: a.Staged, BaseRef: a.Base}
	return textResult(s.facade.Context(ctx, a.Root, opts))
}

type lintArgs struct {
	Path  string        `json:"path"`
	Rules []extract.Rule `json:"rules"`
}

func (s *Server) handleLint(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a lintArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.Lint(ctx, a.Path, a.Rules, false, false))
}

type sequenceArgs struct {
	Path     string `json:"path"`
	Function string `json:"function"`
}

func (s *Server) handleSequence(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a sequenceArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return textResult(s.facade.Sequence(ctx, a.Path, a.Function))
}

type cochangeArgs struct {
	Root          string  `json:"root"`
	Lookback      int     `json:"lookback"`
	MinConfidence float64 `json:"min_confidence"`
	File          string  `json:"file"`
}

func (s *Server) handleCochange(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var a cochangeArgs
	if err := json.Unmarshal(req.Params.Arguments, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	opts := cochange.Options{Lookback: a.Lookback, MinConfidence: a.MinConfidence, PathFilter: a.File}
	return textResult(s.facade.Cochange(ctx, a.Root, opts))
}

func (s *Server) handleDoctor(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(s.facade.Doctor(ctx, "", "", ""))
}
