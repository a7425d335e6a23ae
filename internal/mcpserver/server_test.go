package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/types"
)

func newSandboxedServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	pool := parser.NewPool()
	c := cache.New(filepath.Join(dir, ".cache"))
	facade, err := service.Sandboxed(pool, c, nil, dir)
	require.NoError(t, err)
	return New(facade), dir
}

func textOf(t *testing.T, res *mcp.CallToolResult) types.Response {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &resp))
	return resp
}

func TestHandleSymbolsReturnsSourceOrderedSymbols(t *testing.T) {
	s, dir := newSandboxedServer(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n\nfunc b() {}\n"), 0o644))

	args, err := json.Marshal(symbolsArgs{Path: path})
	require.NoError(t, err)
	res, err := s.handleSymbols(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: args}})
	require.NoError(t, err)

	resp := textOf(t, res)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Symbols, 2)
}

func TestHandleSymbolsRejectsEscapingPath(t *testing.T) {
	s, _ := newSandboxedServer(t)
	args, err := json.Marshal(symbolsArgs{Path: "../outside.go"})
	require.NoError(t, err)
	res, err := s.handleSymbols(context.Background(), &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: args}})
	require.NoError(t, err)

	resp := textOf(t, res)
	require.NotNil(t, resp.Error)
	require.Equal(t, "PATH_OUT_OF_BOUNDS", resp.Error.Code)
}

func TestHandleDoctorReturnsReport(t *testing.T) {
	s, _ := newSandboxedServer(t)
	res, err := s.handleDoctor(context.Background(), &mcp.CallToolRequest{})
	require.NoError(t, err)

	resp := textOf(t, res)
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Doctor)
}
