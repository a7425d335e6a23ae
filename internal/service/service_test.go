package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/parser"
)

func newFacade(t *testing.T) (*Facade, string) {
	t.Helper()
	dir := t.TempDir()
	pool := parser.NewPool()
	c := cache.New(filepath.Join(dir, ".cache"))
	return New(pool, c, nil), dir
}

func TestSymbolsReturnsSourceOrderedSymbols(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n\nfunc b() {}\n"), 0o644))

	resp := f.Symbols(context.Background(), path, extract.FormCompact, false, false)
	require.Nil(t, resp.Error)
	require.Len(t, resp.Symbols, 2)
	require.Equal(t, "a", resp.Symbols[0].Name)
	require.Equal(t, "b", resp.Symbols[1].Name)
	require.NotNil(t, resp.Diagnostics)
	require.Empty(t, resp.Diagnostics)
}

func TestSymbolsWireEnvelopeAlwaysCarriesDiagnostics(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n"), 0o644))

	resp := f.Symbols(context.Background(), path, extract.FormCompact, false, false)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(mustField(t, data, "diagnostics")))
}

func TestErrorResponseOmitsDiagnosticsField(t *testing.T) {
	f, dir := newFacade(t)
	resp := f.Symbols(context.Background(), filepath.Join(dir, "nope.go"), extract.FormCompact, false, false)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	_, ok := fields["diagnostics"]
	require.False(t, ok)
	_, ok = fields["error"]
	require.True(t, ok)
}

func TestParseErrorNodesSurfacedAsDiagnostics(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "broken.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a( {\n"), 0o644))

	resp := f.Symbols(context.Background(), path, extract.FormCompact, false, false)
	if resp.Error != nil {
		require.Equal(t, "PARSE_ERROR", resp.Error.Code)
		return
	}
	require.NotEmpty(t, resp.Diagnostics)
}

func mustField(t *testing.T, data []byte, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	v, ok := fields[key]
	require.True(t, ok, "missing field %q", key)
	return v
}

func TestSymbolsCacheHitMatchesMiss(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n"), 0o644))

	first := f.Symbols(context.Background(), path, extract.FormCompact, false, false)
	second := f.Symbols(context.Background(), path, extract.FormCompact, false, false)
	require.Equal(t, first.Symbols, second.Symbols)
}

func TestMissingFileIsFileNotFound(t *testing.T) {
	f, dir := newFacade(t)
	resp := f.Symbols(context.Background(), filepath.Join(dir, "nope.go"), extract.FormCompact, false, false)
	require.NotNil(t, resp.Error)
	require.Equal(t, "FILE_NOT_FOUND", resp.Error.Code)
}

func TestSandboxedRejectsEscapingPath(t *testing.T) {
	_, dir := newFacade(t)
	pool := parser.NewPool()
	c := cache.New(filepath.Join(dir, ".cache"))
	sandboxRoot := filepath.Join(dir, "workspace")
	require.NoError(t, os.MkdirAll(sandboxRoot, 0o755))
	f, err := Sandboxed(pool, c, nil, sandboxRoot)
	require.NoError(t, err)

	resp := f.Symbols(context.Background(), "../outside.go", extract.FormCompact, false, false)
	require.NotNil(t, resp.Error)
	require.Equal(t, "PATH_OUT_OF_BOUNDS", resp.Error.Code)
}

func TestRefsEmptyNameIsInvalidRequest(t *testing.T) {
	f, dir := newFacade(t)
	resp := f.Refs(context.Background(), dir, "", "")
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}

func TestSequenceRendersMermaid(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() { b() }\n\nfunc b() {}\n"), 0o644))

	resp := f.Sequence(context.Background(), path, "a")
	require.Nil(t, resp.Error)
	require.Contains(t, resp.Mermaid, "sequenceDiagram")
	require.Contains(t, resp.Mermaid, "a->>b")
}
