package session

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/types"
)

func newFacade(t *testing.T) (*service.Facade, string) {
	t.Helper()
	dir := t.TempDir()
	pool := parser.NewPool()
	c := cache.New(filepath.Join(dir, ".cache"))
	return service.New(pool, c, nil), dir
}

func readResponses(t *testing.T, out *bytes.Buffer) []types.Response {
	t.Helper()
	var resps []types.Response
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var r types.Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		resps = append(resps, r)
	}
	require.NoError(t, sc.Err())
	return resps
}

func TestRunEmitsOneResponsePerRequestInOrder(t *testing.T) {
	f, dir := newFacade(t)
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n\nfunc b() {}\n"), 0o644))

	var in bytes.Buffer
	enc := json.NewEncoder(&in)
	require.NoError(t, enc.Encode(Request{Op: "symbols", Path: path}))
	require.NoError(t, enc.Encode(Request{Op: "doctor"}))

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), f, &in, &out))

	resps := readResponses(t, &out)
	require.Len(t, resps, 2)
	require.Nil(t, resps[0].Error)
	require.Len(t, resps[0].Symbols, 2)
	require.Nil(t, resps[1].Error)
	require.NotNil(t, resps[1].Doctor)
}

func TestRunReportsMalformedLineWithoutEndingSession(t *testing.T) {
	f, _ := newFacade(t)
	in := bytes.NewBufferString("not json\n" + `{"op":"doctor"}` + "\n")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), f, in, &out))

	resps := readResponses(t, &out)
	require.Len(t, resps, 2)
	require.NotNil(t, resps[0].Error)
	require.Equal(t, "INVALID_REQUEST", resps[0].Error.Code)
	require.Nil(t, resps[1].Error)
	require.NotNil(t, resps[1].Doctor)
}

func TestRunAssignsDistinctCorrelationIDPerLine(t *testing.T) {
	f, _ := newFacade(t)
	in := bytes.NewBufferString(`{"op":"doctor"}` + "\n" + `{"op":"doctor"}` + "\n")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), f, in, &out))

	var raw []map[string]json.RawMessage
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		raw = append(raw, m)
	}
	require.Len(t, raw, 2)
	var id1, id2 string
	require.NoError(t, json.Unmarshal(raw[0]["id"], &id1))
	require.NoError(t, json.Unmarshal(raw[1]["id"], &id2))
	require.NotEmpty(t, id1)
	require.NotEmpty(t, id2)
	require.NotEqual(t, id1, id2)
}

func TestRunUnknownOpIsInvalidRequest(t *testing.T) {
	f, _ := newFacade(t)
	in := bytes.NewBufferString(`{"op":"nonsense"}` + "\n")

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), f, in, &out))

	resps := readResponses(t, &out)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	require.Equal(t, "INVALID_REQUEST", resps[0].Error.Code)
}
