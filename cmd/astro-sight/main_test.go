package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/owayo/astro-sight/internal/types"
)

var testBinaryPath string

func TestMain(m *testing.M) {
	tempBinary := filepath.Join(os.TempDir(), fmt.Sprintf("astro-sight-test-%d", time.Now().UnixNano()))

	buildCmd := exec.Command("go", "build", "-o", tempBinary, ".")
	var buildOut bytes.Buffer
	buildCmd.Stdout = &buildOut
	buildCmd.Stderr = &buildOut
	if err := buildCmd.Run(); err != nil {
		fmt.Printf("failed to build astro-sight for testing: %v\n%s\n", err, buildOut.String())
		os.Exit(1)
	}
	testBinaryPath = tempBinary

	code := m.Run()
	os.Remove(testBinaryPath)
	os.Exit(code)
}

func runCLI(t *testing.T, dir string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(testBinaryPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "XDG_CACHE_HOME="+filepath.Join(dir, ".cache"), "XDG_CONFIG_HOME="+filepath.Join(dir, ".config"))
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	return out.String(), exitCode
}

func TestSymbolsCommandReturnsSourceOrderedSymbols(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc a() {}\n\nfunc b() {}\n"), 0o644))

	out, code := runCLI(t, dir, "symbols", "--path", "lib.go")
	require.Equal(t, 0, code)

	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Nil(t, resp.Error)
	require.Len(t, resp.Symbols, 2)
	require.Equal(t, "a", resp.Symbols[0].Name)
	require.Equal(t, "b", resp.Symbols[1].Name)
}

func TestSymbolsCommandMissingFileExitsOneWithErrorEnvelope(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, dir, "symbols", "--path", "nope.go")
	require.Equal(t, 1, code)

	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, "FILE_NOT_FOUND", resp.Error.Code)
}

func TestSymbolsCommandPathsBatchEmitsNDJSONAndExitsZeroOnPerItemErrors(t *testing.T) {
	dir := t.TempDir()
	okPath := filepath.Join(dir, "ok.go")
	require.NoError(t, os.WriteFile(okPath, []byte("package main\n\nfunc a() {}\n"), 0o644))

	out, code := runCLI(t, dir, "symbols", "--paths", "ok.go,missing.go")
	require.Equal(t, 0, code)

	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	require.Len(t, lines, 2)

	var first, second types.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Nil(t, first.Error)
	require.NotNil(t, second.Error)
	require.Equal(t, "FILE_NOT_FOUND", second.Error.Code)
}

func TestDoctorCommandReportsVersionAndLanguages(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, dir, "doctor")
	require.Equal(t, 0, code)

	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Doctor)
	require.NotEmpty(t, resp.Doctor.Version)
	require.NotEmpty(t, resp.Doctor.Languages)
}

func TestRefsCommandEmptyNameIsInvalidRequest(t *testing.T) {
	dir := t.TempDir()
	out, code := runCLI(t, dir, "refs", "--dir", ".")
	require.Equal(t, 1, code)

	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, "INVALID_REQUEST", resp.Error.Code)
}
