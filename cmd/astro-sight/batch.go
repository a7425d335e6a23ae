package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/types"
)

// batchPaths resolves the file list a directory/batch subcommand
// should iterate over: --paths (CSV), --paths-file (one per line), or
// --dir (+ optional --glob) fanned out through the façade's walker. An
// empty resulting list is INVALID_REQUEST (spec §6). Returns nil paths
// (and an empty base) when none of the three flags are set, meaning
// single-path mode.
//
// The --dir branch's paths are root-relative (walker.Walk's contract);
// base is returned alongside so the caller can join it back on before
// reading the file, the same way internal/refscan.scanFile joins root
// onto its relative path before os.ReadFile while still reporting the
// relative form in the result.
func batchPaths(ctx context.Context, c *cli.Context, f *service.Facade) (paths []string, base string, errResp *types.Response, err error) {
	if raw := c.String("paths"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			return nil, "", invalidRequest("--paths must contain at least one non-empty path"), nil
		}
		return paths, "", nil, nil
	}
	if pf := c.String("paths-file"); pf != "" {
		data, readErr := os.ReadFile(pf)
		if readErr != nil {
			return nil, "", nil, readErr
		}
		sc := bufio.NewScanner(strings.NewReader(string(data)))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				paths = append(paths, line)
			}
		}
		if len(paths) == 0 {
			return nil, "", invalidRequest("--paths-file must contain at least one non-empty line"), nil
		}
		return paths, "", nil, nil
	}
	if dir := c.String("dir"); dir != "" && c.String("path") == "" {
		rel, verr := f.WalkPaths(ctx, dir, c.String("glob"))
		if verr != nil {
			return nil, "", &types.Response{Error: &types.ErrorPayload{Code: string(verr.Code), Message: verr.Message}}, nil
		}
		if len(rel) == 0 {
			return nil, "", invalidRequest("no files matched under --dir"), nil
		}
		return rel, dir, nil, nil
	}
	return nil, "", nil, nil
}

func invalidRequest(msg string) *types.Response {
	return &types.Response{Error: &types.ErrorPayload{Code: "INVALID_REQUEST", Message: msg}}
}

// runBatchOrSingle dispatches single(path) once for each resolved
// batch path (NDJSON output, input order preserved per spec §5), or
// once for --path if no batch flag was given. When the batch came from
// --dir, each path is joined onto that root before being handed to
// single (so the façade reads the right file regardless of cwd), and
// the response's Location.Path is restored to the root-relative form
// afterward (spec I5).
func runBatchOrSingle(ctx context.Context, c *cli.Context, f *service.Facade, single func(path string) *types.Response) error {
	paths, base, errResp, err := batchPaths(ctx, c, f)
	if err != nil {
		return err
	}
	if errResp != nil {
		return writeResponse(c, errResp)
	}
	if paths != nil {
		for _, p := range paths {
			full := p
			if base != "" {
				full = filepath.Join(base, p)
			}
			resp := single(full)
			if base != "" && resp.Location != nil {
				resp.Location.Path = p
			}
			data, err := encode(c, resp)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		}
		return nil
	}
	return writeResponse(c, single(c.String("path")))
}
