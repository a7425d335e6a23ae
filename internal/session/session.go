// Package session implements the NDJSON front-end (spec §4.12): one
// JSON request object per input line, one JSON response object per
// output line, unparseable lines reported as a line-scoped error
// without ending the session.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/owayo/astro-sight/internal/cochange"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/impact"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/types"
)

// maxLine is the hard per-line input limit (spec I6 / §5 Limits).
const maxLine = types.MaxBlobSize

// Request is one NDJSON input line: op selects the façade method, the
// remaining fields are that method's arguments (unused ones ignored).
type Request struct {
	Op       string         `json:"op"`
	Path     string         `json:"path,omitempty"`
	Root     string         `json:"root,omitempty"`
	Name     string         `json:"name,omitempty"`
	Names    []string       `json:"names,omitempty"`
	Glob     string         `json:"glob,omitempty"`
	Function string         `json:"function,omitempty"`
	Full     bool           `json:"full,omitempty"`
	Doc      bool           `json:"doc,omitempty"`
	Line     *uint32        `json:"line,omitempty"`
	Col      *uint32        `json:"col,omitempty"`
	EndLine  *uint32        `json:"end_line,omitempty"`
	EndCol   *uint32        `json:"end_col,omitempty"`
	Depth    int            `json:"depth,omitempty"`
	Context  int            `json:"context,omitempty"`
	Diff     string         `json:"diff,omitempty"`
	Git      bool           `json:"git,omitempty"`
	Staged   bool           `json:"staged,omitempty"`
	Base     string         `json:"base,omitempty"`
	Rules    []extract.Rule `json:"rules,omitempty"`
	Lookback int            `json:"lookback,omitempty"`
	MinConf  float64        `json:"min_confidence,omitempty"`
	Pretty   bool           `json:"pretty,omitempty"`
	NoCache  bool           `json:"no_cache,omitempty"`
}

// Run reads requests from in, dispatches each through facade, and
// writes one response per line to out. It returns nil on a clean EOF
// and a non-nil error only for an I/O failure on the transport itself
// (spec §4.12: a malformed request line is a per-line error, not a
// session-ending one).
func Run(ctx context.Context, facade *service.Facade, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	w := bufio.NewWriter(out)
	defer w.Flush()

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		id := uuid.NewString()
		facade.Logger.Tracef("session", "start id=%s", id)
		resp := dispatch(ctx, facade, line)
		if resp.Error != nil {
			facade.Logger.Tracef("session", "error id=%s code=%s", id, resp.Error.Code)
		} else {
			facade.Logger.Tracef("session", "done id=%s", id)
		}
		data, err := json.Marshal(envelope{ID: id, Response: resp})
		if err != nil {
			data, _ = json.Marshal(envelope{ID: id, Response: &types.Response{Error: &types.ErrorPayload{Code: "IO_ERROR", Message: err.Error()}}})
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// envelope adds a per-line correlation ID to the wire response without
// changing types.Response's own shape (shared by every front-end).
//
// Response defines its own MarshalJSON (the error/payload either-or
// shape); embedding it here would otherwise promote that method onto
// envelope itself and silently drop id, so envelope marshals by
// decoding Response's own output and splicing id in instead.
type envelope struct {
	ID       string `json:"id,omitempty"`
	Response *types.Response
}

func (e envelope) MarshalJSON() ([]byte, error) {
	inner, err := json.Marshal(e.Response)
	if err != nil {
		return nil, err
	}
	if e.ID == "" {
		return inner, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return nil, err
	}
	idJSON, err := json.Marshal(e.ID)
	if err != nil {
		return nil, err
	}
	fields["id"] = idJSON
	return json.Marshal(fields)
}

func dispatch(ctx context.Context, facade *service.Facade, line []byte) *types.Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return &types.Response{Error: &types.ErrorPayload{Code: "INVALID_REQUEST", Message: fmt.Sprintf("malformed request: %v", err)}}
	}
	switch req.Op {
	case "ast":
		sel := extract.Selection{Line: req.Line, Col: req.Col, EndLine: req.EndLine, EndCol: req.EndCol}
		return facade.AST(ctx, req.Path, sel, req.Depth, req.Context, req.Pretty, req.NoCache)
	case "symbols":
		form := extract.FormCompact
		switch {
		case req.Full:
			form = extract.FormFull
		case req.Doc:
			form = extract.FormDoc
		}
		return facade.Symbols(ctx, req.Path, form, req.Pretty, req.NoCache)
	case "calls":
		return facade.Calls(ctx, req.Path, req.Function, req.Pretty, req.NoCache)
	case "imports":
		return facade.Imports(ctx, req.Path, req.Pretty, req.NoCache)
	case "refs":
		return facade.Refs(ctx, req.Root, req.Name, req.Glob)
	case "refs_batch":
		return facade.RefsBatch(ctx, req.Root, req.Names, req.Glob)
	case "context":
		opts := impact.Options{DiffText: req.Diff, UseGit: req.Git, Staged: req.Staged, BaseRef: req.Base}
		return facade.Context(ctx, req.Root, opts)
	case "lint":
		return facade.Lint(ctx, req.Path, req.Rules, req.Pretty, req.NoCache)
	case "sequence":
		return facade.Sequence(ctx, req.Path, req.Function)
	case "cochange":
		opts := cochange.Options{Lookback: req.Lookback, MinConfidence: req.MinConf, PathFilter: req.Name}
		return facade.Cochange(ctx, req.Root, opts)
	case "doctor":
		return facade.Doctor(ctx, "", "", "")
	default:
		return &types.Response{Error: &types.ErrorPayload{Code: "INVALID_REQUEST", Message: fmt.Sprintf("unknown op %q", req.Op)}}
	}
}
