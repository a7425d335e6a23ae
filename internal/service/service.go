// Package service implements the Service Façade (spec §4.11): the one
// stateless entry point every front-end (CLI, NDJSON session, JSON-RPC
// server) dispatches through. Each method validates its request,
// resolves the language, consults the artifact cache, runs the
// relevant extractor, and returns a populated types.Response — façade
// methods never return a Go error; failures are reported as
// Response.Error so every front-end shares one error-as-value contract.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/cochange"
	"github.com/owayo/astro-sight/internal/errs"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/impact"
	"github.com/owayo/astro-sight/internal/lang"
	"github.com/owayo/astro-sight/internal/logging"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/refscan"
	"github.com/owayo/astro-sight/internal/types"
	"github.com/owayo/astro-sight/internal/version"
	"github.com/owayo/astro-sight/internal/walker"
)

// Facade is the stateless orchestrator. It holds shared, long-lived
// resources (parser pool, cache, logger) and, optionally, a sandbox
// root that every path argument must resolve inside of.
type Facade struct {
	Pool    *parser.Pool
	Cache   *cache.Cache
	Logger  *logging.Logger
	sandbox string // absolute; empty means unbounded (CLI mode)
}

// New returns an unbounded façade, used by the one-shot CLI and the
// NDJSON session front-end.
func New(pool *parser.Pool, c *cache.Cache, logger *logging.Logger) *Facade {
	return &Facade{Pool: pool, Cache: c, Logger: logger}
}

// Sandboxed returns a façade bound to root: every path argument passed
// to any method must canonicalize inside root, else the call fails
// with PATH_OUT_OF_BOUNDS. Used by the JSON-RPC/MCP front-end.
func Sandboxed(pool *parser.Pool, c *cache.Cache, logger *logging.Logger, root string) (*Facade, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Facade{Pool: pool, Cache: c, Logger: logger, sandbox: abs}, nil
}

// trace logs one call's op/outcome to the structured trace log.
func (f *Facade) trace(op string, format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Tracef(op, format, args...)
	}
}

// resolvePath validates path against the sandbox (if any) and returns
// the absolute path to read. An empty sandbox means any path is
// accepted as given (resolved relative to the process cwd).
func (f *Facade) resolvePath(path string) (string, *errs.Error) {
	if path == "" {
		return "", errs.New(errs.InvalidRequest, "path must not be empty")
	}
	if f.sandbox == "" {
		return path, nil
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.sandbox, abs)
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(f.sandbox, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.New(errs.PathOutOfBounds, "path %q resolves outside sandbox root", path)
	}
	return abs, nil
}

func errResponse(e *errs.Error) *types.Response {
	return &types.Response{Error: &types.ErrorPayload{Code: string(e.Code), Message: e.Message}}
}

func asServiceError(err error) *errs.Error {
	if e, ok := errs.As(err); ok {
		return e
	}
	return errs.Wrap(errs.IOError, err, "unexpected failure")
}

// readAndParse loads path, detects its language, and parses it,
// returning the blob, language, and tree together since every
// single-file operation needs all three.
func (f *Facade) readAndParse(path string) ([]byte, types.Language, *parser.Tree, *errs.Error) {
	abs, verr := f.resolvePath(path)
	if verr != nil {
		return nil, "", nil, verr
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", nil, errs.New(errs.FileNotFound, "cannot stat %q: %v", path, err)
	}
	if info.Size() > types.MaxBlobSize {
		return nil, "", nil, errs.New(errs.FileTooLarge, "%q exceeds %d bytes", path, types.MaxBlobSize)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", nil, errs.New(errs.FileNotFound, "cannot read %q: %v", path, err)
	}
	l := lang.Detect(abs, firstLine(src))
	if !lang.Supported(l) {
		return src, l, nil, errs.New(errs.LanguageUnsupported, "no grammar for %q", path)
	}
	t, err := f.Pool.Parse(l, src)
	if err != nil {
		return src, l, nil, asServiceError(err)
	}
	return src, l, t, nil
}

func firstLine(src []byte) []byte {
	for i, b := range src {
		if b == '\n' {
			return src[:i]
		}
	}
	return src
}

// cacheLookup returns cached bytes for (src, tag) unless pretty or
// noCache disable caching; cacheStore writes them back.
func (f *Facade) cacheLookup(src []byte, tag string, pretty, noCache bool) ([]byte, bool) {
	if f.Cache == nil || pretty || noCache {
		return nil, false
	}
	return f.Cache.Get(cache.ContentHash(src), tag)
}

func (f *Facade) cacheStore(src []byte, tag string, data []byte, pretty, noCache bool) {
	if f.Cache == nil || pretty || noCache {
		return
	}
	_ = f.Cache.Put(cache.ContentHash(src), tag, data)
}

func marshalCompact(v any) ([]byte, error) { return json.Marshal(v) }

func unmarshalCached(data []byte, v any) bool {
	return json.Unmarshal(data, v) == nil
}

// AST implements the `ast` subcommand (spec §4.4 AST fragment).
// Fragment selections (--line/--col/...) are never cached, since the
// cache is keyed per-file content and a selection narrows the result
// per call; only the no-selection (whole-file top-level children)
// form participates in the artifact cache.
func (f *Facade) AST(ctx context.Context, path string, sel extract.Selection, depth, contextLines int, pretty, noCache bool) *types.Response {
	f.trace("ast", "path=%s depth=%d context=%d", path, depth, contextLines)
	src, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	diags := parser.Diagnose(t, path)

	cacheable := sel.Line == nil
	tag := fmt.Sprintf("ast.d%d.c%d", depth, contextLines)
	if cacheable {
		if hit, ok := f.cacheLookup(src, tag, pretty, noCache); ok {
			var nodes []types.ASTNode
			if unmarshalCached(hit, &nodes) {
				return &types.Response{Location: &types.Location{Path: path}, Language: l, Hash: cache.ContentHash(src), AST: nodes, Diagnostics: diags}
			}
		}
	}

	nodes := toWireNodes(extract.Fragment(t, sel, depth, contextLines))
	if cacheable {
		if data, err := marshalCompact(nodes); err == nil {
			f.cacheStore(src, tag, data, pretty, noCache)
		}
	}
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Hash:        cache.ContentHash(src),
		AST:         nodes,
		Diagnostics: diags,
	}
}

// degenerateResponse returns a PARSE_ERROR response when t's parse
// produced only error nodes (spec §7: rare, distinct from the ordinary
// case of a few tolerated ERROR/MISSING nodes, which is reported via
// Diagnostics on an otherwise-successful response instead).
func (f *Facade) degenerateResponse(t *parser.Tree, path string) *types.Response {
	if !parser.Degenerate(t) {
		return nil
	}
	return errResponse(errs.New(errs.ParseError, "%q: grammar produced only error nodes", path))
}

func toWireNodes(nodes []extract.Node) []types.ASTNode {
	out := make([]types.ASTNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, types.ASTNode{
			Kind: n.Kind, Range: n.Range, Context: n.Context,
			Children: toWireNodes(n.Children),
		})
	}
	return out
}

// Symbols implements the `symbols` subcommand.
func (f *Facade) Symbols(ctx context.Context, path string, form extract.SymbolForm, pretty, noCache bool) *types.Response {
	tag := "symbols." + formTag(form)
	f.trace("symbols", "path=%s form=%s", path, tag)
	src, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	diags := parser.Diagnose(t, path)

	if hit, ok := f.cacheLookup(src, tag, pretty, noCache); ok {
		var syms []types.Symbol
		if unmarshalCached(hit, &syms) {
			return &types.Response{Location: &types.Location{Path: path}, Language: l, Hash: cache.ContentHash(src), Symbols: syms, Diagnostics: diags}
		}
	}
	syms := extract.Symbols(f.Pool, t, form)
	if data, err := marshalCompact(syms); err == nil {
		f.cacheStore(src, tag, data, pretty, noCache)
	}
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Hash:        cache.ContentHash(src),
		Symbols:     syms,
		Diagnostics: diags,
	}
}

func formTag(form extract.SymbolForm) string {
	switch form {
	case extract.FormFull:
		return "full"
	case extract.FormDoc:
		return "doc"
	default:
		return "compact"
	}
}

// Calls implements the `calls` subcommand.
func (f *Facade) Calls(ctx context.Context, path, functionFilter string, pretty, noCache bool) *types.Response {
	f.trace("calls", "path=%s function=%s", path, functionFilter)
	src, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	diags := parser.Diagnose(t, path)

	tag := "calls.compact"
	if functionFilter != "" {
		tag = "calls.fn." + functionFilter
	}
	if hit, ok := f.cacheLookup(src, tag, pretty, noCache); ok {
		var edges []types.CallEdge
		if unmarshalCached(hit, &edges) {
			return &types.Response{Location: &types.Location{Path: path}, Language: l, Hash: cache.ContentHash(src), Calls: edges, Diagnostics: diags}
		}
	}
	edges := extract.Calls(f.Pool, t, path, functionFilter)
	if data, err := marshalCompact(edges); err == nil {
		f.cacheStore(src, tag, data, pretty, noCache)
	}
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Hash:        cache.ContentHash(src),
		Calls:       edges,
		Diagnostics: diags,
	}
}

// Imports implements the `imports` subcommand.
func (f *Facade) Imports(ctx context.Context, path string, pretty, noCache bool) *types.Response {
	f.trace("imports", "path=%s", path)
	src, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	diags := parser.Diagnose(t, path)

	const tag = "imports.compact"
	if hit, ok := f.cacheLookup(src, tag, pretty, noCache); ok {
		var edges []types.ImportEdge
		if unmarshalCached(hit, &edges) {
			return &types.Response{Location: &types.Location{Path: path}, Language: l, Hash: cache.ContentHash(src), Imports: edges, Diagnostics: diags}
		}
	}
	edges := extract.Imports(f.Pool, t)
	if data, err := marshalCompact(edges); err == nil {
		f.cacheStore(src, tag, data, pretty, noCache)
	}
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Hash:        cache.ContentHash(src),
		Imports:     edges,
		Diagnostics: diags,
	}
}

// Lint implements the `lint` subcommand.
func (f *Facade) Lint(ctx context.Context, path string, rules []extract.Rule, pretty, noCache bool) *types.Response {
	f.trace("lint", "path=%s rules=%d", path, len(rules))
	src, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	findings := extract.Lint(f.Pool, t, path, rules)
	findingDiags := make([]types.Diagnostic, 0, len(findings))
	for _, fnd := range findings {
		findingDiags = append(findingDiags, types.Diagnostic{Path: path, Message: fmt.Sprintf("%s[%s]: %s", fnd.RuleID, fnd.Severity, fnd.Message)})
	}
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Hash:        cache.ContentHash(src),
		Findings:    findingDiags,
		Diagnostics: parser.Diagnose(t, path),
	}
}

// Refs implements the single-symbol `refs --name` form.
func (f *Facade) Refs(ctx context.Context, root, name, glob string) *types.Response {
	f.trace("refs", "root=%s name=%s glob=%s", root, name, glob)
	root, verr := f.resolvePath(root)
	if verr != nil {
		return errResponse(verr)
	}
	refs, err := refscan.Find(ctx, f.Pool, root, name, glob)
	if err != nil {
		return errResponse(asServiceError(err))
	}
	return &types.Response{References: refs, Diagnostics: []types.Diagnostic{}}
}

// RefsBatch implements the `refs --names` batch form.
func (f *Facade) RefsBatch(ctx context.Context, root string, names []string, glob string) *types.Response {
	f.trace("refs_batch", "root=%s names=%d glob=%s", root, len(names), glob)
	root, verr := f.resolvePath(root)
	if verr != nil {
		return errResponse(verr)
	}
	grouped, err := refscan.FindBatch(ctx, f.Pool, root, names, glob)
	if err != nil {
		return errResponse(asServiceError(err))
	}
	return &types.Response{ReferencesByName: grouped, Diagnostics: []types.Diagnostic{}}
}

// Context implements the `context` subcommand (Impact Analyzer, spec
// §4.9): diff-driven impact analysis over the workspace at root.
func (f *Facade) Context(ctx context.Context, root string, opts impact.Options) *types.Response {
	f.trace("context", "root=%s git=%v staged=%v base=%s", root, opts.UseGit, opts.Staged, opts.BaseRef)
	root, verr := f.resolvePath(root)
	if verr != nil {
		return errResponse(verr)
	}
	result, err := impact.Analyze(ctx, f.Pool, root, opts)
	if err != nil {
		return errResponse(asServiceError(err))
	}
	files := make([]types.ImpactFile, 0, len(result.Files))
	for _, fi := range result.Files {
		files = append(files, types.ImpactFile{Path: fi.Path, AffectedSymbols: fi.AffectedSymbols, SignatureChanges: fi.SignatureChanges})
	}
	return &types.Response{Files: files, ImpactedCallers: result.ImpactedCallers, Diagnostics: []types.Diagnostic{}}
}

// Sequence implements the `sequence` subcommand: renders the call tree
// rooted at one function, within one file, as a Mermaid sequence
// diagram. The Mermaid text template is an external collaborator per
// spec §1 scope; this method supplies only the structured edge data
// the template walks.
func (f *Facade) Sequence(ctx context.Context, path, function string) *types.Response {
	f.trace("sequence", "path=%s function=%s", path, function)
	if function == "" {
		return errResponse(errs.New(errs.InvalidRequest, "function must not be empty"))
	}
	_, l, t, verr := f.readAndParse(path)
	if verr != nil {
		return errResponse(verr)
	}
	defer t.Close()
	if resp := f.degenerateResponse(t, path); resp != nil {
		return resp
	}
	edges := extract.Calls(f.Pool, t, path, function)
	return &types.Response{
		Location:    &types.Location{Path: path},
		Language:    l,
		Calls:       edges,
		Mermaid:     renderMermaid(function, edges),
		Diagnostics: parser.Diagnose(t, path),
	}
}

func renderMermaid(root string, edges []types.CallEdge) string {
	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	participants := map[string]bool{root: true}
	for _, e := range edges {
		participants[e.Callee.Name] = true
	}
	for _, name := range orderedKeys(participants, root) {
		fmt.Fprintf(&b, "    participant %s\n", sanitize(name))
	}
	for _, e := range edges {
		fmt.Fprintf(&b, "    %s->>%s: %s\n", sanitize(e.Caller.Name), sanitize(e.Callee.Name), sanitize(e.Callee.Name))
	}
	return b.String()
}

func orderedKeys(set map[string]bool, first string) []string {
	out := []string{first}
	for k := range set {
		if k != first {
			out = append(out, k)
		}
	}
	return out
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	if s == "" {
		return "_"
	}
	return s
}

// Cochange implements the `cochange` subcommand.
func (f *Facade) Cochange(ctx context.Context, root string, opts cochange.Options) *types.Response {
	f.trace("cochange", "root=%s lookback=%d file=%s", root, opts.Lookback, opts.PathFilter)
	root, verr := f.resolvePath(root)
	if verr != nil {
		return errResponse(verr)
	}
	pairs, err := cochange.Mine(ctx, root, opts)
	if err != nil {
		return errResponse(asServiceError(err))
	}
	return &types.Response{CoChanges: pairs, Diagnostics: []types.Diagnostic{}}
}

// Doctor implements the `doctor` subcommand: process and environment
// health (spec §6 expansion).
func (f *Facade) Doctor(ctx context.Context, cacheDir, configPath, logDir string) *types.Response {
	f.trace("doctor", "cache_dir=%s config=%s", cacheDir, configPath)
	report := &types.DoctorReport{
		Version:    version.Version,
		CacheDir:   cacheDir,
		ConfigPath: configPath,
	}
	for _, l := range lang.All14 {
		if f.Pool.LanguageHandle(l) != nil {
			report.Languages = append(report.Languages, string(l))
		}
	}
	entries, bytes := cacheStats(cacheDir)
	report.CacheEntries = entries
	report.CacheBytes = bytes
	if logDir != "" {
		report.LogFiles = logging.Files(logDir)
	}
	return &types.Response{Doctor: report, Diagnostics: []types.Diagnostic{}}
}

func cacheStats(dir string) (entries int, size int64) {
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		entries++
		if info, ierr := d.Info(); ierr == nil {
			size += info.Size()
		}
		return nil
	})
	return entries, size
}

// WalkPaths resolves the files a directory-scope operation should
// iterate over, honoring the sandbox and an optional glob. Front-ends
// use this to fan out per-file façade calls (Symbols, Calls, Imports,
// Lint, AST) in input order (ordering guarantee, spec §5).
func (f *Facade) WalkPaths(ctx context.Context, root, glob string) ([]string, *errs.Error) {
	root, verr := f.resolvePath(root)
	if verr != nil {
		return nil, verr
	}
	paths, err := walker.Walk(ctx, root, walker.Options{Glob: glob})
	if err != nil {
		return nil, asServiceError(err)
	}
	return paths, nil
}
