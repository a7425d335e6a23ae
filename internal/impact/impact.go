// Package impact implements the Impact Analyzer (spec §4.9): given a
// diff (supplied directly or produced via a git invocation), it
// extracts the old and new symbol tables for every touched file,
// classifies affected symbols, detects signature changes, and finds
// callers impacted by the change via a batch reference search.
package impact

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/owayo/astro-sight/internal/diffparse"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/gitremote"
	"github.com/owayo/astro-sight/internal/lang"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/refscan"
	"github.com/owayo/astro-sight/internal/types"
)

// Options selects how the diff is obtained. DiffText, if non-empty,
// is used directly; otherwise Git invocation parameters (BaseRef,
// Staged) drive a gitremote.Repo.Diff call.
type Options struct {
	DiffText string
	UseGit   bool
	Staged   bool
	BaseRef  string
}

// FileImpact bundles one changed file's affected symbols and
// signature changes.
type FileImpact struct {
	Path             string                  `json:"path"`
	AffectedSymbols  []types.AffectedSymbol  `json:"affected_symbols"`
	SignatureChanges []types.SignatureChange `json:"signature_changes"`
}

// Result is the full impact analysis: per-file symbol-level changes
// plus the merged set of impacted callers across the workspace.
type Result struct {
	Files            []FileImpact           `json:"files"`
	ImpactedCallers  []types.ImpactedCaller `json:"impacted_callers"`
}

// Analyze runs the full pipeline over root using opts to obtain the
// diff text.
func Analyze(ctx context.Context, pool *parser.Pool, root string, opts Options) (*Result, error) {
	diffText := opts.DiffText
	if diffText == "" && opts.UseGit {
		repo := gitremote.Open(root)
		d, err := repo.Diff(ctx, opts.BaseRef, opts.Staged)
		if err != nil {
			return nil, err
		}
		diffText = d
	}

	diffFiles, err := diffparse.Parse(diffText)
	if err != nil {
		return nil, err
	}

	var repo *gitremote.Repo
	if opts.UseGit {
		repo = gitremote.Open(root)
	}
	baseRef := opts.BaseRef
	if baseRef == "" {
		baseRef = "HEAD"
	}

	result := &Result{}
	affectedNames := map[string]bool{}

	for _, df := range diffFiles {
		fi := FileImpact{Path: df.Path}

		var oldBlob, newBlob []byte
		if !df.AddOnly && repo != nil {
			oldBlob, _ = repo.Show(ctx, baseRef, oldPathOf(df))
		}
		if !df.RemoveOnly {
			newBlob = readWorkingOrDiff(root, df)
		}

		l := lang.Detect(df.Path, firstLine(newBlob))
		if l == types.LangUnknown && len(oldBlob) > 0 {
			l = lang.Detect(oldPathOf(df), firstLine(oldBlob))
		}

		var oldSyms, newSyms []types.Symbol
		if lang.Supported(l) {
			if len(oldBlob) > 0 {
				if t, err := pool.Parse(l, oldBlob); err == nil {
					oldSyms = extract.Symbols(pool, t, extract.FormFull)
					t.Close()
				}
			}
			if len(newBlob) > 0 {
				if t, err := pool.Parse(l, newBlob); err == nil {
					newSyms = extract.Symbols(pool, t, extract.FormFull)
					t.Close()
				}
			}
		}

		oldBySig := indexByName(oldSyms)
		newBySig := indexByName(newSyms)

		touched := touchedLineSet(df)
		for name, ns := range newBySig {
			os_, inOld := oldBySig[name]
			switch {
			case !inOld:
				fi.AffectedSymbols = append(fi.AffectedSymbols, types.AffectedSymbol{Name: name, Kind: ns.Kind, ChangeType: types.ChangeAdded})
				affectedNames[name] = true
			case symbolTouched(ns, touched):
				fi.AffectedSymbols = append(fi.AffectedSymbols, types.AffectedSymbol{Name: name, Kind: ns.Kind, ChangeType: types.ChangeModified})
				affectedNames[name] = true
				if sc, changed := signatureChange(l, name, oldBlob, os_, newBlob, ns); changed {
					fi.SignatureChanges = append(fi.SignatureChanges, sc)
				}
			}
		}
		for name, os_ := range oldBySig {
			if _, inNew := newBySig[name]; !inNew {
				fi.AffectedSymbols = append(fi.AffectedSymbols, types.AffectedSymbol{Name: name, Kind: os_.Kind, ChangeType: types.ChangeRemoved})
				affectedNames[name] = true
			}
		}

		result.Files = append(result.Files, fi)
	}

	if len(affectedNames) > 0 {
		names := make([]string, 0, len(affectedNames))
		for n := range affectedNames {
			names = append(names, n)
		}
		grouped, err := refscan.FindBatch(ctx, pool, root, names, "")
		if err != nil {
			return nil, err
		}
		result.ImpactedCallers = collectCallers(pool, root, grouped, diffFiles)
	}

	return result, nil
}

func oldPathOf(df types.DiffFile) string {
	if df.OldPath != "" {
		return df.OldPath
	}
	return df.Path
}

func firstLine(src []byte) []byte {
	for i, b := range src {
		if b == '\n' {
			return src[:i]
		}
	}
	return src
}

func indexByName(syms []types.Symbol) map[string]types.Symbol {
	m := make(map[string]types.Symbol, len(syms))
	for _, s := range syms {
		m[s.Name] = s
	}
	return m
}

// touchedLineSet collects the new-side line numbers any hunk in df
// touches (added or context lines bounding a change).
func touchedLineSet(df types.DiffFile) map[uint32]bool {
	set := map[uint32]bool{}
	for _, h := range df.Hunks {
		for _, l := range h.Lines {
			if l.NewLine > 0 {
				set[uint32(l.NewLine)] = true
			}
		}
	}
	return set
}

func symbolTouched(sym types.Symbol, touched map[uint32]bool) bool {
	if sym.Range == nil {
		return touched[sym.Line]
	}
	for line := sym.Range.Start.Line; line <= sym.Range.End.Line; line++ {
		if touched[line] {
			return true
		}
	}
	return false
}

// signatureChange compares each symbol's header-line slice (spec
// §4.9 step 4): source text from the definition's start byte to the
// first '{' or newline at zero paren depth; for Python a ':' at zero
// paren depth also ends the slice, so its colon-terminated header and
// Go's brace-terminated header both come out of the same scan.
func signatureChange(l types.Language, name string, oldSrc []byte, oldSym types.Symbol, newSrc []byte, newSym types.Symbol) (types.SignatureChange, bool) {
	oldSig := headerSlice(l, oldSrc, oldSym)
	newSig := headerSlice(l, newSrc, newSym)
	if oldSig == newSig {
		return types.SignatureChange{}, false
	}
	return types.SignatureChange{Name: name, OldSig: oldSig, NewSig: newSig}, true
}

func headerSlice(l types.Language, src []byte, sym types.Symbol) string {
	if sym.Range == nil {
		return ""
	}
	start := byteOffsetOf(src, sym.Range.Start.Line, sym.Range.Start.Column)
	end := byteOffsetOf(src, sym.Range.End.Line, sym.Range.End.Column)
	if start < 0 || end < 0 || start > len(src) {
		return ""
	}
	if end > len(src) {
		end = len(src)
	}
	depth := 0
	for i := start; i < end; i++ {
		switch src[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '{':
			if depth <= 0 {
				return strings.TrimSpace(string(src[start:i]))
			}
		case ':':
			if depth <= 0 && l == types.LangPython {
				return strings.TrimSpace(string(src[start:i]))
			}
		case '\n':
			if depth <= 0 {
				return strings.TrimSpace(string(src[start:i]))
			}
		}
	}
	return strings.TrimSpace(string(src[start:end]))
}

// byteOffsetOf converts a 1-based line / 0-based byte column back to
// an absolute byte offset into src.
func byteOffsetOf(src []byte, line, col uint32) int {
	if line == 0 {
		return -1
	}
	cur := uint32(1)
	offset := 0
	for offset < len(src) {
		if cur == line {
			return offset + int(col)
		}
		if src[offset] == '\n' {
			cur++
		}
		offset++
	}
	if cur == line {
		return offset + int(col)
	}
	return -1
}

func readWorkingOrDiff(root string, df types.DiffFile) []byte {
	b, err := os.ReadFile(filepath.Join(root, df.Path))
	if err != nil {
		return nil
	}
	return b
}

// collectCallers groups every non-self reference hit by
// (path, enclosing caller), re-parsing each referencing file once to
// resolve the caller via extract.EnclosingCallerFor (spec §4.9 step 6).
func collectCallers(pool *parser.Pool, root string, grouped map[string][]types.Reference, diffFiles []types.DiffFile) []types.ImpactedCaller {
	selfRefs := make(map[string]map[uint32]bool, len(diffFiles))
	for _, df := range diffFiles {
		lines := selfRefs[df.Path]
		if lines == nil {
			lines = map[uint32]bool{}
			selfRefs[df.Path] = lines
		}
		for _, h := range df.Hunks {
			for _, l := range h.Lines {
				if l.NewLine > 0 {
					lines[uint32(l.NewLine)] = true
				}
			}
		}
	}

	byPath := map[string][]types.Reference{}
	for _, refs := range grouped {
		for _, r := range refs {
			if r.Kind != types.RefKindReference {
				continue
			}
			if selfRefs[r.Path][r.Line] {
				continue // self-reference: inside the diff's own hunks
			}
			byPath[r.Path] = append(byPath[r.Path], r)
		}
	}

	seen := map[string]bool{}
	var out []types.ImpactedCaller
	for path, refs := range byPath {
		full := filepath.Join(root, path)
		src, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		l := lang.Detect(full, firstLine(src))
		if !lang.Supported(l) {
			continue
		}
		t, err := pool.Parse(l, src)
		if err != nil {
			continue
		}
		for _, r := range refs {
			caller := extract.EnclosingCallerFor(pool, t, types.Location{Path: path, Line: r.Line, Column: r.Column})
			key := path + "|" + caller.Name + "|" + itoaLine(caller.Line)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, types.ImpactedCaller{Path: path, Name: caller.Name, Line: caller.Line})
		}
		t.Close()
	}
	return out
}

func itoaLine(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
