// Package types defines the data model shared by every component of the
// analysis engine: locations, symbols, call/import edges, diff hunks, and
// the impact-analysis result types.
package types

import "encoding/json"

// MaxBlobSize is the hard limit on any single file read, NDJSON input
// line, or blob handed to a parser (spec I6).
const MaxBlobSize = 100 * 1024 * 1024

// Language is one of the 14 supported grammar tags, plus Unknown.
type Language string

const (
	LangRust       Language = "rust"
	LangC          Language = "c"
	LangCpp        Language = "cpp"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangGo         Language = "go"
	LangPHP        Language = "php"
	LangJava       Language = "java"
	LangKotlin     Language = "kotlin"
	LangSwift      Language = "swift"
	LangCSharp     Language = "csharp"
	LangBash       Language = "bash"
	LangUnknown    Language = "unknown"
)

// Point is a 1-based line, 0-based byte-offset-in-line position.
type Point struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// Range is a half-open [Start, End) span.
type Range struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Location identifies a point in a named file.
type Location struct {
	Path   string `json:"path"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// SymbolKind enumerates the kinds a Symbol may report.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindClass     SymbolKind = "class"
	KindEnum      SymbolKind = "enum"
	KindInterface SymbolKind = "interface"
	KindTrait     SymbolKind = "trait"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVariable  SymbolKind = "variable"
	KindModule    SymbolKind = "module"
	KindMacro     SymbolKind = "macro"
	KindFile      SymbolKind = "file" // synthetic: caller resolution at file scope
)

// Symbol is a named definition. Range, Hash, and Doc are only populated
// for --full / --doc output forms; the compact form carries only
// Name/Kind/Line.
type Symbol struct {
	Name  string     `json:"name"`
	Kind  SymbolKind `json:"kind"`
	Line  uint32     `json:"line"`
	Range *Range     `json:"range,omitempty"`
	Hash  string     `json:"hash,omitempty"`
	Doc   string     `json:"doc,omitempty"`
}

// CalleeRef is the callee half of a CallEdge.
type CalleeRef struct {
	Name   string `json:"name"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// CallEdge is one call site, attributed to its enclosing definition.
type CallEdge struct {
	Caller   Symbol    `json:"caller"`
	Callee   CalleeRef `json:"callee"`
	CallSite Location  `json:"call_site"`
}

// ImportKind classifies the syntactic form of an import/include/use.
type ImportKind string

const (
	ImportKindImport  ImportKind = "import"
	ImportKindUse     ImportKind = "use"
	ImportKindInclude ImportKind = "include"
	ImportKindRequire ImportKind = "require"
)

// ImportEdge is one import/use/include/require statement.
type ImportEdge struct {
	Source  string     `json:"source"`
	Line    uint32     `json:"line"`
	Kind    ImportKind `json:"kind"`
	Context string     `json:"context"`
}

// ReferenceKind distinguishes a binding site from a usage.
type ReferenceKind string

const (
	RefKindDefinition ReferenceKind = "definition"
	RefKindReference  ReferenceKind = "reference"
)

// Reference is one identifier-node match from the reference scanner.
type Reference struct {
	Path    string        `json:"path"`
	Line    uint32        `json:"line"`
	Column  uint32        `json:"column"`
	Context string        `json:"context"`
	Kind    ReferenceKind `json:"kind"`
}

// Hunk is one unified-diff hunk, reconstructed with absolute old/new
// line numbers for every kept/added/removed line.
type Hunk struct {
	OldStart int      `json:"old_start"`
	OldCount int       `json:"old_count"`
	NewStart int      `json:"new_start"`
	NewCount int       `json:"new_count"`
	Lines    []DiffLine `json:"lines"`
}

// DiffLineKind tags a reconstructed diff line.
type DiffLineKind string

const (
	DiffLineContext DiffLineKind = "context"
	DiffLineAdded   DiffLineKind = "added"
	DiffLineRemoved DiffLineKind = "removed"
)

// DiffLine is one physical line inside a hunk, with its old/new line
// number (zero when the line does not exist on that side).
type DiffLine struct {
	Kind    DiffLineKind `json:"kind"`
	OldLine int          `json:"old_line,omitempty"`
	NewLine int          `json:"new_line,omitempty"`
	Text    string       `json:"text"`
}

// DiffFile is every hunk touching one path.
type DiffFile struct {
	Path      string `json:"path"`
	OldPath   string `json:"old_path,omitempty"`
	AddOnly   bool   `json:"add_only,omitempty"`
	RemoveOnly bool  `json:"remove_only,omitempty"`
	Hunks     []Hunk `json:"hunks"`
}

// ChangeType classifies an AffectedSymbol.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// AffectedSymbol is a symbol whose range intersects a diff hunk.
type AffectedSymbol struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	ChangeType ChangeType `json:"change_type"`
}

// SignatureChange is the before/after header line of a modified symbol.
type SignatureChange struct {
	Name        string `json:"name"`
	OldSig      string `json:"old_signature"`
	NewSig      string `json:"new_signature"`
}

// ImpactedCaller is a caller of an affected symbol found outside the
// diff's own hunks.
type ImpactedCaller struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Line uint32 `json:"line"`
}

// CoChangePair is one file pair's co-change statistics.
type CoChangePair struct {
	FileA      string  `json:"file_a"`
	FileB      string  `json:"file_b"`
	CoChanges  int     `json:"co_changes"`
	TotalA     int     `json:"total_a"`
	TotalB     int     `json:"total_b"`
	Confidence float64 `json:"confidence"`
}

// Diagnostic is a non-fatal note attached to a response (e.g. a parse
// error node, or a lint finding).
type Diagnostic struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ErrorPayload is the wire shape of a façade error (spec §3 Response
// envelope, second alternative).
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response is the uniform envelope every façade call returns. Error is
// set exclusively of every other field; on success, Error is nil and
// the operation's payload fields plus Diagnostics are populated.
type Response struct {
	Location *Location     `json:"location,omitempty"`
	Language Language      `json:"language,omitempty"`
	Hash     string        `json:"hash,omitempty"`
	Version  string        `json:"version,omitempty"`

	Symbols          []Symbol          `json:"symbols,omitempty"`
	Calls            []CallEdge        `json:"calls,omitempty"`
	Imports          []ImportEdge      `json:"imports,omitempty"`
	References       []Reference       `json:"references,omitempty"`
	ReferencesByName map[string][]Reference `json:"references_by_name,omitempty"`
	Findings         []Diagnostic      `json:"findings,omitempty"`
	CoChanges        []CoChangePair    `json:"cochanges,omitempty"`
	Mermaid          string            `json:"mermaid,omitempty"`

	Files           []ImpactFile    `json:"files,omitempty"`
	ImpactedCallers []ImpactedCaller `json:"impacted_callers,omitempty"`

	AST []ASTNode `json:"ast,omitempty"`

	Doctor *DoctorReport `json:"doctor,omitempty"`

	Diagnostics []Diagnostic  `json:"diagnostics"`
	Error       *ErrorPayload `json:"error,omitempty"`
}

// MarshalJSON gives Error and the payload/diagnostics fields the
// either/or shape spec §6 describes: an error response serializes as
// exactly {"error":{...}}, never alongside diagnostics or any payload
// field.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != nil {
		return json.Marshal(struct {
			Error *ErrorPayload `json:"error"`
		}{r.Error})
	}
	type Alias Response
	return json.Marshal(Alias(r))
}

// ImpactFile mirrors impact.FileImpact in the wire envelope (the
// impact package's own type stays internal to that package; this is
// its JSON projection inside Response).
type ImpactFile struct {
	Path             string            `json:"path"`
	AffectedSymbols  []AffectedSymbol  `json:"affected_symbols"`
	SignatureChanges []SignatureChange `json:"signature_changes"`
}

// ASTNode is the wire projection of one AST-fragment node (spec §4.4).
// Defined here rather than in internal/extract so the service package
// can populate types.Response without an import cycle.
type ASTNode struct {
	Kind     string    `json:"kind"`
	Range    Range     `json:"range"`
	Context  string    `json:"context,omitempty"`
	Children []ASTNode `json:"children,omitempty"`
}

// DoctorReport is the payload for the doctor subcommand: process and
// environment health used to debug a misbehaving installation.
type DoctorReport struct {
	Version        string   `json:"version"`
	Languages      []string `json:"languages_loaded"`
	CacheDir       string   `json:"cache_dir"`
	CacheEntries   int      `json:"cache_entries"`
	CacheBytes     int64    `json:"cache_bytes"`
	ConfigPath     string   `json:"config_path,omitempty"`
	LogFiles       []string `json:"log_files,omitempty"`
}
