// Package lang maps a file path (and, for shell scripts, its shebang
// line) to one of the 14 supported language tags.
package lang

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/owayo/astro-sight/internal/types"
)

var extTable = map[string]types.Language{
	".rs":    types.LangRust,
	".c":     types.LangC,
	".h":     types.LangC, // .h resolves to c, not cpp
	".cc":    types.LangCpp,
	".cpp":   types.LangCpp,
	".cxx":   types.LangCpp,
	".hpp":   types.LangCpp,
	".hh":    types.LangCpp,
	".py":    types.LangPython,
	".pyw":   types.LangPython,
	".js":    types.LangJavaScript,
	".jsx":   types.LangJavaScript,
	".mjs":   types.LangJavaScript,
	".cjs":   types.LangJavaScript,
	".ts":    types.LangTypeScript,
	".mts":   types.LangTypeScript,
	".cts":   types.LangTypeScript,
	".tsx":   types.LangTSX,
	".go":    types.LangGo,
	".php":   types.LangPHP,
	".java":  types.LangJava,
	".kt":    types.LangKotlin,
	".kts":   types.LangKotlin,
	".swift": types.LangSwift,
	".cs":    types.LangCSharp,
	".sh":    types.LangBash,
	".bash":  types.LangBash,
}

var shebangInterpreters = map[string]types.Language{
	"bash": types.LangBash,
	"sh":   types.LangBash,
	"dash": types.LangBash,
	"zsh":  types.LangBash,
}

// Detect returns the language tag for path, consulting firstLine only
// when the extension is ".sh" or absent.
func Detect(path string, firstLine []byte) types.Language {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extTable[ext]; ok && ext != ".sh" {
		return l
	}
	if ext == "" || ext == ".sh" {
		if l, ok := detectShebang(firstLine); ok {
			return l
		}
	}
	if l, ok := extTable[ext]; ok {
		return l
	}
	return types.LangUnknown
}

func detectShebang(firstLine []byte) (types.Language, bool) {
	if !bytes.HasPrefix(firstLine, []byte("#!")) {
		return "", false
	}
	line := strings.TrimSpace(string(firstLine[2:]))
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false
	}
	interp := fields[0]
	if filepath.Base(interp) == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	name := filepath.Base(interp)
	if l, ok := shebangInterpreters[name]; ok {
		return l, true
	}
	return "", false
}

// Supported reports whether l has a registered grammar.
func Supported(l types.Language) bool {
	if l == types.LangUnknown {
		return false
	}
	for _, v := range extTable {
		if v == l {
			return true
		}
	}
	return false
}

// All14 is the closed set of supported language tags, in spec order.
var All14 = []types.Language{
	types.LangRust, types.LangC, types.LangCpp, types.LangPython,
	types.LangJavaScript, types.LangTypeScript, types.LangTSX, types.LangGo,
	types.LangPHP, types.LangJava, types.LangKotlin, types.LangSwift,
	types.LangCSharp, types.LangBash,
}
