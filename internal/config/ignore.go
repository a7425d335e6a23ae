// Package config handles the KDL/TOML configuration files and the
// ignore-file matching used by the walker.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// GlobalIgnoreFile is the project-level ignore file consulted in
// addition to every directory's .gitignore (spec §4.6).
const GlobalIgnoreFile = ".astro-sightignore"

// IgnoreParser matches paths against a set of gitignore-style patterns.
// Adapted from the gitignore matcher: same pattern-optimization
// strategy (exact/prefix/suffix/regex fast paths), generalized to
// serve both .gitignore and the global ignore file.
type IgnoreParser struct {
	patterns   []ignorePattern
	regexCache sync.Map
}

type ignorePattern struct {
	raw         string
	negate      bool
	directory   bool
	absolute    bool
	patternType patternType
	prefix      string
	suffix      string
	compiled    *regexp.Regexp
}

type patternType int

const (
	patternExact patternType = iota
	patternPrefix
	patternSuffix
	patternWildcard
	patternComplex
)

// NewIgnoreParser returns an empty parser.
func NewIgnoreParser() *IgnoreParser {
	return &IgnoreParser{}
}

// Load reads one ignore file's patterns into the parser, if it exists.
// A missing file is not an error.
func (p *IgnoreParser) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p.patterns = append(p.patterns, p.parse(line))
	}
	return scanner.Err()
}

// AddPattern adds a single pattern line directly (for the default
// ignore set and tests).
func (p *IgnoreParser) AddPattern(line string) {
	p.patterns = append(p.patterns, p.parse(line))
}

// Empty reports whether the parser has no patterns loaded.
func (p *IgnoreParser) Empty() bool {
	return len(p.patterns) == 0
}

func (p *IgnoreParser) parse(line string) ignorePattern {
	var pat ignorePattern
	if strings.HasPrefix(line, "!") {
		pat.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		pat.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		pat.absolute = true
		line = line[1:]
	}
	pat.raw = line
	pat.patternType, pat.prefix, pat.suffix, pat.compiled = p.analyze(line)
	return pat
}

func (p *IgnoreParser) analyze(pattern string) (patternType, string, string, *regexp.Regexp) {
	if !strings.ContainsAny(pattern, "*?[") {
		return patternExact, pattern, pattern, nil
	}
	if strings.Contains(pattern, "*") && !strings.ContainsAny(pattern, "?[") {
		if strings.HasPrefix(pattern, "*") && !strings.Contains(pattern[1:], "*") {
			return patternSuffix, "", pattern[1:], nil
		}
		if strings.HasSuffix(pattern, "*") && !strings.Contains(pattern[:len(pattern)-1], "*") {
			return patternPrefix, pattern[:len(pattern)-1], "", nil
		}
	}
	regexPattern := globToRegex(pattern)
	if cached, ok := p.regexCache.Load(regexPattern); ok {
		return patternComplex, "", "", cached.(*regexp.Regexp)
	}
	compiled, err := regexp.Compile(regexPattern)
	if err != nil {
		return patternWildcard, "", "", nil
	}
	p.regexCache.Store(regexPattern, compiled)
	return patternComplex, "", "", compiled
}

func globToRegex(pattern string) string {
	regex := regexp.QuoteMeta(pattern)
	regex = strings.ReplaceAll(regex, `\*`, `.*`)
	regex = strings.ReplaceAll(regex, `\?`, `.`)
	regex = strings.ReplaceAll(regex, `\[`, `[`)
	regex = strings.ReplaceAll(regex, `\]`, `]`)
	return "^" + regex + "$"
}

// ShouldIgnore reports whether path (relative to the root the patterns
// were loaded from, forward-slash separated) should be excluded. Later
// matching patterns override earlier ones, and a "!" pattern
// re-includes a path matched by an earlier pattern.
func (p *IgnoreParser) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	ignored := false
	for _, pat := range p.patterns {
		if p.matches(pat, path, isDir) {
			ignored = !pat.negate
		}
	}
	return ignored
}

func (p *IgnoreParser) matches(pat ignorePattern, path string, isDir bool) bool {
	if pat.directory {
		if isDir {
			return p.fastMatch(pat, path)
		}
		return strings.HasPrefix(path, pat.raw+"/") || p.fastMatch(pat, path)
	}
	if pat.absolute {
		return p.fastMatch(pat, path)
	}
	if p.fastMatch(pat, path) {
		return true
	}
	parts := strings.Split(path, "/")
	for i := range parts {
		if p.fastMatch(pat, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}

func (p *IgnoreParser) fastMatch(pat ignorePattern, path string) bool {
	switch pat.patternType {
	case patternExact:
		return pat.raw == path
	case patternPrefix:
		return strings.HasPrefix(path, pat.prefix)
	case patternSuffix:
		return strings.HasSuffix(path, pat.suffix)
	case patternComplex:
		return pat.compiled.MatchString(path)
	case patternWildcard:
		matched, _ := filepath.Match(pat.raw, path)
		return matched
	default:
		return pat.raw == path
	}
}

// DefaultIgnores are always applied, ahead of any .gitignore or
// .astro-sightignore patterns the repo carries.
var DefaultIgnores = []string{
	".git/", "node_modules/", "vendor/", "target/", "dist/", "build/",
	".astro-sight-cache/",
}
