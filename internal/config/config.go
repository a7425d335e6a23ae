// Package config handles astro-sight's project-level KDL config, the
// XDG cache/config directory resolution, and the ignore-file matching
// in ignore.go (used by the walker).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ProjectFile is the primary per-repo config (spec §6 persisted state).
const ProjectFile = ".astro-sight.kdl"

// Config is the small set of project-level knobs astro-sight reads
// from .astro-sight.kdl: walker defaults and cache location. Anything
// not covered here falls back to the per-call CLI flag or a built-in
// default.
type Config struct {
	Glob           string
	Excludes       []string
	NoGlobalIgnore bool
	CacheDir       string
}

// Default returns the zero-value config used when no project file is
// present.
func Default() *Config {
	return &Config{}
}

// Load reads root/.astro-sight.kdl if present; a missing file is not
// an error and yields Default().
func Load(root string) (*Config, error) {
	path := filepath.Join(root, ProjectFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseKDL(string(content))
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ProjectFile, err)
	}
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "walker":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "glob":
					if s, ok := firstStringArg(cn); ok {
						cfg.Glob = s
					}
				case "exclude":
					for _, arg := range cn.Arguments {
						if s, ok := arg.Value.(string); ok {
							cfg.Excludes = append(cfg.Excludes, s)
						}
					}
				case "no_global_ignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.NoGlobalIgnore = b
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				if nodeName(cn) == "dir" {
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheDir = s
					}
				}
			}
		}
	}
	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// StarterKDL is the template written by `init`.
const StarterKDL = `// astro-sight project configuration
walker {
    glob "**/*"
    no_global_ignore false
}
cache {
    dir ".astro-sight-cache"
}
`

// XDGCacheDir returns the cache root astro-sight uses when the CLI
// does not override it with --no-cache or a config cache dir:
// $XDG_CACHE_HOME/astro-sight, falling back to ~/.cache/astro-sight.
func XDGCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "astro-sight")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "astro-sight-cache")
	}
	return filepath.Join(home, ".cache", "astro-sight")
}

// XDGConfigDir returns $XDG_CONFIG_HOME/astro-sight, falling back to
// ~/.config/astro-sight.
func XDGConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "astro-sight")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "astro-sight-config")
	}
	return filepath.Join(home, ".config", "astro-sight")
}

// TOMLConfigFile is the optional secondary config file `init` may
// also write, under XDGConfigDir().
const TOMLConfigFile = "config.toml"
