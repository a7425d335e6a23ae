package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/config"
)

// tomlConfig mirrors config.Config for the optional config.toml
// companion file (spec §6 expansion: "config.toml, for tools that
// prefer it").
type tomlConfig struct {
	Glob           string   `toml:"glob"`
	Excludes       []string `toml:"excludes"`
	NoGlobalIgnore bool     `toml:"no_global_ignore"`
	CacheDir       string   `toml:"cache_dir"`
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "write a starter .astro-sight.kdl (and optionally config.toml)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "directory to write .astro-sight.kdl into (default: cwd)"},
			&cli.BoolFlag{Name: "toml", Usage: "also write config.toml under XDG_CONFIG_HOME/astro-sight"},
		},
		Action: func(c *cli.Context) error {
			dir := cwdOr(c.String("dir"))
			path := filepath.Join(dir, config.ProjectFile)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.StarterKDL), 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)

			if c.Bool("toml") {
				cfgDir := config.XDGConfigDir()
				if err := os.MkdirAll(cfgDir, 0o755); err != nil {
					return err
				}
				data, err := toml.Marshal(tomlConfig{Glob: "**/*", CacheDir: ".astro-sight-cache"})
				if err != nil {
					return err
				}
				tomlPath := filepath.Join(cfgDir, config.TOMLConfigFile)
				if err := os.WriteFile(tomlPath, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", tomlPath)
			}
			return nil
		},
	}
}

// bundledSkillMarkdown is the Claude Code skill file skill-install
// copies into place; astro-sight has no runtime dependency on its
// contents (spec §6 expansion: out of scope as a core collaborator).
const bundledSkillMarkdown = `---
name: astro-sight
description: Structural code intelligence (AST, symbols, calls, references, impact analysis) for the current workspace.
---

Use the astro-sight CLI or its MCP server to inspect source structure
instead of re-reading whole files: ` + "`astro-sight symbols --path <file>`" + `,
` + "`astro-sight calls --path <file> --function <name>`" + `, ` + "`astro-sight refs --name <name> --dir .`" + `,
and ` + "`astro-sight context --dir . --git`" + ` for diff-driven impact analysis.
`

func skillInstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "skill-install",
		Usage: "copy the bundled astro-sight skill file into ~/.claude/skills (or --dest)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dest", Usage: "destination directory (default: ~/.claude/skills)"},
		},
		Action: func(c *cli.Context) error {
			dest := c.String("dest")
			if dest == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				dest = filepath.Join(home, ".claude", "skills")
			}
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dest, "astro-sight.md")
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.WriteString(f, bundledSkillMarkdown); err != nil {
				return err
			}
			fmt.Printf("installed %s\n", path)
			return nil
		},
	}
}
