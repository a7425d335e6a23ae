package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/cochange"
	"github.com/owayo/astro-sight/internal/config"
	"github.com/owayo/astro-sight/internal/extract"
	"github.com/owayo/astro-sight/internal/impact"
	"github.com/owayo/astro-sight/internal/types"
)

func withFacadeFlags(flags ...cli.Flag) []cli.Flag {
	return append(append([]cli.Flag{&cli.StringFlag{Name: "path", Usage: "file path"}}, commonFlags...), flags...)
}

func astCommand() *cli.Command {
	return &cli.Command{
		Name:  "ast",
		Usage: "return the AST fragment at or around a location",
		Flags: withFacadeFlags(
			&cli.UintFlag{Name: "line", Usage: "1-based line"},
			&cli.UintFlag{Name: "col", Usage: "0-based column"},
			&cli.UintFlag{Name: "end-line"},
			&cli.UintFlag{Name: "end-col"},
			&cli.IntFlag{Name: "depth", Usage: "child expansion depth"},
			&cli.IntFlag{Name: "context", Usage: "context lines per node"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			sel := selectionFrom(c)
			return runBatchOrSingle(ctx, c, f, func(path string) *types.Response {
				return f.AST(ctx, path, sel, c.Int("depth"), c.Int("context"), c.Bool("pretty"), c.Bool("no-cache"))
			})
		},
	}
}

func selectionFrom(c *cli.Context) extract.Selection {
	var sel extract.Selection
	if c.IsSet("line") {
		v := uint32(c.Uint("line"))
		sel.Line = &v
	}
	if c.IsSet("col") {
		v := uint32(c.Uint("col"))
		sel.Col = &v
	}
	if c.IsSet("end-line") {
		v := uint32(c.Uint("end-line"))
		sel.EndLine = &v
	}
	if c.IsSet("end-col") {
		v := uint32(c.Uint("end-col"))
		sel.EndCol = &v
	}
	return sel
}

func symbolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "symbols",
		Usage: "list symbol definitions in source order",
		Flags: withFacadeFlags(
			&cli.BoolFlag{Name: "full", Usage: "include byte-range hash and source range"},
			&cli.BoolFlag{Name: "doc", Usage: "include docstring"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			form := extract.FormCompact
			switch {
			case c.Bool("full"):
				form = extract.FormFull
			case c.Bool("doc"):
				form = extract.FormDoc
			}
			return runBatchOrSingle(ctx, c, f, func(path string) *types.Response {
				return f.Symbols(ctx, path, form, c.Bool("pretty"), c.Bool("no-cache"))
			})
		},
	}
}

func callsCommand() *cli.Command {
	return &cli.Command{
		Name:  "calls",
		Usage: "list call edges, optionally filtered to one caller",
		Flags: withFacadeFlags(&cli.StringFlag{Name: "function", Usage: "caller name filter"}),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			return runBatchOrSingle(ctx, c, f, func(path string) *types.Response {
				return f.Calls(ctx, path, c.String("function"), c.Bool("pretty"), c.Bool("no-cache"))
			})
		},
	}
}

func importsCommand() *cli.Command {
	return &cli.Command{
		Name:  "imports",
		Usage: "list import/use/include statements",
		Flags: withFacadeFlags(),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			return runBatchOrSingle(ctx, c, f, func(path string) *types.Response {
				return f.Imports(ctx, path, c.Bool("pretty"), c.Bool("no-cache"))
			})
		},
	}
}

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:  "lint",
		Usage: "run lint rules against a file",
		Flags: withFacadeFlags(
			&cli.StringFlag{Name: "rules", Usage: "JSON array of rule objects"},
			&cli.StringFlag{Name: "rules-dir", Usage: "directory of *.json rule files"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			rules, err := loadRules(c.String("rules"), c.String("rules-dir"))
			if err != nil {
				return err
			}
			ctx := context.Background()
			return runBatchOrSingle(ctx, c, f, func(path string) *types.Response {
				return f.Lint(ctx, path, rules, c.Bool("pretty"), c.Bool("no-cache"))
			})
		},
	}
}

func refsCommand() *cli.Command {
	return &cli.Command{
		Name:  "refs",
		Usage: "find references to one or more symbol names",
		Flags: append(commonFlags,
			&cli.StringFlag{Name: "name", Usage: "single symbol name"},
			&cli.StringFlag{Name: "names", Usage: "CSV of symbol names (batch)"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			root := c.String("dir")
			if names := c.String("names"); names != "" {
				return writeResponse(c, f.RefsBatch(ctx, root, splitCSV(names), c.String("glob")))
			}
			return writeResponse(c, f.Refs(ctx, root, c.String("name"), c.String("glob")))
		},
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contextCommand() *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "impact analysis for a diff: affected symbols, signature changes, impacted callers",
		Flags: append(commonFlags,
			&cli.StringFlag{Name: "diff", Usage: "unified diff text"},
			&cli.StringFlag{Name: "diff-file", Usage: "path to a unified diff file"},
			&cli.BoolFlag{Name: "git", Usage: "read the diff from git"},
			&cli.BoolFlag{Name: "staged", Usage: "diff staged changes"},
			&cli.StringFlag{Name: "base", Usage: "base ref for --git"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			diff := c.String("diff")
			if df := c.String("diff-file"); df != "" {
				data, err := os.ReadFile(df)
				if err != nil {
					return err
				}
				diff = string(data)
			}
			opts := impact.Options{DiffText: diff, UseGit: c.Bool("git"), Staged: c.Bool("staged"), BaseRef: c.String("base")}
			ctx := context.Background()
			return writeResponse(c, f.Context(ctx, c.String("dir"), opts))
		},
	}
}

func sequenceCommand() *cli.Command {
	return &cli.Command{
		Name:  "sequence",
		Usage: "render a function's call tree as a Mermaid sequence diagram",
		Flags: withFacadeFlags(&cli.StringFlag{Name: "function", Usage: "root function name"}),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			return writeResponse(c, f.Sequence(ctx, c.String("path"), c.String("function")))
		},
	}
}

func cochangeCommand() *cli.Command {
	return &cli.Command{
		Name:  "cochange",
		Usage: "mine file co-change statistics from version-control history",
		Flags: append(commonFlags,
			&cli.IntFlag{Name: "lookback", Usage: "commits to scan"},
			&cli.Float64Flag{Name: "min-confidence", Usage: "confidence floor"},
			&cli.StringFlag{Name: "file", Usage: "single-file filter"},
		),
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			opts := cochange.Options{Lookback: c.Int("lookback"), MinConfidence: c.Float64("min-confidence"), PathFilter: c.String("file")}
			ctx := context.Background()
			return writeResponse(c, f.Cochange(ctx, c.String("dir"), opts))
		},
	}
}

func doctorCommand() *cli.Command {
	return &cli.Command{
		Name:  "doctor",
		Usage: "report process and environment health",
		Action: func(c *cli.Context) error {
			f, err := newFacade(c)
			if err != nil {
				return err
			}
			ctx := context.Background()
			configPath := filepath.Join(cwdOr(c.String("dir")), config.ProjectFile)
			if _, err := os.Stat(configPath); err != nil {
				configPath = ""
			}
			return writeResponse(c, f.Doctor(ctx, cacheDirFor(c), configPath, logDir()))
		},
	}
}
