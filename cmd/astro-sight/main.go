package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/config"
	"github.com/owayo/astro-sight/internal/logging"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/types"
	"github.com/owayo/astro-sight/internal/version"
)

// commonFlags are accepted by the file- and directory-analysis
// subcommands (spec §6); doctor, session, mcp, init and skill-install
// do not take them.
var commonFlags = []cli.Flag{
	&cli.BoolFlag{Name: "pretty", Usage: "pretty-print JSON; disables cache read/write"},
	&cli.BoolFlag{Name: "no-cache", Usage: "disable both cache read and write"},
	&cli.StringFlag{Name: "glob", Usage: "glob filter for directory-scope operations"},
	&cli.StringFlag{Name: "dir", Usage: "workspace root for directory/batch operations"},
	&cli.StringFlag{Name: "paths", Usage: "comma-separated file paths (batch; NDJSON output)"},
	&cli.StringFlag{Name: "paths-file", Usage: "file containing one path per line (batch; NDJSON output)"},
}

func main() {
	app := &cli.App{
		Name:    "astro-sight",
		Usage:   "structural code intelligence: AST, symbols, calls, references, impact analysis",
		Version: version.Version,
		Commands: []*cli.Command{
			astCommand(),
			symbolsCommand(),
			callsCommand(),
			importsCommand(),
			lintCommand(),
			refsCommand(),
			contextCommand(),
			sequenceCommand(),
			cochangeCommand(),
			doctorCommand(),
			sessionCommand(),
			mcpCommand(),
			initCommand(),
			skillInstallCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		writeError(err)
		os.Exit(1)
	}
}

// appContext returns a context cancelled on SIGINT/SIGTERM, for the
// long-running session and mcp subcommands.
func appContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newFacade builds the unbounded façade a one-shot subcommand
// dispatches through; --dir does not sandbox it (only mcp, and session
// when given --dir, build a Sandboxed façade).
func newFacade(c *cli.Context) (*service.Facade, error) {
	cacheDir := cacheDirFor(c)
	var cch *cache.Cache
	if !c.Bool("no-cache") {
		cch = cache.New(cacheDir)
	}
	logger, err := logging.Open(logDir())
	if err != nil {
		return nil, err
	}
	return service.New(parser.NewPool(), cch, logger), nil
}

func cacheDirFor(c *cli.Context) string {
	root, err := config.Load(cwdOr(c.String("dir")))
	if err == nil && root.CacheDir != "" {
		return root.CacheDir
	}
	return config.XDGCacheDir()
}

func cwdOr(dir string) string {
	if dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}

func logDir() string {
	return filepath.Join(config.XDGCacheDir(), "logs")
}

// writeResponse prints resp as JSON to stdout (pretty or compact per
// the --pretty flag) and exits 1 if resp carries an error (spec §4.12).
// The JSON body is always the machine-readable contract; a colored
// one-line diagnostic on stderr is a human-facing supplement only, and
// fatih/color disables itself automatically when stderr isn't a tty.
func writeResponse(c *cli.Context, resp *types.Response) error {
	data, err := encode(c, resp)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	if resp.Error != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
		os.Exit(1)
	}
	return nil
}

func encode(c *cli.Context, v any) ([]byte, error) {
	if c.Bool("pretty") {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// writeError handles a CLI-framing error (bad flags, unknown command)
// the same way a façade error is reported: a JSON error envelope on
// stdout, exit code 1.
func writeError(err error) {
	resp := types.Response{Error: &types.ErrorPayload{Code: "INVALID_REQUEST", Message: err.Error()}}
	data, _ := json.Marshal(resp)
	fmt.Println(string(data))
}
