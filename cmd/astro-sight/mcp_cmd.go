package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/logging"
	"github.com/owayo/astro-sight/internal/mcpserver"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/service"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "serve the JSON-RPC/MCP tool surface over stdio, sandboxed to --dir",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "sandbox root (defaults to the current directory)"},
			&cli.BoolFlag{Name: "no-cache"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := appContext()
			defer cancel()

			root := c.String("dir")
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root = wd
			}
			logger, err := logging.Open(logDir())
			if err != nil {
				return err
			}
			var cch *cache.Cache
			if !c.Bool("no-cache") {
				cch = cache.New(cacheDirFor(c))
			}
			facade, err := service.Sandboxed(parser.NewPool(), cch, logger, root)
			if err != nil {
				return err
			}
			srv := mcpserver.New(facade)
			if err := srv.Run(ctx); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
