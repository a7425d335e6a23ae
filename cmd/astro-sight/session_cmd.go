package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/owayo/astro-sight/internal/cache"
	"github.com/owayo/astro-sight/internal/logging"
	"github.com/owayo/astro-sight/internal/parser"
	"github.com/owayo/astro-sight/internal/service"
	"github.com/owayo/astro-sight/internal/session"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "run the NDJSON request/response loop over stdin/stdout",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "sandbox root; unset means unbounded"},
			&cli.BoolFlag{Name: "no-cache"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := appContext()
			defer cancel()

			logger, err := logging.Open(logDir())
			if err != nil {
				return err
			}
			var cch *cache.Cache
			if !c.Bool("no-cache") {
				cch = cache.New(cacheDirFor(c))
			}
			pool := parser.NewPool()

			var facade *service.Facade
			if dir := c.String("dir"); dir != "" {
				facade, err = service.Sandboxed(pool, cch, logger, dir)
				if err != nil {
					return err
				}
			} else {
				facade = service.New(pool, cch, logger)
			}
			return session.Run(ctx, facade, os.Stdin, os.Stdout)
		},
	}
}
