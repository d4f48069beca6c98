package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/xtfkit/internal/api"
	"github.com/samcharles93/xtfkit/internal/logger"
	"github.com/samcharles93/xtfkit/internal/webui"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		root        string
		amplitudes  bool
		noUI        bool
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve channel listings, packet records and conversions over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Sources:     cli.EnvVars("XTFKIT_ADDR"),
				Destination: &addr,
			},
			&cli.StringFlag{
				Name:        "root",
				Usage:       "directory that request paths are confined to",
				Value:       ".",
				Sources:     cli.EnvVars("XTFKIT_ROOT"),
				Destination: &root,
			},
			&cli.BoolFlag{
				Name:        "amplitudes",
				Usage:       "include amplitude statistics in channel listings",
				Destination: &amplitudes,
			},
			&cli.BoolFlag{
				Name:        "no-ui",
				Usage:       "do not serve the channel browser page at /",
				Destination: &noUI,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyServeConfig(cmd, fileConfig, &addr, &root, &amplitudes)
			log := logger.FromContext(ctx)

			server, err := api.NewServer(api.Config{
				Root:       root,
				Amplitudes: amplitudes,
				Logger:     log,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			if !noUI {
				e.GET("/", echo.WrapHandler(webui.Handler()))
			}

			log.Info("starting server", "address", addr, "root", root)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
