package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/ififf/internal/api"
	"github.com/samcharles93/ififf/internal/logger"
	"github.com/samcharles93/ififf/internal/storage"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		slotDB      string
		maxUpload   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the inspection and save-slot HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.StringFlag{
				Name:        "slot-db",
				Usage:       "SQLite file for save slots (default: in memory, env " + envSlotDB + ")",
				Destination: &slotDB,
			},
			&cli.Int64Flag{
				Name:        "max-upload",
				Usage:       "largest accepted request body in bytes",
				Value:       api.DefaultMaxUpload,
				Destination: &maxUpload,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr, &slotDB, &maxUpload)

			var store storage.SlotStore
			if slotDB != "" {
				db, err := storage.OpenSQLite(slotDB)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				store = db
				log.Info("using slot database", "path", slotDB)
			} else {
				store = storage.NewMemoryStore()
				log.Warn("save slots are kept in memory only; set --slot-db to persist them")
			}

			server := api.NewServer(store, api.Config{
				Logger:    log,
				MaxUpload: maxUpload,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
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
