/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"microblog/auth"
	"microblog/config"
	"microblog/content"
	"microblog/db"
	"microblog/feeds"
	"microblog/i18n"
	"microblog/server"
	"microblog/tasks"
	"microblog/translate"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the microblog API",
		Description: `Starts the microblog HTTP server and the background task workers.

Runs pending database migrations first. Settings are read from the TOML
configuration file when one is given; flags override the file.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				EnvVars: []string{"MICROBLOG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Host to listen on",
				EnvVars: []string{"MICROBLOG_HOST"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"MICROBLOG_PORT"},
			},
			&cli.StringFlag{
				Name:    "translator-key",
				Usage:   "Subscription key of the translation service",
				EnvVars: []string{"MICROBLOG_TRANSLATOR_KEY"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level, one of debug, info, warn or error",
				EnvVars: []string{"MICROBLOG_LOG_LEVEL"},
			},
		},
		Action: func(ctx *cli.Context) error {
			level, err := log.ParseLevel(ctx.String("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)

			cfg := config.Default()
			if path := ctx.String("config"); path != "" {
				if cfg, err = config.LoadConfig(path); err != nil {
					return err
				}
			}
			if ctx.IsSet("host") {
				cfg.Server.Host = ctx.String("host")
			}
			if ctx.IsSet("port") {
				cfg.Server.Port = ctx.Int("port")
			}
			if ctx.IsSet("translator-key") {
				cfg.Translator.Key = ctx.String("translator-key")
			}

			database := ctx.String("database")
			fmt.Println("Database configured: ", database)
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			store, err := db.New(database)
			if err != nil {
				return err
			}
			defer store.Close()

			if released, err := store.ReleasePendingTasks(ctx.Context); err != nil {
				return err
			} else if released > 0 {
				log.WithField("tasks", released).Warn("Released tasks left pending by a previous run")
			}

			if err := i18n.Setup(); err != nil {
				return err
			}

			tidyCtx, stopTidy := context.WithCancel(ctx.Context)
			defer stopTidy()
			go store.TidyEvery(tidyCtx, cfg.Tasks.TidyInterval, cfg.Tasks.Retention)

			queue := tasks.NewQueue(ctx.Context, store, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
			queue.Register(tasks.ExportPosts, tasks.NewExporter(store, cfg.Tasks.ExportDir).Run)
			queue.Start()
			defer queue.Shutdown()

			app := server.Server(&server.ServerConfig{
				Store: store,
				Feeds: feeds.NewAssembler(store, store, store),
				Tasks: queue,
				Translator: translate.NewClient(translate.Config{
					Endpoint: cfg.Translator.Endpoint,
					Key:      cfg.Translator.Key,
					Region:   cfg.Translator.Region,
					Timeout:  cfg.Translator.Timeout,
				}),
				Detector:          content.NewDetector(cfg.Languages.Detect, cfg.Languages.MinimumRelativeDistance),
				Hasher:            auth.NewHasher(auth.DefaultParams),
				PostsPerPage:      cfg.Feed.PostsPerPage,
				SessionExpiration: cfg.Server.SessionExpiration,
				CookieSecure:      cfg.Server.CookieSecure,
				AllowOrigins:      cfg.Server.AllowOrigins,
				LoginRateLimit:    cfg.Server.LoginRateLimit,
			})

			// Graceful shutdown
			signals := make(chan os.Signal, 1)
			signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-signals
				fmt.Println("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.WithError(err).Error("Server shutdown failed")
				}
			}()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			fmt.Println("Starting server on", addr)
			if err := app.Listen(addr); err != nil {
				return err
			}

			fmt.Println("Done!")
			return nil
		},
	}
}
