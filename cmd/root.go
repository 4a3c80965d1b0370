/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "microblog",
		Usage: "A small social network with posts, follows and private messages",
		Description: `A microblogging service exposing a JSON API.

		Users register, post short messages, follow each other and exchange
		private messages. State lives in a single SQLite database; posts are
		indexed for full text search and can be exported in the background.

		Flags can generally be set via environment variables, e.g.:

		--database => MICROBLOG_DATABASE=microblog.db
		--port => MICROBLOG_PORT=8080
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			tidyCmd(),
			useraddCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "database",
		Aliases: []string{"d"},
		Value:   "microblog.db",
		Usage:   "SQLite database file location",
		EnvVars: []string{"MICROBLOG_DATABASE"},
	}
}
