/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"microblog/db"

	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Tidy up the database",
		Description: `Tidy up the database by removing finished background tasks.

		Removes completed task records older than the retention window.
		Can be run as a cron job to keep the database size down.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "days",
				Value:   30,
				Usage:   "Keep completed tasks created within this many days",
				EnvVars: []string{"MICROBLOG_TIDY_DAYS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")
			fmt.Println("Database configured: ", database)

			days := ctx.Int("days")
			if days < 0 {
				return fmt.Errorf("days must not be negative, got %d", days)
			}

			removed, err := db.Tidy(database, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d completed tasks\n", removed)
			return nil
		},
	}
}
