/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strings"

	"microblog/auth"
	"microblog/db"
	"microblog/models"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
)

func useraddCmd() *cli.Command {
	return &cli.Command{
		Name:  "useradd",
		Usage: "Create a user account",
		Description: `Creates a user account from the command line.

Prompts for anything not given as a flag. The password is always prompted for.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username of the new account",
			},
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Email address of the new account",
			},
		},
		Action: func(ctx *cli.Context) error {
			var err error

			username := ctx.String("username")
			if username == "" {
				if username, err = prompt.New().Ask("Username:").Input(""); err != nil {
					return err
				}
			}

			email := ctx.String("email")
			if email == "" {
				if email, err = prompt.New().Ask("Email:").Input("name@example.com"); err != nil {
					return err
				}
			}

			password, err := prompt.New().Ask("Password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}

			username, email = strings.TrimSpace(username), strings.TrimSpace(email)
			if username == "" || email == "" || password == "" {
				return errors.New("username, email and password are required")
			}

			hash, err := auth.NewHasher(auth.DefaultParams).Hash(password)
			if err != nil {
				return err
			}

			database := ctx.String("database")
			if err := db.Migrate(database); err != nil {
				return err
			}
			store, err := db.New(database)
			if err != nil {
				return err
			}
			defer store.Close()

			user := &models.User{Username: username, Email: email, PasswordHash: hash}
			if err := store.CreateUser(ctx.Context, user); err != nil {
				if errors.Is(err, models.ErrConflict) {
					return fmt.Errorf("username or email already taken: %w", err)
				}
				return err
			}

			fmt.Printf("Created user %s with id %d\n", user.Username, user.Id)
			return nil
		},
	}
}
