// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"codeberg.org/gabaylakad/backend/internal/config"
	"codeberg.org/gabaylakad/backend/internal/database"
	"codeberg.org/gabaylakad/backend/internal/server"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cmd := &cli.Command{
		Name:    "gabaylakad",
		Usage:   "Start the GabayLakad caregiver API",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			migrateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Inspect or roll back the database schema",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Print the current schema version",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withDatabase(cmd, func(db *sqlx.DB) error {
						version, err := database.MigrationVersion(db.DB)
						if err != nil {
							return err
						}
						fmt.Printf("schema version: %d\n", version)
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "Roll back the most recent migration",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return withDatabase(cmd, func(db *sqlx.DB) error {
						return database.MigrateDown(db.DB)
					})
				},
			},
		},
	}
}

// withDatabase opens the configured database, which applies pending
// migrations, and runs fn with it.
func withDatabase(cmd *cli.Command, fn func(*sqlx.DB) error) error {
	cfg := config.NewFromCLI(cmd)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(db)
}
