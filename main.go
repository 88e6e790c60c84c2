package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"github.com/Lakeshore-Soccer-Club/matchsync/app"
	ingestionmigrations "github.com/Lakeshore-Soccer-Club/matchsync/app/modules/ingestion/infrastructure/repositories/migrations"
	"github.com/Lakeshore-Soccer-Club/matchsync/config"
)

func main() {
	cliApp := &cli.App{
		Name:  "matchsync",
		Usage: "asynchronous match ingestion pipeline",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "config.yaml",
				Usage: "path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			newServeCommand(),
			newMigrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the producer API and the ingestion workers",
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
				slog.String("service", "matchsync"),
				slog.String("environment", cfg.Observability.Environment),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := &app.App{}
			if err := application.Initialize(ctx, cfg, logger); err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Close()

			logger.Info("application started")
			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info("application shut down gracefully")
			return nil
		},
	}
}

func newMigrateCommand() *cli.Command {
	openMigrator := func(c *cli.Context) (*migrate.Migrator, *bun.DB, error) {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}

		pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
		db := bun.NewDB(pgdb, pgdialect.New())
		return migrate.NewMigrator(db, ingestionmigrations.Migrations), db, nil
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					migrator, db, err := openMigrator(c)
					if err != nil {
						return err
					}
					defer db.Close()
					return migrator.Init(c.Context)
				},
			},
			{
				Name:  "up",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					migrator, db, err := openMigrator(c)
					if err != nil {
						return err
					}
					defer db.Close()

					group, err := migrator.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("no new migrations to run")
					} else {
						fmt.Printf("migrated to %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					migrator, db, err := openMigrator(c)
					if err != nil {
						return err
					}
					defer db.Close()

					group, err := migrator.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Println("no groups to roll back")
					} else {
						fmt.Printf("rolled back %s\n", group)
					}
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					migrator, db, err := openMigrator(c)
					if err != nil {
						return err
					}
					defer db.Close()

					ms, err := migrator.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("migrations: %s\n", ms)
					fmt.Printf("applied: %s\n", ms.Applied())
					fmt.Printf("unapplied: %s\n", ms.Unapplied())
					return nil
				},
			},
		},
	}
}
