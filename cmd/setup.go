package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
	"github.com/Carrieukie/spotify-mcp-server/internal/ui"
)

// SetupConfig writes the embedded template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("%s\n", ui.Styles.OK("Wrote "+path))
	r.writePlain("%s\n", ui.Styles.Help(fmt.Sprintf(
		"Set client_id and client_secret, or export %s and %s.", shared.EnvClientID, shared.EnvClientSecret)))
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	migrator, err := shared.NewMigrator(db)
	if err != nil {
		return err
	}
	ran, err := migrator.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	version, err := migrator.Version(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("migrations applied", "ran", ran, "version", version, "path", config.Database.Path)

	if config.Storage.Backend != "sqlite" {
		r.logger.Warn("storage backend is not sqlite; set storage.backend = \"sqlite\" to use the database", "backend", config.Storage.Backend)
	}
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Database ready at %s (schema %04d)", config.Database.Path, version)))
}
