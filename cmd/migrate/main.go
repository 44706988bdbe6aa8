// Command migrate creates the task schema and optionally loads legacy data.
//
// Usage:
//
//	migrate [-drop] [-seed path/to/tasks.json]
//
// The seed file may also be given with SEED_PATH. Seeding is idempotent:
// rows whose id already exists are skipped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-task-backend/internal/config"
	"github.com/tbourn/go-task-backend/internal/repo"
	"github.com/tbourn/go-task-backend/internal/sysutil"
)

type options struct {
	drop     bool
	seedPath string
}

func main() {
	envErr := godotenv.Load()

	var opts options
	flag.BoolVar(&opts.drop, "drop", false, "drop all tables before migrating")
	flag.StringVar(&opts.seedPath, "seed", "", "legacy JSON file to seed from (default $SEED_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, "migrate")
	if envErr != nil {
		log.Debug().Msg("no .env file found")
	}
	opts.seedPath = sysutil.FirstNonEmpty(opts.seedPath, cfg.SeedPath)

	db, err := repo.Open(repo.Options{
		Driver: cfg.DB.Driver,
		Path:   cfg.DB.Path,
		DSN:    dsnFor(cfg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := migrate(context.Background(), db, opts); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}

// migrate runs the drop/migrate/seed sequence selected by opts.
func migrate(ctx context.Context, db *gorm.DB, opts options) error {
	if opts.drop {
		log.Warn().Msg("dropping tables")
		if err := repo.DropAll(db); err != nil {
			return fmt.Errorf("drop: %w", err)
		}
	}

	log.Info().Msg("running migrations")
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	if opts.seedPath == "" {
		log.Info().Msg("migrations completed")
		return nil
	}

	f, err := os.Open(opts.seedPath)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	res, err := repo.SeedLegacy(ctx, db, f)
	if err != nil {
		return fmt.Errorf("seed %s: %w", opts.seedPath, err)
	}
	log.Info().
		Str("file", opts.seedPath).
		Int("read", res.Read).
		Int("inserted", res.Inserted).
		Int("skipped", res.Skipped).
		Msg("seed completed")
	return nil
}

func dsnFor(cfg config.Config) string {
	if cfg.DB.Driver == config.DriverPostgres {
		return cfg.DSN()
	}
	return ""
}
