// Command admin runs maintenance tasks against the identity database and
// document store.
//
//	admin migrate       create or update the identity tables
//	admin offline-all   mark every profile offline
//	admin reap-staging  delete staged uploads older than upload.stagingttlmin
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"souqbridge-identity/internal/core/config"
	"souqbridge-identity/internal/core/database"
	"souqbridge-identity/internal/core/logger"
	"souqbridge-identity/internal/feature/identity"
	"souqbridge-identity/internal/repo"
	"souqbridge-identity/internal/storage"
)

const usage = "usage: admin migrate|offline-all|reap-staging"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, os.Args[1], cfg, log); err != nil {
		log.Error("admin command failed", zap.String("cmd", os.Args[1]), zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg *config.Config, log *zap.Logger) error {
	switch cmd {
	case "migrate":
		return withDB(cfg, func(db *gorm.DB) error {
			if err := identity.Migrate(db); err != nil {
				return err
			}
			log.Info("migrate done")
			return nil
		})
	case "offline-all":
		return withDB(cfg, func(db *gorm.DB) error {
			n, err := repo.NewIdentityRepo(db, cfg.DB.QueryTimeout()).SetAllOffline(ctx)
			if err != nil {
				return err
			}
			log.Info("presence reset", zap.Int64("profiles", n))
			return nil
		})
	case "reap-staging":
		docs, err := storage.NewDocuments(cfg.Upload.Root)
		if err != nil {
			return err
		}
		n, err := docs.Reap(cfg.Upload.StagingTTL())
		if err != nil {
			return err
		}
		log.Info("staging reaped", zap.Int("removed", n))
		return nil
	}
	return fmt.Errorf("unknown command %q (%s)", cmd, usage)
}

func withDB(cfg *config.Config, fn func(*gorm.DB) error) error {
	db, err := database.NewGorm(database.OptsFrom(cfg.DB))
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	return fn(db)
}
