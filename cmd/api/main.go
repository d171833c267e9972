package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"souqbridge-identity/internal/core/auth"
	"souqbridge-identity/internal/core/cache"
	"souqbridge-identity/internal/core/config"
	"souqbridge-identity/internal/core/database"
	"souqbridge-identity/internal/core/logger"
	"souqbridge-identity/internal/core/server"
	"souqbridge-identity/internal/feature/identity"
	"souqbridge-identity/internal/repo"
	"souqbridge-identity/internal/service"
	"souqbridge-identity/internal/storage"
	"souqbridge-identity/internal/transport/http/router"
	"souqbridge-identity/internal/validate"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	db := mustOpenDB(cfg, log)
	defer func() { _ = database.Close(db) }()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := identity.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = c.Close() }()
	if c.RDB != nil {
		log.Info("revocation list on redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis not configured, revocation list is per process")
	}

	docs, err := storage.NewDocuments(cfg.Upload.Root)
	if err != nil {
		log.Fatal("document store", zap.Error(err))
	}

	svc := service.NewAccounts(service.Deps{
		Repo:      repo.NewIdentityRepo(db, cfg.DB.QueryTimeout()),
		Tokens:    auth.NewJWTer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL(), cfg.JWT.ExtendedTTL()),
		Denylist:  cache.NewDenylist(c),
		Cache:     c,
		Documents: docs,
		Validator: validate.New(cfg.Upload.MaxBytes),
		Log:       log,
	})

	r := router.NewAPIEngine(log, cfg, svc)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("identity api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return docs.RunReaper(gctx, cfg.Upload.ReapInterval(), cfg.Upload.StagingTTL(), log)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("identity api stopped with error", zap.Error(err))
	}

	// presence hook runs after the listener is closed so no login can race it
	hookCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := svc.SetAllOffline(hookCtx); err != nil {
		log.Error("presence reset failed", zap.Error(err))
	}
	log.Info("identity api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.OptsFrom(cfg.DB))
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
