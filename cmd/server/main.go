package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/user-accounts/internal/config"
	"github.com/iliyamo/user-accounts/internal/database"
	"github.com/iliyamo/user-accounts/internal/handler"
	"github.com/iliyamo/user-accounts/internal/logging"
	"github.com/iliyamo/user-accounts/internal/queue"
	"github.com/iliyamo/user-accounts/internal/repository"
	"github.com/iliyamo/user-accounts/internal/router"
	"github.com/iliyamo/user-accounts/internal/service"
	"github.com/iliyamo/user-accounts/internal/utils"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	tokens, err := utils.NewTokenService(utils.TokenConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		events = service.NewAMQPPublisher(cfg.AMQPURL, logger)
		consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogPath, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", "err", err)
			}
		}()
	}

	auth := service.NewAuthService(store, utils.NewBcryptHasher(cfg.BcryptCost), tokens, events, logger)
	e := router.NewServer(logger,
		handler.NewAuthHandler(auth, tokens, cfg.CookieSecure),
		service.NewAuthenticator(store, tokens),
	)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

// openStore picks the user store from STORE_DRIVER and puts the Redis cache
// in front of it when one is reachable.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.UserStore, func(), error) {
	var (
		store   repository.UserStore
		closers []func()
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		store = repository.NewMemoryUserRepo()
	default:
		db, err := database.Open(ctx, database.Settings{
			User: cfg.DBUser,
			Pass: cfg.DBPass,
			Host: cfg.DBHost,
			Port: cfg.DBPort,
			Name: cfg.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		store = repository.NewUserRepo(db)
	}

	cacheCfg := config.LoadUserCacheConfig()
	if cacheCfg.Enabled {
		if rdb := config.NewRedisClient(); rdb != nil {
			closers = append(closers, func() { _ = rdb.Close() })
			store = repository.NewCachedUserRepo(store, rdb, cacheCfg, logger)
		} else {
			logger.Warn("redis unavailable; user cache disabled")
		}
	}

	return store, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
