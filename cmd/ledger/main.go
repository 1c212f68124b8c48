package main

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

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/finance_ledger/internal/config"
	"github.com/Skotchmaster/finance_ledger/internal/db"
	"github.com/Skotchmaster/finance_ledger/internal/es"
	"github.com/Skotchmaster/finance_ledger/internal/httpserver"
	"github.com/Skotchmaster/finance_ledger/internal/logging"
	authmw "github.com/Skotchmaster/finance_ledger/internal/middleware/auth"
	"github.com/Skotchmaster/finance_ledger/internal/mykafka"
	"github.com/Skotchmaster/finance_ledger/internal/observability"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/revocation"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", "ledger", "env", cfg.AppEnv)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store := &repo.GormRepo{DB: gdb}
	metrics := observability.NewMetrics()

	tok := &tokens.Service{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Leeway:     cfg.TokenLeeway,
		Store:      store,
	}

	var rdb *redis.Client
	if cfg.RefreshSingleUse {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = revocation.New(ctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		tok.Revoker = revocation.NewStore(rdb)
		logger.Info("refresh tokens are single use", "redis", cfg.RedisAddr)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	var producer *mykafka.Producer
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer, err = mykafka.NewProducer(brokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = producer
	}

	txSvc := &service.TransactionService{Store: store, Events: events, Topic: cfg.KafkaTopic}
	if cfg.ESURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword})
		if err == nil {
			index := &es.TransactionIndex{Client: client, Index: cfg.ESIndex}
			if err = index.EnsureIndex(ctx); err == nil {
				txSvc.Index = index
			}
		}
		cancel()
		if err != nil {
			logger.Warn("search disabled", "error", err)
		}
	}

	e := httpserver.New(&httpserver.Deps{
		Logger:         logger,
		Auth:           &authmw.Middleware{Tokens: tok, Metrics: metrics},
		AuthHandler:    &httpserver.AuthHTTP{Svc: &service.AuthService{Users: store, Tokens: tok}, Metrics: metrics},
		Users:          &httpserver.UsersHTTP{Svc: &service.UserService{Repo: store, Events: events, Topic: cfg.KafkaTopic}, Metrics: metrics},
		Transactions:   &httpserver.TransactionsHTTP{Svc: txSvc, Metrics: metrics},
		Reports:        &httpserver.ReportsHTTP{Svc: &service.ReportService{Store: store}, Metrics: metrics},
		Metrics:        metrics,
		Ready:          func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		AllowedOrigins: cfg.AllowedOrigins(),
		LoginRateLimit: cfg.LoginRateLimit,
		Production:     cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("ledger listening", "addr", srv.Addr, "version", httpserver.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("ledger stopped")
}
