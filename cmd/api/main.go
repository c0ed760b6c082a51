package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/prdly/service-api-go/internal/config"
	friendsrepo "github.com/prdly/service-api-go/internal/friends/repo"
	periodrepo "github.com/prdly/service-api-go/internal/period/repo"
	"github.com/prdly/service-api-go/internal/router"
	userrepo "github.com/prdly/service-api-go/internal/user/repo"
	"github.com/prdly/service-api-go/pkg/database"
	"github.com/prdly/service-api-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-api-go")

	cfg := config.Load()
	if cfg.TokenSecret == "" {
		sugar.Fatal("TOKEN_SECRET is required")
	}

	// init db
	sqlDB, err := database.Connect(database.Config{DSN: cfg.DatabaseURL})
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	db := sqlx.NewDb(sqlDB, "postgres")
	defer db.Close()

	// ensure schema; table order matters for the foreign keys
	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer setupCancel()
	if err := userrepo.NewUserRepo(db).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	if err := periodrepo.NewPeriodRepo(db).EnsureTables(setupCtx); err != nil {
		sugar.Fatalf("ensure period tables: %v", err)
	}
	if err := friendsrepo.NewFriendsRepo(db).EnsureTables(setupCtx); err != nil {
		sugar.Fatalf("ensure friends tables: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// mount http server
	handler := router.RegisterRoutes(sugar, db, cfg)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	sugar.Infow("service is running; press Ctrl+C to stop", "addr", cfg.Addr)

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
