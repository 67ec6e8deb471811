package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erwinalamdev/secure-login/config"
	"github.com/erwinalamdev/secure-login/db"
	"github.com/erwinalamdev/secure-login/internal/auth/domain"
	"github.com/erwinalamdev/secure-login/internal/auth/handler"
	"github.com/erwinalamdev/secure-login/internal/auth/repository/memory"
	repo "github.com/erwinalamdev/secure-login/internal/auth/repository/postgres"
	"github.com/erwinalamdev/secure-login/internal/auth/service"
	"github.com/erwinalamdev/secure-login/internal/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	accounts domain.AccountRepository
	attempts domain.AttemptLedger
	close    func()
}

func main() {
	if err := run(config.Load()); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	hasher := service.NewBcryptHasher(cfg.BcryptCost)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin)
	authService := service.NewAuthService(st.accounts, st.attempts, hasher, tokenService, cfg)
	accountService := service.NewAccountService(st.accounts, st.attempts, hasher, cfg)

	v := validation.New()
	authHandler := handler.NewAuthHandler(authService, v)
	accountHandler := handler.NewAccountHandler(accountService, v)

	app := fiber.New(fiber.Config{
		AppName:      "secure-login",
		ErrorHandler: handler.ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	handler.RegisterRoutes(app, authHandler, accountHandler)

	go func() {
		<-ctx.Done()
		log.Println("info: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("error: shutdown: %v", err)
		}
	}()

	log.Printf("info: listening on :%s (env=%s, store=%s)", cfg.Port, cfg.Env, cfg.StoreDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// openStores selects the account store and attempt ledger from
// STORE_DRIVER. The postgres driver migrates the schema before serving.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Println("warn: using the in-memory store; data is lost on restart")
		store := memory.NewStore()
		return &stores{accounts: store, attempts: store, close: func() {}}, nil

	case config.StoreDriverPostgres:
		if err := db.Migrate(ctx, cfg.DBURL); err != nil {
			return nil, err
		}

		dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}

		pgRepo := repo.NewPostgresRepository(dbPool)
		return &stores{accounts: pgRepo, attempts: pgRepo, close: dbPool.Close}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}
