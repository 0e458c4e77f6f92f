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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "p2plend/internal/adapter/http"
	appmw "p2plend/internal/adapter/middleware"
	"p2plend/internal/config"
	"p2plend/internal/infrastructure/cache"
	"p2plend/internal/infrastructure/db"
	"p2plend/internal/infrastructure/scheduler"
	"p2plend/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	uc, err := buildUsecases(cfg, gdb, rdb, log)
	if err != nil {
		return err
	}

	sch := scheduler.New(log.Named("scheduler"))
	if err := sch.AddSweep(cfg.Policy.SweepSpec, uc.otps); err != nil {
		return fmt.Errorf("sweep schedule %q: %w", cfg.Policy.SweepSpec, err)
	}
	sch.Start()
	defer sch.Stop()

	e := newEcho(log)
	amounts := httpadp.Amounts{Exp: cfg.Policy.MinorExponent}
	httpadp.Register(e, httpadp.Routes{
		Health:       httpadp.NewHandler(sqlDB.PingContext),
		Wallets:      httpadp.NewWalletHandler(uc.wallets, amounts, cfg.Policy.HistoryLimit, log),
		Loans:        httpadp.NewLoanHandler(uc.loans, amounts, log),
		Approvals:    httpadp.NewApprovalHandler(uc.approvals, log),
		Fundings:     httpadp.NewFundingHandler(uc.fundings, uc.schedules, amounts, log),
		Settlements:  httpadp.NewSettlementHandler(uc.settlements, amounts, log),
		Transactions: httpadp.NewTransactionHandler(uc.otps, amounts, log),
		Auth: []echo.MiddlewareFunc{
			appmw.Identity([]byte(cfg.JWTSecret)),
			appmw.Idempotency(rdb, idempotencyTTL(cfg), log.Named("idempotency")),
		},
		OTP: []echo.MiddlewareFunc{appmw.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.AppPort
	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", addr, "env", cfg.AppEnv)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(log *zap.SugaredLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Warnw("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			log.Infow("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	return e
}
