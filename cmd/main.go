package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/mlindgren/huvudbok/internal/httpapi"
	"github.com/mlindgren/huvudbok/internal/ledger"
	"github.com/mlindgren/huvudbok/internal/service/account"
	"github.com/mlindgren/huvudbok/internal/storage/memory"
	pgstore "github.com/mlindgren/huvudbok/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	var srvMux http.Handler
	var closeFn func()

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		// Use Postgres store when DATABASE_URL is provided
		pg, err := pgstore.Open(ctx, dsn)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = func() { pg.Close() }
		// Optional dev seed for compose/local
		if devSeedEnabled() {
			org, fy, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				seedChart(ctx, logger, pg, org, fy)
			}
		}
		srvMux = httpapi.New(pg, logger).Handler()
		logger.Info("storage backend: postgres")
	} else {
		// Default to in-memory store with a small dev seed
		store := memory.New()
		org := ledger.Organization{ID: uuid.New(), Name: "Demo AB", Currency: "SEK"}
		store.SeedOrganization(org)
		year := time.Now().UTC().Year()
		fy := ledger.FiscalYear{
			ID:        uuid.New(),
			OrgID:     org.ID,
			StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}
		store.SeedFiscalYear(fy)
		seedChart(ctx, logger, store, org, fy)
		srvMux = httpapi.New(store, logger).Handler()
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           srvMux,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bookkeeping service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

func devSeedEnabled() bool {
	dev := strings.ToLower(strings.TrimSpace(os.Getenv("DEV_SEED")))
	return dev == "1" || dev == "true" || dev == "yes"
}

// seedChart creates the default BAS chart for the seeded organization and
// logs the IDs needed to start posting.
func seedChart(ctx context.Context, logger *slog.Logger, store httpapi.Store, org ledger.Organization, fy ledger.FiscalYear) {
	accountSvc := account.New(store, store)
	accs, err := accountSvc.EnsureDefaultChart(ctx, org.ID)
	if err != nil {
		logger.Error("default chart seed failed", "err", err)
		return
	}
	logger.Info("DEV seed", "org_id", org.ID.String(), "fiscal_year_id", fy.ID.String(), "accounts", len(accs))
	printDevSeedBanner(org, fy, accs)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(org ledger.Organization, fy ledger.FiscalYear, accs []ledger.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("org_id: %s\n", org.ID.String())
	fmt.Printf("fiscal_year_id: %s\n", fy.ID.String())
	for _, a := range accs {
		if a.Number == "1930" || a.Number == "3010" || a.Number == "2610" {
			fmt.Printf("account %s (%s): %s\n", a.Number, a.Name, a.ID.String())
		}
	}
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
