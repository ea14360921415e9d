// Command server runs the meme-match room coordinator behind a websocket endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jason-s-yu/memematch/internal/cache"
	"github.com/jason-s-yu/memematch/internal/config"
	"github.com/jason-s-yu/memematch/internal/database"
	"github.com/jason-s-yu/memematch/internal/database/postgres"
	"github.com/jason-s-yu/memematch/internal/database/sqlite"
	"github.com/jason-s-yu/memematch/internal/game"
	"github.com/jason-s-yu/memematch/internal/transport"
	"github.com/jason-s-yu/memematch/internal/wallet"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration.")
	}
	log := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server exited with error.")
	}
	log.Info("Server stopped.")
}

// openStore selects the durable store driver.
func openStore(ctx context.Context, cfg config.Config) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		return postgres.Connect(ctx, cfg.DatabaseURL)
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		return database.Noop{}, nil
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close store.")
		}
	}()

	coord := game.NewCoordinator(cfg.GameOptions(), log.WithField("component", "game"))
	coord.Treasury = wallet.NewMockWallet(cfg.TreasuryAddress, cfg.TreasuryBalance, log)

	hub := transport.NewHub(coord, transport.Options{AllowedOrigins: cfg.AllowedOrigins}, log.WithField("component", "transport"))

	if _, noop := store.(database.Noop); !noop {
		coord.Store = store
		hub.Results = store
		log.Infof("Persisting results to %s.", cfg.StoreDriver)
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		historian := cache.NewHistorian(rdb, cache.DefaultHistoryTTL)
		coord.Historian = historian
		hub.History = historian
		log.Infof("Recording room history to redis at %s.", cfg.RedisAddr)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on %s.", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down, aborting live rooms.")

		// Stop accepting connections, then close the coordinator while the
		// open sockets can still receive game-ended, then drop them.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		coord.Shutdown()
		hub.Close()
		return err
	})
	return g.Wait()
}
