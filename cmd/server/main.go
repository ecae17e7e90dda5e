package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/intwana-hub/internal/config"
	"github.com/DoyleJ11/intwana-hub/internal/httpapi"
	"github.com/DoyleJ11/intwana-hub/internal/hub"
	"github.com/DoyleJ11/intwana-hub/internal/ledger"
	"github.com/DoyleJ11/intwana-hub/internal/logging"
	"github.com/DoyleJ11/intwana-hub/internal/pgstore"
	"github.com/DoyleJ11/intwana-hub/internal/scoring"
	"github.com/DoyleJ11/intwana-hub/internal/session"
	"github.com/DoyleJ11/intwana-hub/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRooms(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	points, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	bridge := scoring.NewBridge(points, logger.Named("scoring"), cfg.ReportTimeout)
	defer bridge.Wait()

	// Build the router *with* the session dependencies injected
	handler := httpapi.SetupRoutes(session.Deps{
		Repo:              repo,
		Bridge:            bridge,
		Log:               logger.Named("session"),
		MemoryRevealDelay: cfg.MemoryRevealDelay,
		QuizRevealDelay:   cfg.QuizRevealDelay,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("rooms", cfg.RoomStore), zap.String("ledger", cfg.Ledger))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func openRooms(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.RoomRepository, func(), error) {
	if cfg.RoomStore != config.StorePostgres {
		return hub.NewHub(ctx, logger.Named("hub")), func() {}, nil
	}
	s, err := pgstore.New(ctx, cfg.DatabaseURL, logger.Named("pgstore"))
	if err != nil {
		return nil, nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, nil, err
	}
	return s, s.Close, nil
}

func openLedger(ctx context.Context, cfg config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	if cfg.Ledger != config.StorePostgres {
		return ledger.NewMemory(), nil
	}
	g, err := ledger.OpenGorm(cfg.LedgerDSN, logger.Named("ledger"))
	if err != nil {
		return nil, err
	}
	if err := g.Migrate(ctx); err != nil {
		return nil, err
	}
	return g, nil
}
