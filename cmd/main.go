package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tkahng/bombrps"
	"github.com/tkahng/bombrps/config"
	"github.com/tkahng/bombrps/logger"
	"github.com/tkahng/bombrps/server"
)

func main() {
	play := flag.Bool("play", false, "play a single game in the terminal instead of serving")
	flag.Parse()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *play {
		// keep the game transcript clean
		logger.InitWriter(os.Stderr, "error", cfg.LogJSON)
		if err := playTerminal(ctx, cfg); err != nil {
			logger.Fatal("game aborted", slog.Any("error", err))
		}
		return
	}

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err := serve(ctx, cfg); err != nil {
		logger.Fatal("server failed", slog.Any("error", err))
	}
}

func playTerminal(ctx context.Context, cfg *config.Config) error {
	match := bombrps.NewMatch("terminal", bombrps.NewRandomPolicy(cfg.BombChance))
	err := bombrps.NewReferee(os.Stdin, os.Stdout, match).Run(ctx)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func serve(ctx context.Context, cfg *config.Config) error {
	broker := bombrps.NewBroker(cfg.MaxConcurrentGames,
		bombrps.WithGameTimeout(cfg.GameTimeout),
		bombrps.WithSourceFactory(func() bombrps.MoveSource {
			return bombrps.NewRandomPolicy(cfg.BombChance)
		}),
	)

	srv := server.NewGameServer(broker, cfg.AllowedOrigins)
	srv.Start()

	// nolint:exhaustruct
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		srv.Stop()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}
	srv.Stop()

	logger.Info("server stopped")
	return nil
}
