package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/reconnect-ai/coachd/internal/dotenv"
	"github.com/reconnect-ai/coachd/pkg/drafter"
	"github.com/reconnect-ai/coachd/pkg/gateway/config"
	gatewayserver "github.com/reconnect-ai/coachd/pkg/gateway/server"
	"github.com/reconnect-ai/coachd/pkg/store"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

type coachdDeps struct {
	loadConfig   func() (config.Config, error)
	newStore     func(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error)
	newUpstream  func(ctx context.Context, apiKey string) (*upstream.GeminiClient, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultCoachdDeps() coachdDeps {
	return coachdDeps{
		loadConfig:  config.LoadFromEnv,
		newStore:    buildStore,
		newUpstream: upstream.NewGeminiClient,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, using in-memory store")
		return store.NewMemory(), nil
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting store: %w", err)
	}
	logger.Info("postgres store ready")
	return pg, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func run(ctx context.Context, logger *slog.Logger, deps coachdDeps) error {
	if deps.loadConfig == nil || deps.newStore == nil || deps.newUpstream == nil {
		return errors.New("missing dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := deps.newStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	gwDeps := gatewayserver.Deps{Store: st}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("no gemini api key configured, live and report endpoints disabled")
	} else {
		client, err := deps.newUpstream(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return fmt.Errorf("building upstream client: %w", err)
		}
		gwDeps.Connector = client
		gwDeps.Drafter = drafter.New(client, cfg.DraftModel, logger)
	}

	gw := gatewayserver.New(cfg, gwDeps, logger)
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting coachd", "addr", cfg.Addr,
		"live_model", cfg.LiveModel, "draft_model", cfg.DraftModel)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	// Drain: close live sessions first so relays tear down while the HTTP
	// server finishes in-flight requests.
	gw.Registry().CloseAll("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("coachd stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps coachdDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "coachd: %v\n", err)
		return 1
	}

	if err := run(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "coachd: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultCoachdDeps()))
}
