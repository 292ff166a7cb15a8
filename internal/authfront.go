package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refactron/auth-front/internal/backend"
	"github.com/refactron/auth-front/internal/config"
	"github.com/refactron/auth-front/internal/flow"
	"github.com/refactron/auth-front/internal/flowstate"
	"github.com/refactron/auth-front/internal/idp"
	"github.com/refactron/auth-front/internal/log"
	"github.com/refactron/auth-front/internal/server"
)

// AuthFront represents the complete authentication front application
type AuthFront struct {
	config     config.Config
	httpServer *server.HTTPServer
	store      flowstate.Store
	sweeper    *flowstate.Sweeper
}

// NewAuthFront creates the application with all dependencies built
func NewAuthFront(ctx context.Context, cfg config.Config) (*AuthFront, error) {
	log.LogInfoWithFields("authfront", "Building authentication front", map[string]any{
		"baseURL":   cfg.App.BaseURL,
		"flowStore": cfg.FlowStore.Kind,
	})

	if _, err := url.Parse(cfg.App.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	store, sweeper, err := setupFlowStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup flow store: %w", err)
	}

	providers := idp.NewRegistry(cfg.Providers, cfg.App.BaseURL)
	manager := flow.NewManager(
		flowstate.NewLifecycle(store),
		store,
		providers,
		backend.NewClient(cfg.App.APIBaseURL),
		cfg.Device.RedirectDelay,
	)

	mux := buildHTTPHandler(cfg, manager)
	httpServer := server.NewHTTPServer(mux, cfg.App.Addr)

	return &AuthFront{
		config:     cfg,
		httpServer: httpServer,
		store:      store,
		sweeper:    sweeper,
	}, nil
}

// Run starts the application and manages its lifecycle until a shutdown
// signal or a server error.
func (a *AuthFront) Run() error {
	log.LogInfoWithFields("authfront", "Starting authentication front", map[string]any{
		"addr": a.config.App.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		if err := a.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if a.sweeper != nil {
		a.sweeper.Start(ctx)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("authfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("authfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
		log.LogInfoWithFields("authfront", "Context cancelled, shutting down", nil)
	}

	log.LogInfoWithFields("authfront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("authfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	if err := a.store.Close(); err != nil {
		log.LogErrorWithFields("authfront", "Flow store close error", map[string]any{
			"error": err.Error(),
		})
	}

	log.LogInfoWithFields("authfront", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}

// setupFlowStore creates the flow-state backend from configuration. Memory
// and Firestore backends get a background sweeper for abandoned flows;
// Redis expires keys natively.
func setupFlowStore(ctx context.Context, cfg config.Config) (flowstate.Store, *flowstate.Sweeper, error) {
	switch cfg.FlowStore.Kind {
	case config.FlowStoreRedis:
		log.LogInfoWithFields("flowstore", "Using Redis flow store", map[string]any{
			"addr": cfg.FlowStore.RedisAddr,
		})
		store, err := flowstate.NewRedisStore(ctx, cfg.FlowStore)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.FlowStoreFirestore:
		log.LogInfoWithFields("flowstore", "Using Firestore flow store", map[string]any{
			"project":    cfg.FlowStore.GCPProject,
			"database":   cfg.FlowStore.FirestoreDatabase,
			"collection": cfg.FlowStore.FirestoreCollection,
		})
		store, err := flowstate.NewFirestoreStore(ctx, cfg.FlowStore)
		if err != nil {
			return nil, nil, err
		}
		sweeper := flowstate.NewSweeper(cfg.FlowStore.CleanupInterval, store.SweepExpired)
		return store, sweeper, nil

	default:
		log.LogInfoWithFields("flowstore", "Using in-memory flow store", nil)
		store := flowstate.NewMemoryStore()
		sweeper := flowstate.NewSweeper(cfg.FlowStore.CleanupInterval, func(_ context.Context, now time.Time) int {
			return store.SweepExpired(now)
		})
		return store, sweeper, nil
	}
}

// buildHTTPHandler wires all routes and middleware
func buildHTTPHandler(cfg config.Config, manager *flow.Manager) http.Handler {
	oauthHandlers := server.NewOAuthHandlers(manager, cfg.App.LoginPath)
	deviceHandlers := server.NewDeviceHandlers(manager, cfg.App.LoginPath, cfg.Device.PagePath)

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", server.NewHealthHandler())
	mux.HandleFunc("GET /oauth/{provider}/start", oauthHandlers.StartHandler)
	mux.HandleFunc("GET /oauth/callback/{provider}", oauthHandlers.CallbackHandler)
	mux.HandleFunc("GET "+cfg.Device.PagePath, deviceHandlers.PageHandler)
	mux.HandleFunc("POST "+cfg.Device.PagePath+"/confirm", deviceHandlers.ConfirmHandler)

	return server.ChainMiddleware(
		mux,
		server.NewBrowserSessionMiddleware(),
		server.NewRecoverMiddleware("http"),
		server.NewLoggerMiddleware("http"),
	)
}
