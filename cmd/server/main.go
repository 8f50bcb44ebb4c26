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

	"user-management/internal/auth"
	"user-management/internal/config"
	"user-management/internal/observability"
	"user-management/internal/platform/identityprovider"
	"user-management/internal/platform/memory"
	"user-management/internal/platform/mongodb"
	"user-management/internal/platform/server"
	"user-management/internal/services"
	"user-management/internal/web/handlers"

	"github.com/go-pkgz/repeater/v2"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
)

const (
	shutdownTimeout     = 30 * time.Second
	keySetWarmupTries   = 5
	keySetWarmupDelay   = 500 * time.Millisecond
	keySetWarmupMaxWait = 10 * time.Second
	keySetFetchTimeout  = 10 * time.Second
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obsCfg := observability.LoadConfig()
	obsCfg.Environment = cfg.Environment
	obsCfg.LogLevel = cfg.Logging.Level
	obsCfg.LogFormat = cfg.Logging.Format
	if os.Getenv("OTEL_SERVICE_VERSION") == "" {
		obsCfg.ServiceVersion = version
	}

	logger := observability.NewLogger(obsCfg)
	otel.SetErrorHandler(otel.ErrorHandlerFunc(logger.OTELErrorHandler()))

	provider, err := observability.NewProvider(ctx, obsCfg)
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("Failed to initialize OpenTelemetry")
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(ctx).Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open settings store")
	}

	authn, keys, err := newAuthenticator(ctx, cfg, logger)
	if err != nil {
		logger.Fatal(ctx).Err(err).Str("jwks_url", cfg.Auth.JWKSURL).Msg("Failed to load identity provider signing keys")
	}
	defer keys.Close()

	// the readiness probe only checks the identity provider when a URL is configured
	var readiness services.ReadinessChecker
	if cfg.IdP.HealthURL != "" {
		readiness = identityprovider.NewHealthChecker(cfg.IdP.HealthURL, cfg.IdP.HealthTimeout, nil)
	}

	container, err := services.NewContainer(cfg, logger, store, auth.NewSubjectExtractor(), readiness)
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("Failed to initialize services container")
	}

	metrics, err := observability.NewHTTPMetrics(observability.GetMeter())
	if err != nil {
		logger.Fatal(ctx).Err(err).Msg("Failed to create HTTP metrics")
	}

	handler := handlers.New(container, handlers.Options{
		Authenticate: authn.Middleware,
		Metrics:      metrics,
		MaxBodySize:  cfg.MaxBodySize,
		Version:      obsCfg.ServiceVersion,
	})

	srv := server.New(cfg, handler.Routes())

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx).Str("addr", srv.Addr).Str("store", cfg.StoreDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info(context.Background()).Msg("Server shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error(context.Background()).Err(err).Msg("Server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("Server forced to shutdown")
	}
	if err := container.Close(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("Failed to close services container")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx).Err(err).Msg("Failed to shutdown OpenTelemetry")
	}

	logger.Info(shutdownCtx).Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config, logger *observability.Logger) (services.ManagedStore, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn(ctx).Msg("Using in-memory settings store; data is lost on restart")
		return memory.NewSettingsStore(), nil
	}

	client, err := mongodb.NewConnection(ctx, mongodb.ConnectionConfig{
		URI:            cfg.MongoDB.URI,
		ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		AppName:        "user-management-api",
	})
	if err != nil {
		return nil, err
	}

	store, err := mongodb.NewSettingsStore(ctx, client, cfg.MongoDB.Database, cfg.MongoDB.Collection)
	if err != nil {
		_ = mongodb.Disconnect(context.WithoutCancel(ctx), client) //nolint:errcheck // Cleanup in error path
		return nil, err
	}

	logger.Info(ctx).
		Str("database", cfg.MongoDB.Database).
		Str("collection", cfg.MongoDB.Collection).
		Msg("Connected to MongoDB")
	return store, nil
}

// newAuthenticator loads the signing keys once at startup, retrying briefly
// while the identity provider comes up.
func newAuthenticator(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*auth.Authenticator, *auth.KeySet, error) {
	var keys *auth.KeySet
	retrier := repeater.NewBackoff(keySetWarmupTries, keySetWarmupDelay, repeater.WithMaxDelay(keySetWarmupMaxWait))
	err := retrier.Do(ctx, func() error {
		ks, err := auth.NewKeySet(ctx, auth.KeySetConfig{
			URL:                cfg.Auth.JWKSURL,
			TTL:                cfg.Auth.JWKSTTL,
			MinRefreshInterval: cfg.Auth.JWKSMinRefresh,
			FetchTimeout:       keySetFetchTimeout,
			HTTPClient:         identityprovider.NewHTTPClient(keySetFetchTimeout),
			RefreshErrorHandler: func(ctx context.Context, err error) {
				logger.Warn(ctx).Err(err).Msg("Signing key refresh failed, keeping cached keys")
			},
		})
		if err != nil {
			logger.Warn(ctx).Err(err).Msg("Signing keys not available yet")
			return err
		}
		keys = ks
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx).Int("keys", keys.Len(ctx)).Msg("Loaded identity provider signing keys")
	return auth.NewAuthenticator(auth.Config{
		Issuer:    cfg.Auth.Issuer,
		Audience:  cfg.Auth.Audience,
		ClockSkew: cfg.Auth.ClockSkew,
	}, keys, logger), keys, nil
}
