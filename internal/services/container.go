package services

import (
	"context"
	"errors"

	"user-management/internal/config"
	"user-management/internal/domain/settings"
	"user-management/internal/observability"
	"user-management/internal/platform/identityprovider"
	"user-management/internal/services/implementations"
)

// ManagedStore is a settings store with an explicit lifecycle
type ManagedStore interface {
	settings.Store
	Close(ctx context.Context) error
}

// ReadinessChecker reports whether an upstream dependency is ready
type ReadinessChecker interface {
	Check(ctx context.Context) identityprovider.Status
}

// Container holds all the application dependencies
type Container struct {
	config *config.Config
	logger *observability.Logger

	// Infrastructure
	store            ManagedStore
	identity         settings.IdentityResolver
	identityProvider ReadinessChecker // nil when the probe is disabled

	// Services
	settingsService settings.SettingsService
}

// NewContainer wires the services on top of already constructed infrastructure
func NewContainer(
	cfg *config.Config,
	logger *observability.Logger,
	store ManagedStore,
	identity settings.IdentityResolver,
	identityProvider ReadinessChecker,
) (*Container, error) {
	if store == nil {
		return nil, errors.New("settings store is required")
	}
	if identity == nil {
		return nil, errors.New("identity resolver is required")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	c := &Container{
		config:           cfg,
		logger:           logger,
		store:            store,
		identity:         identity,
		identityProvider: identityProvider,
	}
	c.settingsService = implementations.NewSettingsService(c.store, c.identity, c.logger)

	logger.GetZerolog().Info().Msg("Dependency injection container initialized successfully")
	return c, nil
}

// Getters for accessing services

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Logger() *observability.Logger {
	return c.logger
}

func (c *Container) Store() settings.Store {
	return c.store
}

func (c *Container) Identity() settings.IdentityResolver {
	return c.identity
}

func (c *Container) IdentityProvider() ReadinessChecker {
	return c.identityProvider
}

func (c *Container) SettingsService() settings.SettingsService {
	return c.settingsService
}

// Close releases the store
func (c *Container) Close(ctx context.Context) error {
	return c.store.Close(ctx)
}
