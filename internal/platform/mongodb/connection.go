// Package mongodb provides the MongoDB-backed settings store
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

const (
	defaultConnectTimeout = 10 * time.Second
	pingAttempts          = 5
	pingInitialDelay      = 200 * time.Millisecond
	pingMaxDelay          = 5 * time.Second
)

// ConnectionConfig holds the client settings
type ConnectionConfig struct {
	URI            string
	ConnectTimeout time.Duration
	AppName        string
}

// NewConnection creates a traced client and waits until the server answers
// a ping. Startup is the only place pings are retried.
func NewConnection(ctx context.Context, cfg ConnectionConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, ErrMissingURI
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout).
		SetMaxPoolSize(25).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(2 * time.Minute).
		// one span per command, statements omitted
		SetMonitor(otelmongo.NewMonitor())
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	retrier := repeater.NewBackoff(pingAttempts, pingInitialDelay, repeater.WithMaxDelay(pingMaxDelay))
	err = retrier.Do(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Ping(pingCtx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx)) //nolint:errcheck // Connection cleanup in error path
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return client, nil
}

// Disconnect closes the client's connection pool
func Disconnect(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	return client.Disconnect(ctx)
}
