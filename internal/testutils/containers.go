package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	mongoModule "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"user-management/internal/platform/mongodb"
)

const mongoImage = "mongo:7"

// TestContainers manages the containers backing integration tests
type TestContainers struct {
	MongoContainer testcontainers.Container
	MongoClient    *mongo.Client
	MongoURI       string
}

// SetupTestContainers starts a disposable MongoDB and connects to it
func SetupTestContainers(ctx context.Context) (*TestContainers, error) {
	containers := &TestContainers{}

	if err := containers.setupMongo(ctx); err != nil {
		containers.Cleanup(ctx)
		return nil, fmt.Errorf("failed to setup mongodb container: %w", err)
	}

	return containers, nil
}

func (tc *TestContainers) setupMongo(ctx context.Context) error {
	container, err := mongoModule.Run(ctx, mongoImage)
	if err != nil {
		return fmt.Errorf("failed to start mongodb container: %w", err)
	}
	tc.MongoContainer = container

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get mongodb connection string: %w", err)
	}
	tc.MongoURI = uri

	client, err := mongodb.NewConnection(ctx, mongodb.ConnectionConfig{
		URI:            uri,
		ConnectTimeout: 10 * time.Second,
		AppName:        "user-management-tests",
	})
	if err != nil {
		return err
	}
	tc.MongoClient = client

	return nil
}

// Cleanup disconnects and terminates whatever was started
func (tc *TestContainers) Cleanup(ctx context.Context) {
	if tc.MongoClient != nil {
		_ = tc.MongoClient.Disconnect(ctx) //nolint:errcheck // Best effort cleanup
	}
	if tc.MongoContainer != nil {
		_ = tc.MongoContainer.Terminate(ctx) //nolint:errcheck // Best effort cleanup
	}
}
