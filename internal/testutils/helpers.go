package testutils

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"user-management/internal/platform/mongodb"
)

var collectionSeq atomic.Int64

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// MongoContainers starts a MongoDB container for the duration of the test.
// The test is skipped under -short or when no container runtime is available.
func MongoContainers(t *testing.T) *TestContainers {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	containers, err := setupRecovering(ctx)
	if err != nil {
		t.Skipf("MongoDB container unavailable: %v", err)
	}
	t.Cleanup(func() { containers.Cleanup(context.Background()) })

	return containers
}

// SettingsStore returns a settings store bound to a collection no other
// caller uses
func (tc *TestContainers) SettingsStore(t *testing.T) *mongodb.SettingsStore {
	t.Helper()

	collection := fmt.Sprintf("user_settings_%d_%d", time.Now().UnixNano(), collectionSeq.Add(1))
	store, err := mongodb.NewSettingsStore(context.Background(), tc.MongoClient, "user_management_test", collection)
	if err != nil {
		t.Fatalf("failed to create settings store: %v", err)
	}
	return store
}

// setupRecovering turns a panic from a missing Docker daemon into an error
func setupRecovering(ctx context.Context) (containers *TestContainers, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("container runtime: %v", r)
		}
	}()
	return SetupTestContainers(ctx)
}
