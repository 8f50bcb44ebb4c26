// Package memory provides an in-process settings store for development and tests
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"user-management/internal/domain/settings"
)

// SettingsStore keeps settings documents in a map guarded by a mutex.
// Document IDs have the same shape as the MongoDB store's.
type SettingsStore struct {
	mu     sync.RWMutex
	docs   map[string]settings.UserSettings
	byUser map[string]string
}

// NewSettingsStore creates an empty store
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		docs:   make(map[string]settings.UserSettings),
		byUser: make(map[string]string),
	}
}

func (s *SettingsStore) ListAll(ctx context.Context) ([]*settings.UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*settings.UserSettings, 0, len(s.docs))
	for _, doc := range s.docs {
		result = append(result, clone(doc))
	}
	// ObjectID hex sorts by creation time
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *SettingsStore) GetByUserID(ctx context.Context, userID string) (*settings.UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUser[userID]
	if !ok {
		return nil, nil
	}
	return clone(s.docs[id]), nil
}

func (s *SettingsStore) GetByDocumentID(ctx context.Context, documentID string) (*settings.UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return nil, nil
	}
	return clone(doc), nil
}

func (s *SettingsStore) Insert(ctx context.Context, us *settings.UserSettings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[us.UserID]; exists {
		return "", fmt.Errorf("%w: %s", settings.ErrDuplicateUser, us.UserID)
	}

	id := primitive.NewObjectID().Hex()
	doc := *clone(*us)
	doc.ID = id
	s.docs[id] = doc
	s.byUser[us.UserID] = id
	return id, nil
}

func (s *SettingsStore) ReplaceByDocumentID(ctx context.Context, documentID string, us *settings.UserSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.docs[documentID]
	if !ok {
		return settings.ErrDocumentNotFound
	}
	if owner, taken := s.byUser[us.UserID]; taken && owner != documentID {
		return fmt.Errorf("%w: %s", settings.ErrDuplicateUser, us.UserID)
	}

	doc := *clone(*us)
	doc.ID = documentID
	delete(s.byUser, existing.UserID)
	s.docs[documentID] = doc
	s.byUser[doc.UserID] = documentID
	return nil
}

func (s *SettingsStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return settings.ErrDocumentNotFound
	}
	delete(s.docs, documentID)
	delete(s.byUser, doc.UserID)
	return nil
}

func (s *SettingsStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op kept for lifecycle symmetry with the MongoDB store
func (s *SettingsStore) Close(context.Context) error {
	return nil
}

// clone copies a document so callers never share the stored photo pointer
func clone(doc settings.UserSettings) *settings.UserSettings {
	c := doc
	if doc.PhotoURL != nil {
		photo := *doc.PhotoURL
		c.PhotoURL = &photo
	}
	return &c
}
