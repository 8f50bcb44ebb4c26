package settings

import "context"

// Store defines the persistence contract for settings documents.
// Operations are independent of each other and never retry.
type Store interface {
	// ListAll returns every settings document in the collection
	ListAll(ctx context.Context) ([]*UserSettings, error)

	// GetByUserID retrieves the settings owned by a subject.
	// Returns nil, nil if no document exists for the user.
	GetByUserID(ctx context.Context, userID string) (*UserSettings, error)

	// GetByDocumentID retrieves a settings document by its store identifier.
	// Returns nil, nil if the document does not exist.
	GetByDocumentID(ctx context.Context, documentID string) (*UserSettings, error)

	// Insert stores a new document and returns the assigned document ID.
	// Returns ErrDuplicateUser if a document already exists for the user.
	Insert(ctx context.Context, s *UserSettings) (string, error)

	// ReplaceByDocumentID overwrites the named document entirely.
	// Returns ErrDocumentNotFound if the document does not exist.
	ReplaceByDocumentID(ctx context.Context, documentID string, s *UserSettings) error

	// DeleteByDocumentID removes the named document.
	// Returns ErrDocumentNotFound if the document does not exist.
	DeleteByDocumentID(ctx context.Context, documentID string) error

	// Ping reports whether the store is reachable
	Ping(ctx context.Context) error
}

// IdentityResolver extracts the caller's subject identifier from a request
// context that already passed authentication.
type IdentityResolver interface {
	// Subject returns the subject and true, or "" and false when the
	// context carries no usable identity.
	Subject(ctx context.Context) (string, bool)
}

// SettingsService defines the settings read/write operations
type SettingsService interface {
	// FetchSettings returns the caller's settings document.
	// Errors: ErrUnauthorized, ErrNotFound, ErrInternal.
	FetchSettings(ctx context.Context) (*UserSettings, error)

	// UpsertSettings creates or fully replaces the caller's settings document.
	// Errors: ErrUnauthorized, ErrInternal.
	UpsertSettings(ctx context.Context, req *UpsertRequest) (*UpsertResult, error)
}
