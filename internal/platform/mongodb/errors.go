package mongodb

import "errors"

var (
	ErrMissingURI       = errors.New("MongoDB URI is required")
	ErrConnectionFailed = errors.New("failed to connect to MongoDB")
	ErrIndexFailed      = errors.New("failed to create settings indexes")
)
