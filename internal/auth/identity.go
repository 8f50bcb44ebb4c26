package auth

import (
	"context"
	"strings"
)

// SubjectExtractor reads the caller's subject identifier from verified claims
type SubjectExtractor struct{}

// NewSubjectExtractor creates an identity extractor backed by request claims
func NewSubjectExtractor() SubjectExtractor {
	return SubjectExtractor{}
}

// Subject returns the "sub" claim as issued. A context without claims, or
// with a blank subject, yields false.
func (SubjectExtractor) Subject(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", false
	}

	return claims.Subject, true
}
