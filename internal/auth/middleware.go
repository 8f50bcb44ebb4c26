package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"user-management/internal/observability"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingToken is returned when a request carries no bearer token
var ErrMissingToken = errors.New("missing bearer token")

var signingMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"}

// KeyResolver produces the verification key for a parsed, not yet verified token
type KeyResolver interface {
	Key(ctx context.Context, token *jwt.Token) (any, error)
}

// Config holds the token validation parameters
type Config struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
}

// Authenticator validates bearer tokens and attaches their claims to the request
type Authenticator struct {
	keys   KeyResolver
	parser *jwt.Parser
	logger *observability.Logger
}

// NewAuthenticator creates an authenticator that checks signature, issuer,
// audience and lifetime
func NewAuthenticator(cfg Config, keys KeyResolver, logger *observability.Logger) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(signingMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.ClockSkew),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &Authenticator{
		keys:   keys,
		parser: jwt.NewParser(opts...),
		logger: logger,
	}
}

// Verify parses and validates a raw token
func (a *Authenticator) Verify(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.keys.Key(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// Middleware rejects requests without a valid bearer token with 401
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		raw, err := bearerToken(r)
		if err != nil {
			a.logWarn(ctx, err, "Request without bearer token")
			writeUnauthorized(w, "")
			return
		}

		claims, err := a.Verify(ctx, raw)
		if err != nil {
			if errors.Is(err, ErrKeyResolution) {
				if a.logger != nil {
					a.logger.Error(ctx).Err(err).Msg("Unable to resolve token signing key")
				}
			} else {
				a.logWarn(ctx, err, "Bearer token rejected")
			}
			writeUnauthorized(w, "invalid_token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, claims)))
	})
}

func (a *Authenticator) logWarn(ctx context.Context, err error, msg string) {
	if a.logger == nil {
		return
	}
	a.logger.Warn(ctx).Err(err).Msg(msg)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func writeUnauthorized(w http.ResponseWriter, code string) {
	challenge := "Bearer"
	if code != "" {
		challenge = fmt.Sprintf(`Bearer error=%q`, code)
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // Best effort response
		"error":  "unauthorized",
		"status": http.StatusUnauthorized,
	})
}
