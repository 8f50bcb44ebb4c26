package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://keycloak:8080/realms/finance"
	testAudience = "user-management-api"
)

type staticKeys struct {
	keys map[string]any
	err  error
}

func (s staticKeys) Key(_ context.Context, token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if s.err != nil {
		return nil, s.err
	}
	key, ok := s.keys[kid]
	if !ok {
		return nil, ErrKeyResolution
	}
	return key, nil
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	raw, err := token.SignedString(key)
	require.NoError(t, err)
	return raw
}

func validClaims(subject string) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
		PreferredUsername: "alice",
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	signer := generateRSAKey(t)
	other := generateRSAKey(t)

	authn := NewAuthenticator(Config{
		Issuer:   testIssuer,
		Audience: testAudience,
	}, staticKeys{keys: map[string]any{"k1": &signer.PublicKey}}, nil)

	expired := validClaims("u1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noExpiry := validClaims("u1")
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims("u1")
	wrongIssuer.Issuer = "http://evil.example.com"

	wrongAudience := validClaims("u1")
	wrongAudience.Audience = jwt.ClaimStrings{"another-api"}

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("u1")).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"valid token", "Bearer " + signToken(t, signer, "k1", validClaims("u1")), http.StatusOK},
		{"lowercase scheme", "bearer " + signToken(t, signer, "k1", validClaims("u1")), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, signer, "k1", expired), http.StatusUnauthorized},
		{"no expiry", "Bearer " + signToken(t, signer, "k1", noExpiry), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + signToken(t, signer, "k1", wrongIssuer), http.StatusUnauthorized},
		{"wrong audience", "Bearer " + signToken(t, signer, "k1", wrongAudience), http.StatusUnauthorized},
		{"wrong signing key", "Bearer " + signToken(t, other, "k1", validClaims("u1")), http.StatusUnauthorized},
		{"unknown kid", "Bearer " + signToken(t, signer, "k9", validClaims("u1")), http.StatusUnauthorized},
		{"symmetric algorithm", "Bearer " + hmacToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSubject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSubject, _ = NewSubjectExtractor().Subject(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/settings/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			authn.Middleware(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "u1", gotSubject)
			} else {
				assert.Empty(t, gotSubject)
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
				assert.JSONEq(t, `{"error":"unauthorized","status":401}`, rec.Body.String())
			}
		})
	}
}

func TestAuthenticator_KeyResolutionFailure(t *testing.T) {
	signer := generateRSAKey(t)
	authn := NewAuthenticator(Config{Issuer: testIssuer, Audience: testAudience},
		staticKeys{err: ErrKeyResolution}, nil)

	_, err := authn.Verify(context.Background(), signToken(t, signer, "k1", validClaims("u1")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyResolution)
}

func TestAuthenticator_WithRemoteKeySet(t *testing.T) {
	signer := generateRSAKey(t)
	srv := newJWKSServer(t, rsaJWK("k1", "sig", &signer.PublicKey))
	ks, err := NewKeySet(context.Background(), KeySetConfig{URL: srv.URL})
	require.NoError(t, err)
	t.Cleanup(ks.Close)

	authn := NewAuthenticator(Config{Issuer: testIssuer, Audience: testAudience}, ks, nil)

	claims, err := authn.Verify(context.Background(), signToken(t, signer, "k1", validClaims("u42")))
	require.NoError(t, err)
	assert.Equal(t, "u42", claims.Subject)
	assert.Equal(t, "alice", claims.PreferredUsername)
}

func TestSubjectExtractor(t *testing.T) {
	extractor := NewSubjectExtractor()

	tests := []struct {
		name     string
		ctx      context.Context
		expected string
		ok       bool
	}{
		{"no claims", context.Background(), "", false},
		{"nil claims", ContextWithClaims(context.Background(), nil), "", false},
		{"blank subject", ContextWithClaims(context.Background(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "  "}}), "", false},
		{"subject kept verbatim", ContextWithClaims(context.Background(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: " u1"}}), " u1", true},
		{"subject", ContextWithClaims(context.Background(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}), "u1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, ok := extractor.Subject(tt.ctx)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, subject)
		})
	}
}
