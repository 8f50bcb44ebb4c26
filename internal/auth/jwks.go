package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"
)

const (
	defaultKeySetTTL        = 15 * time.Minute
	defaultMinRefreshPeriod = 30 * time.Second
	defaultKeySetFetchWait  = 10 * time.Second
	unknownKIDWaitMax       = 2 * time.Second
)

var (
	// ErrKeyResolution is returned when no verification key can be produced for a token
	ErrKeyResolution = errors.New("signing key resolution failed")
	// ErrNoKeys is returned when the key-distribution endpoint publishes no usable keys
	ErrNoKeys = errors.New("key set contains no usable signing keys")
	// ErrUnknownKey is returned when the token's key id is not in the key set
	ErrUnknownKey = errors.New("signing key not found in key set")
)

// KeySetConfig configures a remote JSON Web Key Set
type KeySetConfig struct {
	URL                string
	TTL                time.Duration
	MinRefreshInterval time.Duration
	FetchTimeout       time.Duration
	HTTPClient         *http.Client
	// RefreshErrorHandler receives background refresh failures; the
	// previously fetched keys stay in use
	RefreshErrorHandler func(ctx context.Context, err error)
}

// KeySet caches the identity provider's published signing keys.
// Keys are refreshed in the background every TTL, and when a token names an
// unknown key id, at most once per MinRefreshInterval.
type KeySet struct {
	storage jwkset.Storage
	keyfunc keyfunc.Keyfunc
	cancel  context.CancelFunc
}

// NewKeySet fetches the key set once and starts the background refresh.
// An unreachable endpoint or a set without signing keys is an error.
func NewKeySet(ctx context.Context, cfg KeySetConfig) (*KeySet, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("key set URL is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultKeySetTTL
	}
	minRefresh := cfg.MinRefreshInterval
	if minRefresh <= 0 {
		minRefresh = defaultMinRefreshPeriod
	}
	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultKeySetFetchWait
	}

	// the background refresh outlives the caller's ctx; Close stops it
	lifetime, cancel := context.WithCancel(context.WithoutCancel(ctx))

	remote, err := jwkset.NewStorageFromHTTP(cfg.URL, jwkset.HTTPClientStorageOptions{
		Client:              client,
		Ctx:                 lifetime,
		HTTPExpectedStatus:  http.StatusOK,
		HTTPMethod:          http.MethodGet,
		HTTPTimeout:         fetchTimeout,
		RefreshErrorHandler: cfg.RefreshErrorHandler,
		RefreshInterval:     ttl,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}

	storage, err := jwkset.NewHTTPClient(jwkset.HTTPClientOptions{
		HTTPURLs:          map[string]jwkset.Storage{cfg.URL: remote},
		RateLimitWaitMax:  unknownKIDWaitMax,
		RefreshUnknownKID: rate.NewLimiter(rate.Every(minRefresh), 1),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create key set client: %w", err)
	}

	kf, err := keyfunc.New(keyfunc.Options{
		Ctx:          lifetime,
		Storage:      storage,
		UseWhitelist: []jwkset.USE{jwkset.UseSig},
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create key func: %w", err)
	}

	k := &KeySet{storage: storage, keyfunc: kf, cancel: cancel}
	if k.Len(ctx) == 0 {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, ErrNoKeys)
	}
	return k, nil
}

// Key returns the verification key for token. A token without a key id
// resolves only when the set holds exactly one signing key.
func (k *KeySet) Key(ctx context.Context, token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return k.onlyKey(ctx)
	}

	key, err := k.keyfunc.KeyfuncCtx(ctx)(token)
	if err != nil {
		if errors.Is(err, jwkset.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %w (kid %q)", ErrKeyResolution, ErrUnknownKey, kid)
		}
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}
	return key, nil
}

func (k *KeySet) onlyKey(ctx context.Context) (any, error) {
	keys := k.signingKeys(ctx)
	if len(keys) != 1 {
		return nil, fmt.Errorf("%w: %w (token has no kid)", ErrKeyResolution, ErrUnknownKey)
	}
	return keys[0].Key(), nil
}

func (k *KeySet) signingKeys(ctx context.Context) []jwkset.JWK {
	all, err := k.storage.KeyReadAll(ctx)
	if err != nil {
		return nil
	}
	keys := make([]jwkset.JWK, 0, len(all))
	for _, jwk := range all {
		if use := jwk.Marshal().USE; use != "" && use != jwkset.UseSig {
			continue
		}
		keys = append(keys, jwk)
	}
	return keys
}

// Len returns the number of cached signing keys
func (k *KeySet) Len(ctx context.Context) int {
	return len(k.signingKeys(ctx))
}

// Close stops the background refresh
func (k *KeySet) Close() {
	k.cancel()
}
