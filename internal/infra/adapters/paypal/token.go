package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"paypal-relay/internal/config"
)

// TokenStore is the slice of the Redis client the shared token cache needs.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Sealer encrypts cached tokens at rest.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(sealed string) (string, error)
}

// SealTokenStore wraps store so tokens never reach the cache in clear text.
// Entries that fail to decrypt read as errors, so the token is fetched again.
func SealTokenStore(store TokenStore, sealer Sealer) TokenStore {
	return &sealedTokenStore{store: store, sealer: sealer}
}

type sealedTokenStore struct {
	store  TokenStore
	sealer Sealer
}

func (s *sealedTokenStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if err != nil || v == "" {
		return v, err
	}
	return s.sealer.Decrypt(v)
}

func (s *sealedTokenStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	plain, ok := value.(string)
	if !ok {
		return fmt.Errorf("sealed token store: unsupported value %T", value)
	}
	sealed, err := s.sealer.Encrypt(plain)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, sealed, expiration)
}

const (
	tokenEarlyExpiry = time.Minute
	tokenCacheOpTTL  = 2 * time.Second
)

func tokenKey(cfg config.PayPalConfig) string {
	return "paypal:token:" + cfg.Mode + ":" + cfg.ClientID
}

// sharedTokenSource lets every relay replica reuse one PayPal access token.
// Cache failures are logged and fall through to the provider.
type sharedTokenSource struct {
	store TokenStore
	key   string
	inner oauth2.TokenSource
	log   *zerolog.Logger
	now   func() time.Time
}

func newSharedTokenSource(store TokenStore, key string, inner oauth2.TokenSource, logger *zerolog.Logger) *sharedTokenSource {
	return &sharedTokenSource{store: store, key: key, inner: inner, log: logger, now: time.Now}
}

type cachedToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry"`
}

func (s *sharedTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), tokenCacheOpTTL)
	defer cancel()

	if v, err := s.store.Get(ctx, s.key); err == nil && v != "" {
		var ct cachedToken
		if err := json.Unmarshal([]byte(v), &ct); err == nil && ct.Expiry.After(s.now().Add(tokenEarlyExpiry)) {
			return &oauth2.Token{AccessToken: ct.AccessToken, TokenType: ct.TokenType, Expiry: ct.Expiry}, nil
		}
	}

	tok, err := s.inner.Token()
	if err != nil {
		return nil, err
	}

	ttl := tok.Expiry.Sub(s.now()) - tokenEarlyExpiry
	if tok.Expiry.IsZero() || ttl <= 0 {
		return tok, nil
	}
	b, _ := json.Marshal(cachedToken{AccessToken: tok.AccessToken, TokenType: tok.TokenType, Expiry: tok.Expiry})
	if err := s.store.Set(ctx, s.key, string(b), ttl); err != nil {
		s.log.Warn().Err(err).Msg("paypal token cache write failed")
	}
	return tok, nil
}
