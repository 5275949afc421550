package identity

import (
	"context"
	"sync"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"golang.org/x/oauth2"
)

// TokenSource issues bearer tokens, clientcredentials.Config is the production implementation
type TokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// TokenCache keeps one bearer token per client and refreshes it once it gets within leeway of its expiry.
// Concurrent callers wait for a single refresh.
type TokenCache struct {
	source TokenSource
	leeway time.Duration
	now    func() time.Time

	mutex sync.Mutex
	token *oauth2.Token
}

func NewTokenCache(source TokenSource, leeway time.Duration) *TokenCache {
	return &TokenCache{source: source, leeway: leeway, now: time.Now}
}

// AccessToken returns a cached token or fetches a new one. Failures are classified as failure.SetupError.
func (c *TokenCache) AccessToken(ctx context.Context) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.fresh() {
		return c.token.AccessToken, nil
	}

	token, err := c.source.Token(ctx)
	if err != nil {
		return "", failure.Wrap(err, failure.SetupError, "acquiring bearer token")
	}

	if token == nil || token.AccessToken == "" {
		return "", failure.New(failure.SetupError, "token endpoint returned an empty access token")
	}

	c.token = token

	return token.AccessToken, nil
}

// Invalidate drops the cached token, the next call fetches a new one
func (c *TokenCache) Invalidate() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.token = nil
}

func (c *TokenCache) fresh() bool {
	if c.token == nil {
		return false
	}

	if c.token.Expiry.IsZero() {
		return true
	}

	return c.now().Add(c.leeway).Before(c.token.Expiry)
}
