package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type countingSource struct {
	mutex  sync.Mutex
	calls  int
	expiry time.Time
	err    error
}

func (s *countingSource) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	return &oauth2.Token{AccessToken: "token", Expiry: s.expiry}, nil
}

func TestTokenCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("refresh happens within leeway", func(t *testing.T) {
		source := &countingSource{expiry: now.Add(time.Minute)}
		cache := NewTokenCache(source, time.Second*30)
		cache.now = func() time.Time { return now }

		_, err := cache.AccessToken(ctx)
		require.NoError(t, err)
		_, err = cache.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, source.calls)

		cache.now = func() time.Time { return now.Add(time.Second * 31) }
		_, err = cache.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, source.calls)
	})

	t.Run("token without expiry never refreshes until invalidated", func(t *testing.T) {
		source := &countingSource{}
		cache := NewTokenCache(source, time.Second)

		for i := 0; i < 3; i++ {
			_, err := cache.AccessToken(ctx)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, source.calls)

		cache.Invalidate()
		_, err := cache.AccessToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, source.calls)
	})

	t.Run("concurrent callers share a refresh", func(t *testing.T) {
		source := &countingSource{}
		cache := NewTokenCache(source, time.Second)

		wg := sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := cache.AccessToken(ctx)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, source.calls)
	})

	t.Run("source failure is a setup error", func(t *testing.T) {
		cache := NewTokenCache(&countingSource{err: errors.New("invalid_client")}, time.Second)

		_, err := cache.AccessToken(ctx)
		require.Error(t, err)
		assert.True(t, failure.Is(err, failure.SetupError))
		assert.Contains(t, err.Error(), "invalid_client")
	})
}
