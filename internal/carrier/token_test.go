package carrier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCacheSingleExchangeUnderBurst(t *testing.T) {
	var exchanges atomic.Int64
	cache := &tokenCache{}
	exchange := func(ctx context.Context) (string, time.Time, error) {
		exchanges.Add(1)
		time.Sleep(10 * time.Millisecond) // hold the flight open for the burst
		return "tok-1", time.Now().Add(time.Hour), nil
	}

	const callers = 20
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := cache.get(context.Background(), exchange)
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), exchanges.Load())
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestTokenCacheReusesUntilSkewWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := &tokenCache{now: func() time.Time { return now }}

	var exchanges int
	exchange := func(ctx context.Context) (string, time.Time, error) {
		exchanges++
		return "tok", now.Add(5 * time.Minute), nil
	}

	_, err := cache.get(context.Background(), exchange)
	require.NoError(t, err)
	_, err = cache.get(context.Background(), exchange)
	require.NoError(t, err)
	assert.Equal(t, 1, exchanges)

	// Inside the skew window the cached token no longer counts as valid.
	now = now.Add(5*time.Minute - tokenExpirySkew + time.Second)
	_, err = cache.get(context.Background(), exchange)
	require.NoError(t, err)
	assert.Equal(t, 2, exchanges)
}

func TestTokenCacheExchangeFailure(t *testing.T) {
	cache := &tokenCache{}
	wantErr := errors.New("401 from provider")
	_, err := cache.get(context.Background(), func(ctx context.Context) (string, time.Time, error) {
		return "", time.Time{}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// A failed exchange caches nothing; the next call exchanges again.
	tok, err := cache.get(context.Background(), func(ctx context.Context) (string, time.Time, error) {
		return "tok-2", time.Now().Add(time.Hour), nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}
