package carrier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// tokenExpirySkew renews tokens slightly before the provider-reported
// expiry so an in-flight request never rides an expiring token.
const tokenExpirySkew = 30 * time.Second

type exchangeFunc func(ctx context.Context) (token string, expiry time.Time, err error)

// tokenCache holds one adapter instance's bearer token. Concurrent
// refreshes collapse into a single exchange via singleflight: during a
// burst at expiry, exactly one network call happens and every waiter
// shares its result.
type tokenCache struct {
	mu     sync.Mutex
	group  singleflight.Group
	token  string
	expiry time.Time

	now func() time.Time // test hook
}

func (c *tokenCache) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *tokenCache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.clock().Before(c.expiry.Add(-tokenExpirySkew)) {
		return c.token, true
	}
	return "", false
}

func (c *tokenCache) store(token string, expiry time.Time) {
	c.mu.Lock()
	c.token = token
	c.expiry = expiry
	c.mu.Unlock()
}

// get returns a valid token, exchanging credentials at most once no
// matter how many callers race through an expiry.
func (c *tokenCache) get(ctx context.Context, exchange exchangeFunc) (string, error) {
	if tok, ok := c.cached(); ok {
		return tok, nil
	}
	v, err, _ := c.group.Do("exchange", func() (any, error) {
		// A waiter queued behind the winning exchange re-checks the
		// cache instead of exchanging again.
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		tok, expiry, err := exchange(ctx)
		if err != nil {
			return nil, err
		}
		c.store(tok, expiry)
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
