package agent

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"telewatch-go/internal/domain/auth"
	platformerrors "telewatch-go/internal/platform/errors"
)

// Logger is the logging contract of the agent packages.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionOptions configures a SessionClient.
type SessionOptions struct {
	Transport Transport
	Username  string
	Password  string
	// TokenTTL is the client-side validity assumption for a cached token.
	// It should match the server's configured TTL.
	TokenTTL time.Duration
	// Timeout bounds every network round trip.
	Timeout time.Duration
	Logger  Logger
}

// SessionClient holds the agent's single-slot token cache and renews it
// reactively: the cache is consulted before every send, and an absent or
// expired token triggers a full authentication round trip. Concurrent
// renewals collapse into one exchange.
type SessionClient struct {
	transport Transport
	username  string
	password  string
	ttl       time.Duration
	timeout   time.Duration
	logger    Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	renew singleflight.Group
}

// NewSessionClient wires a session client.
func NewSessionClient(opts SessionOptions) (*SessionClient, error) {
	if opts.Transport == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "session.new", "session client requires a transport")
	}
	if opts.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "session.new", "session client requires a logger")
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SessionClient{
		transport: opts.Transport,
		username:  opts.Username,
		password:  opts.Password,
		ttl:       ttl,
		timeout:   timeout,
		logger:    opts.Logger,
	}, nil
}

// Token returns a currently-valid token, renewing if the cached one is absent
// or expired. A failed renewal leaves the cache empty, never stale.
func (c *SessionClient) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	// Discard the stale value before renewing.
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	value, err, _ := c.renew.Do("renew", func() (any, error) {
		rctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		token, err := c.transport.Authenticate(rctx, auth.EncodeBasic(c.username, c.password))
		if err != nil {
			return "", err
		}
		c.cache(token)
		c.logger.Debug("[AGENT] obtained new token")
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// cache stores the token with a fresh client-side expiry. Token and expiry
// always change together.
func (c *SessionClient) cache(token string) {
	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

// Cached reports the current cache content without triggering a renewal.
func (c *SessionClient) Cached() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.expiresAt
}

// Send delivers a payload under a valid token and re-caches whatever token
// the server echoed; the server may have replaced it.
func (c *SessionClient) Send(ctx context.Context, payload []byte) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	echoed, err := c.transport.Ingest(rctx, token, payload)
	if err != nil {
		// A rejected token means the server no longer knows it (restart,
		// early expiry). Drop it so the next cycle renews instead of
		// failing until the client-side TTL lapses.
		if platformerrors.IsKind(err, platformerrors.KindAuth) {
			c.mu.Lock()
			if c.token == token {
				c.token = ""
				c.expiresAt = time.Time{}
			}
			c.mu.Unlock()
		}
		return err
	}
	if echoed != "" && echoed != token {
		c.cache(echoed)
	}
	return nil
}
