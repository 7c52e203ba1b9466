package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTokenTTL  = time.Hour
	minSweepInterval = time.Second
)

// LedgerConfig tunes the token ledger.
type LedgerConfig struct {
	// TTL is how long an issued token stays valid.
	TTL time.Duration
	// Sweep enables a background pass removing already-expired entries, so
	// tokens that are never revalidated do not accumulate. Zero keeps
	// eviction purely lazy.
	Sweep time.Duration
}

type ledgerEntry struct {
	owner     string
	issuedAt  time.Time
	expiresAt time.Time
}

// TokenLedger is the process-wide mapping of live tokens to their owner and
// expiry. All mutation happens under the lock: an expired entry is removed
// the moment a validation observes it, never left behind for a later reaper
// to race over.
type TokenLedger struct {
	mu      sync.RWMutex
	entries map[string]ledgerEntry

	ttl      time.Duration
	sweep    time.Duration
	logger   Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTokenLedger builds a ledger with the given TTL and optional sweep.
func NewTokenLedger(cfg LedgerConfig, logger Logger) *TokenLedger {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	sweep := cfg.Sweep
	if sweep > 0 && sweep < minSweepInterval {
		sweep = minSweepInterval
	}
	l := &TokenLedger{
		entries: make(map[string]ledgerEntry),
		ttl:     ttl,
		sweep:   sweep,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	if sweep > 0 {
		go l.sweepLoop()
	}
	return l
}

func (l *TokenLedger) sweepLoop() {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			removed := l.evictExpired()
			if removed > 0 && l.logger != nil {
				l.logger.Debug("[AUTH] swept %d expired tokens", removed)
			}
		case <-l.stop:
			return
		}
	}
}

func (l *TokenLedger) evictExpired() int {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for value, e := range l.entries {
		if !now.Before(e.expiresAt) {
			delete(l.entries, value)
			removed++
		}
	}
	return removed
}

// Issue generates a fresh opaque token for the user and records it. It never
// fails: the value space makes collisions negligible, and issuance does not
// displace other live tokens for the same user.
func (l *TokenLedger) Issue(username string) Token {
	now := time.Now()
	token := Token{
		Value:     uuid.NewString(),
		Owner:     username,
		IssuedAt:  now,
		ExpiresAt: now.Add(l.ttl),
	}

	l.mu.Lock()
	l.entries[token.Value] = ledgerEntry{
		owner:     token.Owner,
		issuedAt:  token.IssuedAt,
		expiresAt: token.ExpiresAt,
	}
	l.mu.Unlock()
	return token
}

// Validate resolves a token value to its owner. An expired entry is deleted
// on observation and reported as invalid; a live entry is returned with its
// expiry untouched.
func (l *TokenLedger) Validate(value string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[value]
	if !ok {
		return "", false
	}
	if !time.Now().Before(e.expiresAt) {
		delete(l.entries, value)
		return "", false
	}
	return e.owner, true
}

// Len reports the number of ledger entries, expired stragglers included.
func (l *TokenLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Stats returns debug counters for the ops surface.
func (l *TokenLedger) Stats() map[string]any {
	now := time.Now()
	l.mu.RLock()
	defer l.mu.RUnlock()

	live := 0
	for _, e := range l.entries {
		if now.Before(e.expiresAt) {
			live++
		}
	}
	return map[string]any{
		"total":       len(l.entries),
		"live":        live,
		"ttl_seconds": int(l.ttl.Seconds()),
	}
}

// Close stops the background sweep, if any.
func (l *TokenLedger) Close() error {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	return nil
}
