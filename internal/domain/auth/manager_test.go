package auth

import (
	"encoding/base64"
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	path := writeCredentials(t, FormatEntry("alice", "secret")+"\n")
	creds, err := NewCredentialStore(path, testLogger{})
	if err != nil {
		t.Fatalf("NewCredentialStore: %v", err)
	}
	ledger := NewTokenLedger(LedgerConfig{TTL: ttl}, testLogger{})
	mgr, err := NewManager(Options{Credentials: creds, Ledger: ledger, Logger: testLogger{}})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestAuthenticateBasicIssuesToken(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	tok, ok := mgr.AuthenticateBasic(EncodeBasic("alice", "secret"))
	if !ok {
		t.Fatalf("expected authentication to succeed")
	}
	if tok.Owner != "alice" || tok.Value == "" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if owner, ok := mgr.Ledger().Validate(tok.Value); !ok || owner != "alice" {
		t.Fatalf("issued token must validate against the ledger")
	}
}

func TestAuthenticateBasicRejections(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	cases := []struct {
		name   string
		bundle string
	}{
		{"wrong password", EncodeBasic("alice", "wrong")},
		{"unknown user", EncodeBasic("mallory", "secret")},
		{"missing scheme", base64.StdEncoding.EncodeToString([]byte("alice:secret"))},
		{"bad base64", "Basic !!!not-base64!!!"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("alicesecret"))},
		{"extra colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:sec:ret"))},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := mgr.AuthenticateBasic(tc.bundle); ok {
				t.Fatalf("expected rejection")
			}
		})
	}
	if mgr.Ledger().Len() != 0 {
		t.Fatalf("rejected attempts must not touch the ledger, got %d entries", mgr.Ledger().Len())
	}
}

func TestResolvePrefersValidToken(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	tok, _ := mgr.AuthenticateBasic(EncodeBasic("alice", "secret"))
	before := mgr.Ledger().Len()

	owner, echo, ok := mgr.Resolve(tok.Value, EncodeBasic("alice", "secret"))
	if !ok || owner != "alice" {
		t.Fatalf("expected token path to win, got %q/%v", owner, ok)
	}
	if echo != tok.Value {
		t.Fatalf("token path must echo the same token")
	}
	if mgr.Ledger().Len() != before {
		t.Fatalf("token path must not issue new tokens")
	}
}

func TestResolveCredentialFallbackIssuesFreshToken(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	tok, _ := mgr.AuthenticateBasic(EncodeBasic("alice", "secret"))

	owner, echo, ok := mgr.Resolve("stale-token", EncodeBasic("alice", "secret"))
	if !ok || owner != "alice" {
		t.Fatalf("expected credential fallback to succeed")
	}
	if echo == tok.Value || echo == "" {
		t.Fatalf("fallback must issue a brand-new token")
	}
	// Both tokens are now live; no single-session enforcement.
	if mgr.Ledger().Len() != 2 {
		t.Fatalf("expected 2 live tokens, got %d", mgr.Ledger().Len())
	}
}

func TestResolveRejections(t *testing.T) {
	mgr := newTestManager(t, time.Minute)

	if _, _, ok := mgr.Resolve("garbage", ""); ok {
		t.Fatalf("invalid token without fallback must be rejected")
	}
	if _, _, ok := mgr.Resolve("", ""); ok {
		t.Fatalf("empty request must be rejected")
	}
	if _, _, ok := mgr.Resolve("garbage", EncodeBasic("alice", "wrong")); ok {
		t.Fatalf("invalid token with bad credentials must be rejected")
	}
}

func TestResolveExpiredTokenFallsBack(t *testing.T) {
	mgr := newTestManager(t, 20*time.Millisecond)

	tok, _ := mgr.AuthenticateBasic(EncodeBasic("alice", "secret"))
	time.Sleep(40 * time.Millisecond)

	owner, echo, ok := mgr.Resolve(tok.Value, EncodeBasic("alice", "secret"))
	if !ok || owner != "alice" {
		t.Fatalf("expected fallback after expiry")
	}
	if echo == tok.Value {
		t.Fatalf("expired token must not be echoed")
	}
}

func TestNewManagerRequiresDependencies(t *testing.T) {
	if _, err := NewManager(Options{}); err == nil {
		t.Fatalf("expected error for missing dependencies")
	}
}
