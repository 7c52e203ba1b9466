package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	platformerrors "telewatch-go/internal/platform/errors"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// fakeTransport counts exchanges and scripts their outcome.
type fakeTransport struct {
	mu          sync.Mutex
	authCalls   atomic.Int64
	ingestCalls atomic.Int64
	authErr     error
	ingestErr   error
	nextToken   string
	echoToken   string
	slowAuth    time.Duration
	lastPayload []byte
	lastToken   string
}

func (f *fakeTransport) Authenticate(ctx context.Context, _ string) (string, error) {
	f.authCalls.Add(1)
	if f.slowAuth > 0 {
		select {
		case <-time.After(f.slowAuth):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.authErr != nil {
		return "", f.authErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nextToken == "" {
		f.nextToken = "token-1"
	}
	return f.nextToken, nil
}

func (f *fakeTransport) Ingest(_ context.Context, token string, payload []byte) (string, error) {
	f.ingestCalls.Add(1)
	if f.ingestErr != nil {
		return "", f.ingestErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastToken = token
	f.lastPayload = payload
	if f.echoToken != "" {
		return f.echoToken, nil
	}
	return token, nil
}

func newSession(t *testing.T, transport Transport, ttl time.Duration) *SessionClient {
	t.Helper()
	client, err := NewSessionClient(SessionOptions{
		Transport: transport,
		Username:  "alice",
		Password:  "secret",
		TokenTTL:  ttl,
		Timeout:   time.Second,
		Logger:    testLogger{},
	})
	if err != nil {
		t.Fatalf("NewSessionClient: %v", err)
	}
	return client
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A"}
	client := newSession(t, transport, time.Minute)

	first, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	second, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if first != "token-A" || second != "token-A" {
		t.Fatalf("unexpected tokens: %q, %q", first, second)
	}
	if transport.authCalls.Load() != 1 {
		t.Fatalf("expected single auth round trip, got %d", transport.authCalls.Load())
	}
}

func TestTokenRenewedAfterExpiry(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A"}
	client := newSession(t, transport, 20*time.Millisecond)

	if _, err := client.Token(context.Background()); err != nil {
		t.Fatalf("Token: %v", err)
	}
	time.Sleep(40 * time.Millisecond)

	transport.mu.Lock()
	transport.nextToken = "token-B"
	transport.mu.Unlock()

	token, err := client.Token(context.Background())
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if token != "token-B" {
		t.Fatalf("expected renewed token, got %q", token)
	}
	if transport.authCalls.Load() != 2 {
		t.Fatalf("expected two auth round trips, got %d", transport.authCalls.Load())
	}
}

func TestFailedRenewalLeavesCacheEmpty(t *testing.T) {
	transport := &fakeTransport{authErr: errors.New("server unreachable")}
	client := newSession(t, transport, time.Minute)

	if _, err := client.Token(context.Background()); err == nil {
		t.Fatalf("expected renewal failure")
	}
	token, expiry := client.Cached()
	if token != "" || !expiry.IsZero() {
		t.Fatalf("failed renewal must leave cache empty, got %q/%v", token, expiry)
	}
}

func TestConcurrentRenewalsShareOneRoundTrip(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A", slowAuth: 30 * time.Millisecond}
	client := newSession(t, transport, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.Token(context.Background()); err != nil {
				t.Errorf("Token: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := transport.authCalls.Load(); calls != 1 {
		t.Fatalf("expected renewals to collapse into one exchange, got %d", calls)
	}
}

func TestSendAttachesTokenAndRecachesEcho(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A", echoToken: "token-B"}
	client := newSession(t, transport, time.Minute)

	if err := client.Send(context.Background(), []byte("snapshot")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if transport.lastToken != "token-A" {
		t.Fatalf("expected send under cached token, got %q", transport.lastToken)
	}
	if string(transport.lastPayload) != "snapshot" {
		t.Fatalf("payload not attached: %q", transport.lastPayload)
	}

	// The echoed replacement becomes the cached token for the next cycle.
	cached, _ := client.Cached()
	if cached != "token-B" {
		t.Fatalf("echoed token not cached, got %q", cached)
	}
}

func TestSendDropsTokenRejectedByServer(t *testing.T) {
	transport := &fakeTransport{
		nextToken: "token-A",
		ingestErr: platformerrors.New(platformerrors.KindAuth, "agent.ingest", "token rejected"),
	}
	client := newSession(t, transport, time.Minute)

	if err := client.Send(context.Background(), []byte("snapshot")); err == nil {
		t.Fatalf("expected rejection to surface")
	}
	if token, _ := client.Cached(); token != "" {
		t.Fatalf("rejected token must be dropped, got %q", token)
	}

	// The next send renews and goes through.
	transport.ingestErr = nil
	if err := client.Send(context.Background(), []byte("snapshot")); err != nil {
		t.Fatalf("Send after renewal: %v", err)
	}
	if transport.authCalls.Load() != 2 {
		t.Fatalf("expected a reactive renewal, got %d auth calls", transport.authCalls.Load())
	}
}

func TestSendPropagatesTransportFailure(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A", ingestErr: errors.New("timeout")}
	client := newSession(t, transport, time.Minute)

	if err := client.Send(context.Background(), []byte("snapshot")); err == nil {
		t.Fatalf("expected transport failure to surface")
	}
}
