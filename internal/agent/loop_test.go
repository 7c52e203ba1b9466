package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"telewatch-go/internal/platform/config"
)

func newLoopFixture(t *testing.T, transport Transport, policy string) (*TelemetryLoop, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "agent.log")
	if err := os.WriteFile(logPath, []byte("cycle content\n"), 0o600); err != nil {
		t.Fatalf("write log: %v", err)
	}

	session := newSession(t, transport, time.Minute)
	loop := NewLoop(LoopOptions{
		Harvester:    NewHarvester([]string{logPath}, "", testLogger{}),
		Session:      session,
		Rotator:      NewRotator([]string{logPath}, testLogger{}),
		Period:       time.Hour,
		RotatePolicy: policy,
		Logger:       testLogger{},
	})
	return loop, logPath
}

func TestCycleSendsHarvestedPayload(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A"}
	loop, _ := newLoopFixture(t, transport, config.RotateAlways)

	loop.Cycle(context.Background())

	if transport.ingestCalls.Load() != 1 {
		t.Fatalf("expected one ingest, got %d", transport.ingestCalls.Load())
	}
	payload := string(transport.lastPayload)
	for _, want := range []string{"Timestamp: ", "Logs:", "cycle content"} {
		if !strings.Contains(payload, want) {
			t.Fatalf("payload missing %q:\n%s", want, payload)
		}
	}
}

func TestCycleRotatesAfterSuccess(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A"}
	loop, logPath := newLoopFixture(t, transport, config.RotateOnSuccess)

	loop.Cycle(context.Background())

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("log not rotated after successful send")
	}
}

func TestCycleOnSuccessKeepsLogsAfterFailure(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A", ingestErr: errors.New("timeout")}
	loop, logPath := newLoopFixture(t, transport, config.RotateOnSuccess)

	loop.Cycle(context.Background())

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != "cycle content\n" {
		t.Fatalf("on_success policy must keep logs after a failed send, got %q", data)
	}
}

func TestCycleAlwaysRotatesDespiteFailure(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A", ingestErr: errors.New("timeout")}
	loop, logPath := newLoopFixture(t, transport, config.RotateAlways)

	loop.Cycle(context.Background())

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("always policy must rotate even after a failed send")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	transport := &fakeTransport{nextToken: "token-A"}
	loop, _ := newLoopFixture(t, transport, config.RotateAlways)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop on cancel")
	}
}
