package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestWrapPreservesExistingKind(t *testing.T) {
	inner := New(KindLedger, "ledger.validate", "entry expired")
	wrapped := Wrap(KindTransport, "coap.ingest", "handler failed", inner)

	if wrapped.Kind != KindLedger {
		t.Fatalf("expected inner kind to win, got %s", wrapped.Kind)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(KindAuth, "op", "msg", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestIsKindWalksChain(t *testing.T) {
	base := New(KindAuth, "credentials.load", "file missing")
	outer := fmt.Errorf("bootstrap: %w", base)

	if !IsKind(outer, KindAuth) {
		t.Fatalf("expected KindAuth in chain")
	}
	if IsKind(outer, KindTransport) {
		t.Fatalf("did not expect KindTransport")
	}
	if IsKind(stderrors.New("plain"), KindAuth) {
		t.Fatalf("plain error should not match")
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(KindStorage, "sink.deliver", "insert failed", stderrors.New("disk full"))
	want := "[storage:sink.deliver] insert failed: disk full"
	if err.Error() != want {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}
