package auth

import (
	"os"
	"path/filepath"
	"testing"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	return path
}

func TestCredentialStoreValidate(t *testing.T) {
	path := writeCredentials(t,
		"# test users\n"+
			FormatEntry("alice", "secret")+"\n"+
			"\n"+
			FormatEntry("bob", "hunter2")+"\n")

	store, err := NewCredentialStore(path, testLogger{})
	if err != nil {
		t.Fatalf("NewCredentialStore returned error: %v", err)
	}

	if store.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", store.Count())
	}
	if !store.Validate("alice", "secret") {
		t.Fatalf("expected alice/secret to validate")
	}
	if !store.Validate("bob", "hunter2") {
		t.Fatalf("expected bob/hunter2 to validate")
	}
	if store.Validate("alice", "wrong") {
		t.Fatalf("wrong password must not validate")
	}
	if store.Validate("mallory", "secret") {
		t.Fatalf("unknown user must not validate")
	}
}

func TestCredentialStoreSkipsMalformedLines(t *testing.T) {
	path := writeCredentials(t,
		FormatEntry("alice", "secret")+"\n"+
			"not-a-credential-line\n"+
			"too:many:fields\n")

	store, err := NewCredentialStore(path, testLogger{})
	if err != nil {
		t.Fatalf("NewCredentialStore returned error: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("expected malformed lines skipped, got %d entries", store.Count())
	}
	if !store.Validate("alice", "secret") {
		t.Fatalf("valid line must survive malformed neighbors")
	}
}

func TestCredentialStoreMissingFile(t *testing.T) {
	if _, err := NewCredentialStore(filepath.Join(t.TempDir(), "absent.txt"), testLogger{}); err == nil {
		t.Fatalf("expected error for missing credentials file")
	}
}

func TestCredentialStoreReload(t *testing.T) {
	path := writeCredentials(t, FormatEntry("alice", "secret")+"\n")
	store, err := NewCredentialStore(path, testLogger{})
	if err != nil {
		t.Fatalf("NewCredentialStore returned error: %v", err)
	}

	extra := FormatEntry("alice", "secret") + "\n" + FormatEntry("carol", "pass") + "\n"
	if err := os.WriteFile(path, []byte(extra), 0o600); err != nil {
		t.Fatalf("rewrite credentials: %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if store.Count() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", store.Count())
	}
	if !store.Validate("carol", "pass") {
		t.Fatalf("expected reloaded user to validate")
	}
}

func TestHashPasswordIsStableSHA256(t *testing.T) {
	// Digest of "secret"; the credential files in the field depend on it.
	const want = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	if got := HashPassword("secret"); got != want {
		t.Fatalf("unexpected digest: %s", got)
	}
}
