package auth

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	platformerrors "telewatch-go/internal/platform/errors"
)

// CredentialStore holds the username -> password-hash mapping loaded from a
// line-oriented credentials file. Entries are never mutated by request
// handling; Reload swaps the whole mapping.
//
// Passwords are stored as unsalted sha256 hex digests. That matches the
// deployed credential files; changing the scheme invalidates every file in
// the field, so it stays as is.
type CredentialStore struct {
	path   string
	logger Logger

	mu    sync.RWMutex
	users map[string]string
}

// NewCredentialStore loads the credentials file at path. A missing or
// unreadable file is an error; malformed lines inside it are skipped with a
// warning.
func NewCredentialStore(path string, logger Logger) (*CredentialStore, error) {
	if logger == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "credentials.new", "credential store requires a logger")
	}
	s := &CredentialStore{
		path:   path,
		logger: logger,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the credentials file and atomically replaces the mapping.
func (s *CredentialStore) Reload() error {
	file, err := os.Open(s.path)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "credentials.load", "open credentials file", err)
	}
	defer file.Close()

	users := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			s.logger.Warn("[AUTH] ignoring invalid credential line: %s", line)
			continue
		}
		users[parts[0]] = parts[1]
	}
	if err := scanner.Err(); err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "credentials.load", "read credentials file", err)
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	s.logger.Debug("[AUTH] loaded %d credential entries", len(users))
	return nil
}

// Validate hashes the supplied password and compares it to the stored digest.
func (s *CredentialStore) Validate(username, password string) bool {
	s.mu.RLock()
	stored, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return stored == HashPassword(password)
}

// Count returns the number of loaded credential entries.
func (s *CredentialStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// HashPassword computes the hex sha256 digest the credentials file stores.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// FormatEntry renders a credentials-file line for the given pair; used by the
// provisioning tooling and tests.
func FormatEntry(username, password string) string {
	return fmt.Sprintf("%s:%s", username, HashPassword(password))
}
