package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	platformerrors "telewatch-go/internal/platform/errors"
)

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Credentials *CredentialStore
	Ledger      *TokenLedger
	Logger      Logger
}

// Manager bundles the credential store and the token ledger behind the two
// decisions the protocol handlers need: "issue a token for these
// credentials" and "which owner does this request speak for".
type Manager struct {
	credentials *CredentialStore
	ledger      *TokenLedger
	logger      Logger
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Credentials == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "manager.new", "auth manager requires a credential store")
	}
	if opts.Ledger == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "manager.new", "auth manager requires a token ledger")
	}
	if opts.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindAuth, "manager.new", "auth manager requires a logger")
	}
	return &Manager{
		credentials: opts.Credentials,
		ledger:      opts.Ledger,
		logger:      opts.Logger,
	}, nil
}

// EncodeBasic renders the Authorization bundle a client sends.
func EncodeBasic(username, password string) string {
	payload := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return "Basic " + payload
}

// decodeBasic extracts the username/password pair from an Authorization
// bundle. Any malformed input yields an error; callers treat that the same
// as bad credentials.
func decodeBasic(bundle string) (string, string, error) {
	fields := strings.Fields(bundle)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("malformed authorization bundle")
	}
	decoded, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return "", "", fmt.Errorf("decode authorization bundle: %w", err)
	}
	parts := strings.Split(string(decoded), ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("malformed credential pair")
	}
	return parts[0], parts[1], nil
}

// AuthenticateBasic validates an Authorization bundle against the credential
// store and, on success, issues a fresh token.
func (m *Manager) AuthenticateBasic(bundle string) (Token, bool) {
	username, password, err := decodeBasic(bundle)
	if err != nil {
		m.logger.Debug("[AUTH] rejected malformed authorization bundle: %v", err)
		return Token{}, false
	}
	if !m.credentials.Validate(username, password) {
		m.logger.Debug("[AUTH] rejected credentials for user %q", username)
		return Token{}, false
	}
	token := m.ledger.Issue(username)
	m.logger.Debug("[AUTH] issued token for user %q", username)
	return token, true
}

// Resolve decides the identity behind an ingest request. The token option
// wins when it validates; otherwise a present Authorization bundle is tried,
// issuing a brand-new token on success. The returned token value is what the
// handler echoes back to the caller.
func (m *Manager) Resolve(tokenValue, authBundle string) (owner string, echoToken string, ok bool) {
	if tokenValue != "" {
		if owner, valid := m.ledger.Validate(tokenValue); valid {
			return owner, tokenValue, true
		}
	}
	if authBundle != "" {
		if token, valid := m.AuthenticateBasic(authBundle); valid {
			return token.Owner, token.Value, true
		}
		return "", "", false
	}
	return "", "", false
}

// Ledger exposes the ledger for the ops surface.
func (m *Manager) Ledger() *TokenLedger {
	return m.ledger
}

// Credentials exposes the credential store for the ops surface.
func (m *Manager) Credentials() *CredentialStore {
	return m.credentials
}

// Close releases ledger resources.
func (m *Manager) Close() error {
	return m.ledger.Close()
}
