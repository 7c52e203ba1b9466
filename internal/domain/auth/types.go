package auth

import "time"

// Token is an opaque, time-bounded proof of authenticated identity. Its
// value is the only thing that travels on the wire; owner and expiry live in
// the ledger.
type Token struct {
	Value     string    `json:"value"`
	Owner     string    `json:"owner"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
