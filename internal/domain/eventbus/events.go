package eventbus

import "time"

// Topics published on the server bus.
const (
	EventRecordAccepted = "telemetry:record_accepted"
	EventRecordRejected = "telemetry:record_rejected"
	EventTokenIssued    = "auth:token_issued"
)

// RecordEvent describes an accepted or rejected telemetry submission.
type RecordEvent struct {
	Owner      string    `json:"owner"`
	ClientIP   string    `json:"client_ip"`
	ClientMAC  string    `json:"client_mac,omitempty"`
	Bytes      int       `json:"bytes"`
	ReceivedAt time.Time `json:"received_at"`
	Reason     string    `json:"reason,omitempty"`
}

// TokenEvent describes a token issuance.
type TokenEvent struct {
	Owner    string    `json:"owner"`
	IssuedAt time.Time `json:"issued_at"`
}
