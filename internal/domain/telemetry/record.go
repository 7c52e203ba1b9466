package telemetry

import (
	"fmt"
	"time"
)

// Record is one accepted telemetry submission. The payload stays opaque to
// the server: agents send a plain-text snapshot, sensors send JSON, and the
// sink stores whatever arrived.
type Record struct {
	ReceivedAt time.Time `json:"received_at"`
	Owner      string    `json:"owner"`
	ClientIP   string    `json:"client_ip"`
	ClientMAC  string    `json:"client_mac,omitempty"`
	Payload    string    `json:"payload"`
}

// FormatBlock renders the human-readable reception block the file sink
// appends. MAC falls back to "None" when resolution failed, matching the
// historical log format readers expect.
func (r Record) FormatBlock() string {
	mac := r.ClientMAC
	if mac == "" {
		mac = "None"
	}
	return fmt.Sprintf(
		"Reception date: %s\nClient IP: %s\nClient MAC: %s\nPayload:\n%s\n",
		r.ReceivedAt.Format(time.RFC3339Nano), r.ClientIP, mac, r.Payload,
	)
}
