package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus wraps the process event bus. Handlers run asynchronously so a slow
// subscriber never stalls a protocol handler.
type Bus struct {
	bus evbus.Bus
}

// New creates an event bus instance. Each server owns one; there is no
// package-level singleton.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// PublishRecordAccepted announces a record that reached the sink.
func (b *Bus) PublishRecordAccepted(evt RecordEvent) {
	b.bus.Publish(EventRecordAccepted, evt)
}

// PublishRecordRejected announces a submission that failed authorization or
// delivery.
func (b *Bus) PublishRecordRejected(evt RecordEvent) {
	b.bus.Publish(EventRecordRejected, evt)
}

// PublishTokenIssued announces a token issuance.
func (b *Bus) PublishTokenIssued(evt TokenEvent) {
	b.bus.Publish(EventTokenIssued, evt)
}

// SubscribeRecordAccepted registers an async handler for accepted records.
func (b *Bus) SubscribeRecordAccepted(fn func(RecordEvent)) error {
	return b.bus.SubscribeAsync(EventRecordAccepted, fn, false)
}

// SubscribeRecordRejected registers an async handler for rejected records.
func (b *Bus) SubscribeRecordRejected(fn func(RecordEvent)) error {
	return b.bus.SubscribeAsync(EventRecordRejected, fn, false)
}

// SubscribeTokenIssued registers an async handler for token issuances.
func (b *Bus) SubscribeTokenIssued(fn func(TokenEvent)) error {
	return b.bus.SubscribeAsync(EventTokenIssued, fn, false)
}

// Close waits for in-flight async handlers to drain.
func (b *Bus) Close() {
	b.bus.WaitAsync()
}
