package domain

import "context"

// SignalBus delivers raw signal payloads between processes. The scanner side
// publishes JSON-encoded BuySignals; the bot side subscribes and feeds them
// to the lifecycle manager.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe returns a channel of payloads. The channel is closed when
	// ctx is cancelled.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
