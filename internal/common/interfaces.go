package common

import (
	"context" // provides context for cancellation, deletion, update anything
	"io"
	"time"
)

// ChangeNotifier delivers payload-free "topic changed" signals.
// Delivery is at-least-once and unordered; the channel is closed once ctx is done.
type ChangeNotifier interface {
	Watch(ctx context.Context, topic Topic) (<-chan struct{}, error)
}

type Publisher interface {
	Publish(topic Topic)
}

// ObjectStore holds attachment bytes. Signed URLs are issued on demand and never persisted.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, content io.Reader) error
	SignURL(ctx context.Context, path string, ttl time.Duration) (url string, expiresAt time.Time, err error)
}
