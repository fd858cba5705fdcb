package fact

import (
	"context"
	"time"
)

// Fetcher performs one GET against the upstream and returns the raw response.
// HTTP error statuses are returned as responses, not errors.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Store persists a Fact and returns the key it generated for it.
type Store interface {
	Save(ctx context.Context, f Fact) (string, error)
}

// Publisher pushes save notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, n Notification) (string, error)
}

// Hasher computes digests of raw response bodies.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for the given duration or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// IDGenerator produces store keys.
type IDGenerator interface {
	NewID() (string, error)
}
