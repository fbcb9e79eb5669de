package cache

import (
	"context"
	"time"
)

// ContentTypeJSON is the content type every cached upstream body is tagged with.
const ContentTypeJSON = "application/json"

// Entry is one cached upstream response. Body is stored verbatim.
type Entry struct {
	Body        []byte
	ContentType string
}

// ResponseCache is the interface used by the handler.
// Implemented by memory cache (dev) and Redis cache (prod).
//
// Get reports a miss as (Entry{}, false, nil); a non-nil error means the
// store itself failed and callers treat it as a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
