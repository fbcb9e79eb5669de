package upstream

import (
	"context"
	"errors"
	"fmt"
)

// Request is the payload forwarded to the orchestration service.
type Request struct {
	Topic    string `json:"topic"`
	Language string `json:"language"`
	Geo      string `json:"geo"`
}

// Response is a successful (2xx) upstream reply. Body is the raw payload.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// ErrTimeout is returned when the call deadline elapsed before completion.
var ErrTimeout = fmt.Errorf("upstream: call timed out: %w", context.DeadlineExceeded)

// StatusError is returned when upstream answered with a non-2xx status.
type StatusError struct {
	Status int
	Detail string // first MaxDetailChars characters of the body, may be empty
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream: status %d", e.Status)
	}
	return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Detail)
}

// IsTimeout reports whether err is an upstream deadline failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
