package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when a plan request is received.
// Context carries the request context and its request ID.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Operations int // Operations planned, more than one for batches
	Duration   time.Duration
}
