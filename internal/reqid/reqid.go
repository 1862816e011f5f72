package reqid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header carries the request ID between the client and the gateway.
const Header = "X-Request-Id"

// key is the context key for the request ID.
type key struct{}

// NewContext returns a copy of parent with id stored. An empty id is
// replaced with a fresh random one. It also returns the stored ID.
func NewContext(parent context.Context, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the request ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok
}

// FromRequest returns the ID sent in the request header, or "" when it is
// missing or not a UUID.
func FromRequest(r *http.Request) string {
	v := r.Header.Get(Header)
	if _, err := uuid.Parse(v); err != nil {
		return ""
	}
	return v
}
