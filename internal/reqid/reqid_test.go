package reqid

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background(), "")
	require.NotEmpty(t, id)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok, "unexpected id in empty context")

	_, other := NewContext(context.Background(), "")
	require.NotEqual(t, id, other)
}

func TestContextKeepsGivenID(t *testing.T) {
	ctx, id := NewContext(context.Background(), "given")
	require.Equal(t, "given", id)
	got, _ := FromContext(ctx)
	require.Equal(t, "given", got)
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	require.Empty(t, FromRequest(r))

	r.Header.Set(Header, "not a uuid")
	require.Empty(t, FromRequest(r))

	r.Header.Set(Header, "0b9f4c5e-3f0a-4e55-9a43-3b1f1e0d4c21")
	require.Equal(t, "0b9f4c5e-3f0a-4e55-9a43-3b1f1e0d4c21", FromRequest(r))
}
