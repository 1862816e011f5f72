package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	reqid "github.com/hanpama/fedgraph/internal/reqid"
)

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestSpansFromEvents(t *testing.T) {
	prev := eventbus.Current()
	t.Cleanup(func() { eventbus.Use(prev) })
	eventbus.Use(eventbus.New())

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := register(tp.Tracer("test"))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background(), "")
	r := httptest.NewRequest("POST", "/graphql", nil)
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	eventbus.Publish(ctx, events.PlanStart{OperationName: "Top", OperationType: "query", Key: 1})
	eventbus.Publish(ctx, events.PlanFinish{OperationName: "Top", OperationType: "query", Key: 1, Cached: true, Partitions: 3})
	eventbus.Publish(ctx, events.PlanStart{OperationName: "Bad", OperationType: "query", Key: 2})
	eventbus.Publish(ctx, events.PlanFinish{OperationName: "Bad", OperationType: "query", Key: 2, Err: errors.New("boom")})
	eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: 200, Operations: 2})

	ended := rec.Ended()
	require.Len(t, ended, 3)

	top, bad, req := ended[0], ended[1], ended[2]
	require.Equal(t, "graphql.plan", top.Name())
	require.Equal(t, "Top", attr(top, "graphql.operation.name").AsString())
	require.True(t, attr(top, "fedgraph.plan.cached").AsBool())
	require.Equal(t, int64(3), attr(top, "fedgraph.plan.partitions").AsInt64())
	require.Equal(t, "1", attr(top, "fedgraph.plan.key").AsString())

	require.Equal(t, codes.Error, bad.Status().Code)

	require.Equal(t, "http.request", req.Name())
	require.Equal(t, req.SpanContext().SpanID(), top.Parent().SpanID())
	require.Equal(t, req.SpanContext().TraceID(), bad.SpanContext().TraceID())
	require.Equal(t, int64(200), attr(req, "http.status_code").AsInt64())
	require.Equal(t, int64(2), attr(req, "fedgraph.operations").AsInt64())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "svc")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
