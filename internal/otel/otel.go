package otel

import (
	"context"
	"strconv"
	"sync"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	reqid "github.com/hanpama/fedgraph/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := register(tp.Tracer("fedgraph"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

type planSpanKey struct {
	rid string
	key uint64
}

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	planSpans sync.Map // planSpanKey -> trace.Span
}

// register subscribes span handlers on the global bus.
func register(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.Subscribe(s.httpStart),
		eventbus.Subscribe(s.httpFinish),
		eventbus.Subscribe(s.planStart),
		eventbus.Subscribe(s.planFinish),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("request.id", rid),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		semconv.HTTPStatusCodeKey.Int(e.Status),
		attribute.Int("fedgraph.operations", e.Operations),
	)
	if e.Status >= 500 {
		span.SetStatus(codes.Error, strconv.Itoa(e.Status))
	}
	span.End()
}

func (s *subscriber) planStart(ctx context.Context, e events.PlanStart) {
	rid, _ := reqid.FromContext(ctx)
	parent := ctx
	if v, ok := s.httpSpans.Load(rid); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "graphql.plan")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
		attribute.String("fedgraph.plan.key", strconv.FormatUint(e.Key, 16)),
	)
	s.planSpans.Store(planSpanKey{rid: rid, key: e.Key}, span)
}

func (s *subscriber) planFinish(ctx context.Context, e events.PlanFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.planSpans.LoadAndDelete(planSpanKey{rid: rid, key: e.Key})
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Bool("fedgraph.plan.cached", e.Cached),
		attribute.Bool("fedgraph.plan.shared", e.Shared),
		attribute.Int("fedgraph.plan.partitions", e.Partitions),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}
