package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	"github.com/hanpama/fedgraph/internal/introspection"
	"github.com/hanpama/fedgraph/internal/ir"
	planner "github.com/hanpama/fedgraph/internal/planner"
	reqid "github.com/hanpama/fedgraph/internal/reqid"
	schema "github.com/hanpama/fedgraph/internal/schema"
)

var testSubgraphs = []ir.InMemorySubgraph{
	{Name: "accounts", Content: `
		type Query { me: User }
		type User @key(fields: "id") { id: ID! name: String }
	`},
	{Name: "reviews", Content: `
		type User @key(fields: "id") { id: ID! reviews: [Review!]! }
		type Review { body: String }
		type Thing @key(fields: "id") { id: ID! x: Int @external y: Int @requires(fields: "x") }
	`},
	{Name: "things", Content: `
		type Query { thing: Thing }
		type Thing @key(fields: "id") { id: ID! y: Int @external x: Int @requires(fields: "y") }
	`},
}

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	sch, err := schema.BuildFromSubgraphs(context.Background(), testSubgraphs...)
	require.NoError(t, err, "schema")
	p, err := planner.New(introspection.Extend(sch))
	require.NoError(t, err, "planner")
	h, err := New(p, opts...)
	require.NoError(t, err, "handler")
	return h
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPlanEndpoint(t *testing.T) {
	h := newTestHandler(t)
	w := post(h, `{"query":"query Me { me { name reviews { body } } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	res := gjson.Parse(w.Body.String())
	require.False(t, res.Get("errors").Exists(), w.Body.String())
	plan := res.Get("data.plan")
	require.Equal(t, "Me", plan.Get("name").String())
	require.Equal(t, "query", plan.Get("kind").String())
	require.Equal(t, int64(2), plan.Get("partitions.#").Int())
	require.Equal(t, "fetch", plan.Get("partitions.0.kind").String())
	require.Equal(t, "accounts", plan.Get("partitions.0.subgraphName").String())
	require.Equal(t, "entityLookup", plan.Get("partitions.1.kind").String())
	require.Equal(t, "reviews", plan.Get("partitions.1.subgraphName").String())
	require.Equal(t, "User", plan.Get("partitions.1.entityType").String())
	require.Contains(t, plan.Get("partitions.1.document").String(), "_entities(representations: $representations)")
	require.Equal(t, `[{"from":0,"to":1}]`, plan.Get("schedule.edges").Raw)
	require.Equal(t, `[0,1]`, plan.Get("schedule.order").Raw)
}

func TestPlanEndpointGET(t *testing.T) {
	h := newTestHandler(t, WithPretty())
	q := url.Values{}
	q.Set("query", `query A { me { name } } query B($skip: Boolean!) { me { name reviews @skip(if: $skip) { body } } }`)
	q.Set("operationName", "B")
	q.Set("variables", `{"skip":true}`)
	req := httptest.NewRequest("GET", "/?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "\n  ", "pretty output")

	plan := gjson.Get(w.Body.String(), "data.plan")
	require.Equal(t, "B", plan.Get("name").String())
	require.Equal(t, int64(1), plan.Get("partitions.#").Int(), "skipped reviews need no lookup")
}

func TestBatch(t *testing.T) {
	h := newTestHandler(t)
	w := post(h, `[{"query":"{ me { name } }"},{"query":"{ me { "}]`)
	require.Equal(t, http.StatusOK, w.Code)

	res := gjson.Parse(w.Body.String())
	require.Equal(t, int64(2), res.Get("#").Int())
	require.True(t, res.Get("0.data.plan").Exists())
	require.Equal(t, "PARSE", res.Get("1.errors.0.extensions.class").String())
	require.True(t, res.Get("1.errors.0.locations.0.line").Exists())
}

func TestErrorClasses(t *testing.T) {
	h := newTestHandler(t)

	w := post(h, `{"query":"{ me { nickname } }"}`)
	res := gjson.Parse(w.Body.String())
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, res.Get("data").Exists())
	require.Equal(t, "VALIDATION", res.Get("errors.0.extensions.class").String())
	require.Equal(t, `Cannot query field "nickname" on type "User".`, res.Get("errors.0.message").String())
	require.Equal(t, int64(1), res.Get("errors.0.locations.0.line").Int())

	w = post(h, `{"query":"{ thing { x } }"}`)
	res = gjson.Parse(w.Body.String())
	require.Equal(t, "PLANNING", res.Get("errors.0.extensions.class").String())
	require.Equal(t, "RequirementCycleDetected", res.Get("errors.0.extensions.kind").String())
	require.Equal(t, `["Thing.x","Thing.y","Thing.x"]`, res.Get("errors.0.extensions.cycle").Raw)
	require.Equal(t, `["thing","x"]`, res.Get("errors.0.path").Raw)

	w = post(h, `{"query":"query($id: ID!) { me { id } }"}`)
	res = gjson.Parse(w.Body.String())
	require.Equal(t, "VALIDATION", res.Get("errors.0.extensions.class").String())
}

func TestRequestErrors(t *testing.T) {
	h := newTestHandler(t)

	for _, tc := range []struct {
		body    string
		message string
	}{
		{`{"query":""}`, "missing 'query'"},
		{`{`, "invalid JSON"},
		{`[]`, "empty batch"},
	} {
		w := post(h, tc.body)
		require.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		require.Equal(t, tc.message, gjson.Get(w.Body.String(), "errors.0.message").String())
		require.Equal(t, "REQUEST", gjson.Get(w.Body.String(), "errors.0.extensions.class").String())
	}

	req := httptest.NewRequest("PUT", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)

	req = httptest.NewRequest("POST", "/", bytes.NewBufferString(`query`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))

	// simple request
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ me { name } }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), "missing CORS header")

	// preflight
	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))

	restricted := newTestHandler(t, WithCORS("http://allowed.com"))
	req = httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ me { name } }"}`))
	req.Header.Set("Origin", "http://other.com")
	w = httptest.NewRecorder()
	restricted.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodyBytes(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(10))
	w := post(h, `{"query":"1234567890"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	prev := eventbus.Current()
	t.Cleanup(func() { eventbus.Use(prev) })
	eventbus.Use(eventbus.New())

	var started, finished []string
	var status, operations int
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPStart) {
		id, _ := reqid.FromContext(ctx)
		started = append(started, id)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		id, _ := reqid.FromContext(ctx)
		finished = append(finished, id)
		status = e.Status
		operations = e.Operations
	})
	var planned []string
	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		id, _ := reqid.FromContext(ctx)
		planned = append(planned, id)
	})

	h := newTestHandler(t)
	const given = "0b9f4c5e-3f0a-4e55-9a43-3b1f1e0d4c21"
	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ me { name } }"}`))
	req.Header.Set(reqid.Header, given)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, given, w.Header().Get(reqid.Header))
	require.Equal(t, []string{given}, started)
	require.Equal(t, []string{given}, finished)
	require.Equal(t, []string{given}, planned)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 1, operations)

	w = post(h, `{"query":"{ me { name } }"}`)
	generated := w.Header().Get(reqid.Header)
	require.NotEmpty(t, generated)
	require.NotEqual(t, given, generated)
	require.Equal(t, generated, finished[1])
}
