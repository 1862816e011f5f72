package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jensneuse/abstractlogger"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	"github.com/hanpama/fedgraph/internal/introspection"
	"github.com/hanpama/fedgraph/internal/ir"
	language "github.com/hanpama/fedgraph/internal/language"
	operation "github.com/hanpama/fedgraph/internal/operation"
	schema "github.com/hanpama/fedgraph/internal/schema"
	solver "github.com/hanpama/fedgraph/internal/solver"
)

const accountsSDL = `
type Query { me: User users: [User!]! }
type User @key(fields: "id") { id: ID! name: String }
`

const reviewsSDL = `
type Query { latestReviews: [Review!]! }
type User @key(fields: "id") { id: ID! reviews: [Review!]! }
type Review { body: String }
`

func buildSchema(t *testing.T, subgraphs ...ir.InMemorySubgraph) *schema.Schema {
	t.Helper()
	if len(subgraphs) == 0 {
		subgraphs = []ir.InMemorySubgraph{
			{Name: "accounts", Content: accountsSDL},
			{Name: "reviews", Content: reviewsSDL},
		}
	}
	s, err := schema.BuildFromSubgraphs(context.Background(), subgraphs...)
	require.NoError(t, err)
	return introspection.Extend(s)
}

func cycleSchema(t *testing.T) *schema.Schema {
	return buildSchema(t,
		ir.InMemorySubgraph{Name: "a", Content: `
			type Query { thing: Thing }
			type Thing @key(fields: "id") { id: ID! y: Int @external x: Int @requires(fields: "y") }
		`},
		ir.InMemorySubgraph{Name: "b", Content: `
			type Thing @key(fields: "id") { id: ID! x: Int @external y: Int @requires(fields: "x") }
		`},
	)
}

func bind(t *testing.T, s *schema.Schema, query string) *operation.Operation {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	op, err := operation.Bind(s, doc, "", nil)
	require.NoError(t, err)
	return op
}

func newPlanner(t *testing.T, s *schema.Schema, opts ...Option) *Planner {
	t.Helper()
	p, err := New(s, opts...)
	require.NoError(t, err)
	return p
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) levels(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

func (l *recordingLogger) Debug(msg string, _ ...abstractlogger.Field) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...abstractlogger.Field)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...abstractlogger.Field)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...abstractlogger.Field) { l.record("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...abstractlogger.Field) { l.record("fatal", msg) }
func (l *recordingLogger) Panic(msg string, _ ...abstractlogger.Field) { l.record("panic", msg) }

func (l *recordingLogger) LevelLogger(abstractlogger.Level) abstractlogger.Logger { return l }

func TestPlanCachesByCanonicalText(t *testing.T) {
	s := buildSchema(t)
	log := &recordingLogger{}
	p := newPlanner(t, s, WithLogger(log))

	first, err := p.Plan(context.Background(), bind(t, s, `{ me { name reviews { body } } }`))
	require.NoError(t, err)

	second, err := p.Plan(context.Background(), bind(t, s, `
		{ ...Me }
		fragment Me on Query { me { name } me { reviews { body } } }
	`))
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, Stats{Hits: 1, Misses: 1, Cached: 1}, p.Stats())
	require.Len(t, log.levels("debug"), 1)

	third, err := p.Plan(context.Background(), bind(t, s, `{ me { name } }`))
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, Stats{Hits: 1, Misses: 2, Cached: 2}, p.Stats())

	p.Purge()
	require.Equal(t, 0, p.Stats().Cached)
}

func TestPlanKeyDependsOnSchemaVersion(t *testing.T) {
	a := buildSchema(t)
	b := buildSchema(t, ir.InMemorySubgraph{Name: "accounts", Content: accountsSDL})
	require.NotEqual(t, a.Version, b.Version)

	const query = `{ me { name } }`
	pa := newPlanner(t, a)
	pb := newPlanner(t, b)
	require.NotEqual(t, pa.Key(bind(t, a, query)), pb.Key(bind(t, b, query)))
	require.Equal(t, pa.Key(bind(t, a, query)), pa.Key(bind(t, a, `query { me { name } }`)))
}

func TestPlanDedupesConcurrentSolves(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := buildSchema(t)
	p := newPlanner(t, s)

	const callers = 16
	ops := make([]*operation.Operation, callers)
	for i := range ops {
		ops[i] = bind(t, s, `{ users { name reviews { body } } latestReviews { body } }`)
	}

	plans := make([]*solver.SolvedOperation, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plans[i], errs[i] = p.Plan(context.Background(), ops[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Same(t, plans[0], plans[i])
	}
	stats := p.Stats()
	require.Equal(t, int64(callers), stats.Hits+stats.Misses)
	require.Equal(t, 1, stats.Cached)
}

func TestPlanDoesNotCacheErrors(t *testing.T) {
	s := cycleSchema(t)
	log := &recordingLogger{}
	p := newPlanner(t, s, WithLogger(log))

	for i := 0; i < 2; i++ {
		plan, err := p.Plan(context.Background(), bind(t, s, `{ thing { x } }`))
		require.Nil(t, plan)
		require.ErrorIs(t, err, solver.ErrRequirementCycleDetected)
	}
	require.Equal(t, Stats{Misses: 2}, p.Stats())
	require.Len(t, log.levels("warn"), 2)
	require.Empty(t, log.levels("error"))
}

func TestPlanLogsInternalErrors(t *testing.T) {
	s := buildSchema(t,
		ir.InMemorySubgraph{Name: "a", Content: `type Query { item: Item } type Item { id: ID! @shareable }`},
		ir.InMemorySubgraph{Name: "b", Content: `type Query { other: Int } type Item { id: ID! @shareable extra: String }`},
	)
	log := &recordingLogger{}
	p := newPlanner(t, s, WithLogger(log))

	_, err := p.Plan(context.Background(), bind(t, s, `{ item { extra } }`))
	require.ErrorIs(t, err, solver.ErrUnresolvableField)
	require.Equal(t, []string{"planner.Plan: solve failed"}, log.levels("error"))
}

func TestPlanMaxFields(t *testing.T) {
	s := buildSchema(t)
	p := newPlanner(t, s, WithMaxFields(2))

	_, err := p.Plan(context.Background(), bind(t, s, `{ me { name } }`))
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), bind(t, s, `{ me { id name } }`))
	require.ErrorIs(t, err, ErrTooManyFields)
	require.Equal(t, int64(1), p.Stats().Misses, "rejected before lookup")
}

func TestPlanCanceledContext(t *testing.T) {
	s := buildSchema(t)
	p := newPlanner(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Plan(ctx, bind(t, s, `{ me { name } }`))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Stats{}, p.Stats())
}

func TestPlanPublishesEvents(t *testing.T) {
	prev := eventbus.Current()
	t.Cleanup(func() { eventbus.Use(prev) })
	eventbus.Use(eventbus.New())

	var starts []events.PlanStart
	var finishes []events.PlanFinish
	eventbus.Subscribe(func(_ context.Context, e events.PlanStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(_ context.Context, e events.PlanFinish) { finishes = append(finishes, e) })

	s := buildSchema(t)
	p := newPlanner(t, s)
	op := bind(t, s, `query Mine { me { name reviews { body } } }`)
	for i := 0; i < 2; i++ {
		_, err := p.Plan(context.Background(), op)
		require.NoError(t, err)
	}

	require.Len(t, starts, 2)
	require.Equal(t, events.PlanStart{OperationName: "Mine", OperationType: "query", Key: p.Key(op)}, starts[0])
	require.Len(t, finishes, 2)
	require.False(t, finishes[0].Cached)
	require.True(t, finishes[1].Cached)
	require.Equal(t, 2, finishes[0].Partitions)
	require.Equal(t, finishes[0].Partitions, finishes[1].Partitions)
	require.NoError(t, finishes[0].Err)

	cs := cycleSchema(t)
	_, err := newPlanner(t, cs).Plan(context.Background(), bind(t, cs, `{ thing { x } }`))
	require.Error(t, err)
	require.Len(t, finishes, 3)
	require.True(t, errors.Is(finishes[2].Err, solver.ErrRequirementCycleDetected))
}

func TestWarm(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := buildSchema(t)
	p := newPlanner(t, s)
	err := p.Warm(context.Background(),
		bind(t, s, `{ me { name } }`),
		bind(t, s, `{ users { reviews { body } } }`),
		bind(t, s, `{ latestReviews { body } }`),
		bind(t, s, `{ me { name } }`),
	)
	require.NoError(t, err)
	require.Equal(t, 3, p.Stats().Cached)

	cs := cycleSchema(t)
	err = newPlanner(t, cs).Warm(context.Background(), bind(t, cs, `query Loop { thing { x } }`))
	require.ErrorIs(t, err, solver.ErrRequirementCycleDetected)
	require.Contains(t, err.Error(), "plan Loop")
}
