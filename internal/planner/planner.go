// Package planner caches solved operations. Plans are keyed by the schema
// version and the canonical operation text, so two spellings of the same
// operation share a plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jensneuse/abstractlogger"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	eventbus "github.com/hanpama/fedgraph/internal/eventbus"
	events "github.com/hanpama/fedgraph/internal/events"
	operation "github.com/hanpama/fedgraph/internal/operation"
	schema "github.com/hanpama/fedgraph/internal/schema"
	solver "github.com/hanpama/fedgraph/internal/solver"
)

// ErrTooManyFields is returned when an operation exceeds the field limit.
var ErrTooManyFields = errors.New("operation selects too many fields")

// Planner solves operations against one schema and caches the results.
// It is safe for concurrent use. Failed solves are not cached.
type Planner struct {
	schema    *schema.Schema
	log       abstractlogger.Logger
	maxFields int

	cache  *lru.Cache[uint64, *solver.SolvedOperation]
	group  singleflight.Group
	hits   *atomic.Int64
	misses *atomic.Int64
}

func New(s *schema.Schema, opts ...Option) (*Planner, error) {
	o := options{cacheSize: defaultCacheSize, log: abstractlogger.NoopLogger}
	for _, f := range opts {
		f(&o)
	}
	cache, err := lru.New[uint64, *solver.SolvedOperation](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("plan cache: %w", err)
	}
	return &Planner{
		schema:    s,
		log:       o.log,
		maxFields: o.maxFields,
		cache:     cache,
		hits:      atomic.NewInt64(0),
		misses:    atomic.NewInt64(0),
	}, nil
}

func (p *Planner) Schema() *schema.Schema { return p.schema }

// Key identifies the plan of op. Operations with equal canonical text
// against the same schema version share a key.
func (p *Planner) Key(op *operation.Operation) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(p.schema.Version)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(op.Canonical())
	return d.Sum64()
}

// Plan returns the plan for op, solving it at most once per key across
// concurrent callers. A plan returned from the cache or shared with
// another caller is read-only.
func (p *Planner) Plan(ctx context.Context, op *operation.Operation) (*solver.SolvedOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.maxFields > 0 && len(op.Fields) > p.maxFields {
		return nil, fmt.Errorf("%w: %d selected, limit is %d", ErrTooManyFields, len(op.Fields), p.maxFields)
	}

	key := p.Key(op)
	start := time.Now()
	eventbus.Publish(ctx, events.PlanStart{OperationName: op.Name, OperationType: string(op.Kind), Key: key})
	finish := events.PlanFinish{OperationName: op.Name, OperationType: string(op.Kind), Key: key}
	defer func() {
		finish.Duration = time.Since(start)
		eventbus.Publish(ctx, finish)
	}()

	if plan, ok := p.cache.Get(key); ok {
		p.hits.Inc()
		finish.Cached = true
		finish.Partitions = len(plan.Partitions)
		return plan, nil
	}
	p.misses.Inc()
	p.log.Debug("planner.Plan: cache miss",
		abstractlogger.String("operation", op.Name),
		abstractlogger.String("key", strconv.FormatUint(key, 16)),
	)

	ch := p.group.DoChan(strconv.FormatUint(key, 16), func() (any, error) {
		if plan, ok := p.cache.Get(key); ok {
			return plan, nil
		}
		plan, err := solver.Solve(p.schema, op)
		if err != nil {
			p.logSolveError(op, err)
			return nil, err
		}
		p.cache.Add(key, plan)
		return plan, nil
	})
	select {
	case <-ctx.Done():
		finish.Err = ctx.Err()
		return nil, ctx.Err()
	case res := <-ch:
		finish.Shared = res.Shared
		if res.Err != nil {
			finish.Err = res.Err
			return nil, res.Err
		}
		plan := res.Val.(*solver.SolvedOperation)
		finish.Partitions = len(plan.Partitions)
		return plan, nil
	}
}

func (p *Planner) logSolveError(op *operation.Operation, err error) {
	fields := []abstractlogger.Field{
		abstractlogger.String("operation", op.Name),
		abstractlogger.Error(err),
	}
	switch {
	case solver.IsInternal(err):
		p.log.Error("planner.Plan: solve failed", fields...)
	case errors.Is(err, solver.ErrRequirementCycleDetected):
		p.log.Warn("planner.Plan: requirement cycle", fields...)
	}
}

// Warm plans ops concurrently and returns the first failure.
func (p *Planner) Warm(ctx context.Context, ops ...*operation.Operation) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, op := range ops {
		g.Go(func() error {
			if _, err := p.Plan(ctx, op); err != nil {
				name := op.Name
				if name == "" {
					name = "anonymous " + string(op.Kind)
				}
				return fmt.Errorf("plan %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Cached int   `json:"cached"`
}

func (p *Planner) Stats() Stats {
	return Stats{Hits: p.hits.Load(), Misses: p.misses.Load(), Cached: p.cache.Len()}
}

// Purge drops every cached plan.
func (p *Planner) Purge() { p.cache.Purge() }
