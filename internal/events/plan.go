package events

import "time"

// PlanStart is emitted before a plan is looked up or solved.
type PlanStart struct {
	OperationName string
	OperationType string
	Key           uint64
}

// PlanFinish is emitted once a plan is available or solving failed.
type PlanFinish struct {
	OperationName string
	OperationType string
	Key           uint64
	Cached        bool // Served from the plan cache
	Shared        bool // Joined a concurrent solve of the same operation
	Partitions    int
	Err           error
	Duration      time.Duration
}
