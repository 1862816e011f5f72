package solver

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies solve failures.
type ErrorKind string

const (
	RequirementCycleDetected   ErrorKind = "RequirementCycleDetected"
	UnresolvableField          ErrorKind = "UnresolvableField"
	InternalInvariantViolation ErrorKind = "InternalInvariantViolation"
)

var (
	ErrRequirementCycleDetected   = errors.New("requirement cycle detected")
	ErrUnresolvableField          = errors.New("unresolvable field")
	ErrInternalInvariantViolation = errors.New("internal invariant violation")
)

// SolveError is returned by Solve. No partial plan accompanies it.
type SolveError struct {
	Kind    ErrorKind
	Message string
	Path    []string // Response path of the offending field, if any
	Cycle   []string // Field coordinates forming the cycle, first repeated last
}

func (e *SolveError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Path) > 0 {
		b.WriteString(" (at ")
		b.WriteString(strings.Join(e.Path, "."))
		b.WriteString(")")
	}
	if len(e.Cycle) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " -> "))
	}
	return b.String()
}

// Is matches the sentinel error of the same kind.
func (e *SolveError) Is(target error) bool {
	switch e.Kind {
	case RequirementCycleDetected:
		return target == ErrRequirementCycleDetected
	case UnresolvableField:
		return target == ErrUnresolvableField
	case InternalInvariantViolation:
		return target == ErrInternalInvariantViolation
	}
	return false
}

// IsInternal reports whether err belongs to the internal-error class:
// an unresolvable field or a broken invariant.
func IsInternal(err error) bool {
	return errors.Is(err, ErrUnresolvableField) || errors.Is(err, ErrInternalInvariantViolation)
}

func newError(kind ErrorKind, path []string, format string, args ...any) *SolveError {
	return &SolveError{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

func invariantf(format string, args ...any) *SolveError {
	return newError(InternalInvariantViolation, nil, format, args...)
}
