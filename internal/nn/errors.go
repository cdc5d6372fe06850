package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidGraphError reports a graph definition a layer cannot accept, such
// as a Split whose output is its own input. It is returned, not panicked:
// the caller should reject the graph.
type InvalidGraphError struct {
	Layer  string
	Output int // Offending output index, or -1 when not tied to one output.
	Reason string
}

func (e *InvalidGraphError) Error() string {
	if e.Output < 0 {
		return fmt.Sprintf("%s: invalid graph: %s", e.Layer, e.Reason)
	}
	return fmt.Sprintf("%s: invalid graph: output %d: %s", e.Layer, e.Output, e.Reason)
}

// UsageError is raised (via panic) when a caller breaks an API precondition,
// e.g. selecting a branch that does not exist. There is no safe fallback, so
// it must halt the pipeline rather than be retried or skipped.
type UsageError struct {
	Layer  string
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s.%s: usage error: %s", e.Layer, e.Op, e.Reason)
}

// InvariantError is raised (via panic) when tensor bookkeeping is
// inconsistent, e.g. an output whose element count differs from the input
// after reshaping. It indicates a bug upstream of the layer.
type InvariantError struct {
	Layer  string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Layer, e.Reason)
}

// IsFatal reports whether err (or anything it wraps) is a UsageError or an
// InvariantError. Such errors are only observable by recovering a panic and
// must never be treated as retryable.
func IsFatal(err error) bool {
	var usage *UsageError
	var invariant *InvariantError
	return errors.As(err, &usage) || errors.As(err, &invariant)
}

// fatal aborts the current call with err, keeping a stack trace.
func fatal(err error) {
	panic(errors.WithStack(err))
}
