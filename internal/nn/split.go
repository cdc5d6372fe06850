package nn

import (
	"fmt"

	"github.com/born-ml/fanout/internal/backend/cpu"
	"github.com/born-ml/fanout/internal/diagnostics"
	"github.com/born-ml/fanout/internal/tensor"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SplitType is the layer type name of Split.
const SplitType = "Split"

// Split is a fan-out layer: one input (bottom) and N >= 1 outputs (tops).
//
// Forward does no arithmetic: every top's data aliases the bottom's data
// buffer. Each top keeps its own gradient buffer, and Backward recombines
// them into the bottom gradient according to a SplitPolicy:
//
//	Accumulate()                      dx = dy0 + dy1 + ... + dy(N-1)
//	AccumulateWithConservationCheck() same, plus a ConservationReport
//	SelectBranch(b)                   dx = dyb, plus a ConservationReport
//
// The only state kept between calls is the element count cached by
// Reshape. A Split is driven by one graph executor at a time and is not
// safe for concurrent use on the same tensors.
//
// Example:
//
//	split := nn.NewSplit[float32]()
//	tops := []*tensor.Tensor[float32]{tensor.Empty[float32](), tensor.Empty[float32]()}
//	if err := split.Reshape(x, tops); err != nil { ... }
//	split.Forward(x, tops)
//	// ... downstream layers fill tops[i].MutableGrad() ...
//	split.Backward(tops, []bool{true}, x)
type Split[T tensor.DType] struct {
	name  string
	count int
	sink  diagnostics.Sink
}

// SplitOption configures a Split.
type SplitOption func(*splitOptions)

type splitOptions struct {
	name string
	sink diagnostics.Sink
}

// WithName sets the layer name used in errors and reports.
func WithName(name string) SplitOption {
	return func(o *splitOptions) { o.name = name }
}

// WithSink sets where conservation reports go. Defaults to diagnostics.Nop().
func WithSink(sink diagnostics.Sink) SplitOption {
	return func(o *splitOptions) { o.sink = sink }
}

// NewSplit creates a Split layer.
// Without WithName the layer gets a unique "split_xxxxxxxx" name.
func NewSplit[T tensor.DType](opts ...SplitOption) *Split[T] {
	o := splitOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = "split_" + uuid.NewString()[:8]
	}
	if o.sink == nil {
		o.sink = diagnostics.Nop()
	}
	return &Split[T]{name: o.name, sink: o.sink}
}

// Name returns the layer name.
func (l *Split[T]) Name() string { return l.name }

// Type returns SplitType.
func (l *Split[T]) Type() string { return SplitType }

// Count returns the element count cached by the last successful Reshape.
func (l *Split[T]) Count() int { return l.count }

// Reshape shapes every top like bottom and caches the element count.
//
// Returns *InvalidGraphError, before touching any tensor, if there are no
// tops, a tensor is nil, or a top is bottom itself: Forward aliases data
// while Backward needs independent gradients, which cannot share one tensor.
//
// Panics with *InvariantError if a top's element count differs from
// bottom's after reshaping.
func (l *Split[T]) Reshape(bottom *tensor.Tensor[T], tops []*tensor.Tensor[T]) error {
	if bottom == nil {
		return errors.WithStack(&InvalidGraphError{Layer: l.name, Output: -1, Reason: "nil input"})
	}
	if len(tops) == 0 {
		return errors.WithStack(&InvalidGraphError{Layer: l.name, Output: -1, Reason: "at least one output is required"})
	}
	for i, top := range tops {
		if top == nil {
			return errors.WithStack(&InvalidGraphError{Layer: l.name, Output: i, Reason: "nil output"})
		}
		if top == bottom {
			return errors.WithStack(&InvalidGraphError{Layer: l.name, Output: i,
				Reason: SplitType + " layer does not allow in-place computation"})
		}
	}

	count := bottom.NumElements()
	for i, top := range tops {
		if err := top.ReshapeLike(bottom); err != nil {
			return errors.WithMessagef(err, "%s: reshaping output %d", l.name, i)
		}
		if top.NumElements() != count {
			fatal(&InvariantError{Layer: l.name, Reason: fmt.Sprintf(
				"output %d has %d elements after reshape, input has %d", i, top.NumElements(), count)})
		}
	}
	l.count = count
	return nil
}

// Forward makes every top's data alias bottom's data buffer. No values are
// copied; tops' previous data buffers are released and their gradient
// buffers are left alone.
func (l *Split[T]) Forward(bottom *tensor.Tensor[T], tops []*tensor.Tensor[T]) {
	for _, top := range tops {
		top.ShareData(bottom)
	}
}

// Backward sums all top gradients into bottom's gradient.
// See BackwardWith with Accumulate().
func (l *Split[T]) Backward(tops []*tensor.Tensor[T], propagateDown []bool, bottom *tensor.Tensor[T]) {
	l.BackwardWith(Accumulate(), tops, propagateDown, bottom)
}

// BackwardRelevance sums all top gradients into bottom's gradient and
// reports the conservation totals.
// See BackwardWith with AccumulateWithConservationCheck().
func (l *Split[T]) BackwardRelevance(tops []*tensor.Tensor[T], propagateDown []bool, bottom *tensor.Tensor[T]) {
	l.BackwardWith(AccumulateWithConservationCheck(), tops, propagateDown, bottom)
}

// BackwardRelevanceSelective copies only tops[branch]'s gradient into
// bottom's gradient and reports the totals.
// See BackwardWith with SelectBranch(branch).
func (l *Split[T]) BackwardRelevanceSelective(tops []*tensor.Tensor[T], propagateDown []bool,
	bottom *tensor.Tensor[T], branch int) {
	l.BackwardWith(SelectBranch(branch), tops, propagateDown, bottom)
}

// BackwardWith computes bottom's gradient from the tops' gradients using policy.
//
// propagateDown[0] gates the whole call: if it is false (or propagateDown is
// empty) nothing is read, written or reported. The caller must have fully
// populated every top gradient before calling.
//
// With N == 1 the single top gradient is copied; with N >= 2 the result is
// (dy0 + dy1) + dy2 + ... + dy(N-1), in that order.
//
// SelectBranch requires exactly branch 0 or 1 and at least two tops; a
// violation panics with *UsageError regardless of propagateDown.
func (l *Split[T]) BackwardWith(policy SplitPolicy, tops []*tensor.Tensor[T], propagateDown []bool,
	bottom *tensor.Tensor[T]) {
	switch policy.kind {
	case PolicyAccumulate, PolicyConservation:
		if !gate(propagateDown) {
			return
		}
		l.checkBuffers("backward", tops, bottom)
		l.accumulate(tops, bottom)
	case PolicySelectBranch:
		l.checkSelection(policy.branch, tops)
		if !gate(propagateDown) {
			return
		}
		l.checkBuffers("backward", tops, bottom)
		cpu.Copy(l.count, tops[policy.branch].Grad(), bottom.MutableGrad())
	default:
		fatal(&UsageError{Layer: l.name, Op: "backward", Reason: fmt.Sprintf("unknown policy kind %d", policy.kind)})
	}
	if policy.Reports() {
		l.report(policy, tops, bottom)
	}
}

func gate(propagateDown []bool) bool {
	return len(propagateDown) > 0 && propagateDown[0]
}

func (l *Split[T]) accumulate(tops []*tensor.Tensor[T], bottom *tensor.Tensor[T]) {
	dst := bottom.MutableGrad()
	if len(tops) == 1 {
		cpu.Copy(l.count, tops[0].Grad(), dst)
		return
	}
	cpu.Add(l.count, tops[0].Grad(), tops[1].Grad(), dst)
	for _, top := range tops[2:] {
		cpu.Axpy(l.count, 1, top.Grad(), dst)
	}
}

func (l *Split[T]) checkSelection(branch int, tops []*tensor.Tensor[T]) {
	if branch != 0 && branch != 1 {
		fatal(&UsageError{Layer: l.name, Op: "backward", Reason: fmt.Sprintf("invalid branch to propagate: %d (want 0 or 1)", branch)})
	}
	if len(tops) < 2 {
		fatal(&UsageError{Layer: l.name, Op: "backward", Reason: fmt.Sprintf("branch selection needs 2 outputs, got %d", len(tops))})
	}
}

func (l *Split[T]) checkBuffers(op string, tops []*tensor.Tensor[T], bottom *tensor.Tensor[T]) {
	if len(tops) == 0 {
		fatal(&UsageError{Layer: l.name, Op: op, Reason: "no outputs"})
	}
	if bottom.NumElements() != l.count {
		fatal(&InvariantError{Layer: l.name, Reason: fmt.Sprintf(
			"input has %d elements, Reshape cached %d", bottom.NumElements(), l.count)})
	}
}

func (l *Split[T]) report(policy SplitPolicy, tops []*tensor.Tensor[T], bottom *tensor.Tensor[T]) {
	r := diagnostics.ConservationReport{
		Layer:      l.name,
		Policy:     policy.Name(),
		Branches:   len(tops),
		Selected:   -1,
		Branch0Sum: cpu.Sum(l.count, tops[0].Grad()),
		InputSum:   cpu.Sum(l.count, bottom.Grad()),
	}
	if len(tops) > 1 {
		r.Branch1Sum = cpu.Sum(l.count, tops[1].Grad())
	}
	if policy.kind == PolicySelectBranch {
		r.Selected = policy.branch
	}
	l.sink.ReportConservation(r)
}
