// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fanout/internal/diagnostics"
	"github.com/born-ml/fanout/internal/nn"
	"github.com/born-ml/fanout/internal/tensor"
)

// Split is a fan-out layer: Forward aliases its input into every output,
// Backward recombines the output gradients into the input gradient.
type Split[T tensor.DType] = nn.Split[T]

// SplitOption configures a Split.
type SplitOption = nn.SplitOption

// NewSplit creates a Split layer.
//
// Example:
//
//	split := nn.NewSplit[float32](nn.WithName("trunk"), nn.WithSink(diagnostics.NewRecorder()))
func NewSplit[T tensor.DType](opts ...SplitOption) *Split[T] {
	return nn.NewSplit[T](opts...)
}

// WithName sets the layer name used in errors and reports.
func WithName(name string) SplitOption {
	return nn.WithName(name)
}

// WithSink sets the destination of conservation reports.
func WithSink(sink diagnostics.Sink) SplitOption {
	return nn.WithSink(sink)
}

// Policies

// SplitPolicy selects how a Split recombines branch gradients.
type SplitPolicy = nn.SplitPolicy

// PolicyKind enumerates SplitPolicy variants.
type PolicyKind = nn.PolicyKind

// Policy kinds.
const (
	PolicyAccumulate   = nn.PolicyAccumulate
	PolicyConservation = nn.PolicyConservation
	PolicySelectBranch = nn.PolicySelectBranch
)

// Accumulate sums every branch gradient.
func Accumulate() SplitPolicy { return nn.Accumulate() }

// AccumulateWithConservationCheck sums every branch gradient and reports totals.
func AccumulateWithConservationCheck() SplitPolicy { return nn.AccumulateWithConservationCheck() }

// SelectBranch propagates only the given branch (0 or 1) and reports totals.
func SelectBranch(branch int) SplitPolicy { return nn.SelectBranch(branch) }

// ParsePolicy builds a policy from "accumulate", "conservation" or "select".
func ParsePolicy(name string, branch int) (SplitPolicy, error) { return nn.ParsePolicy(name, branch) }

// Errors

// InvalidGraphError is returned by Split.Reshape for graphs it cannot run.
type InvalidGraphError = nn.InvalidGraphError

// UsageError is panicked when an API precondition is broken.
type UsageError = nn.UsageError

// InvariantError is panicked when tensor bookkeeping is inconsistent.
type InvariantError = nn.InvariantError

// IsFatal reports whether err is a UsageError or InvariantError.
func IsFatal(err error) bool { return nn.IsFatal(err) }
