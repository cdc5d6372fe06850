package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// PolicyKind enumerates the backward policies of a Split layer.
type PolicyKind int

// Backward policies.
const (
	// PolicyAccumulate sums every branch gradient into the input gradient.
	PolicyAccumulate PolicyKind = iota
	// PolicyConservation sums like PolicyAccumulate and reports branch and
	// input totals to the layer's diagnostics sink.
	PolicyConservation
	// PolicySelectBranch copies a single branch's gradient and discards the rest.
	PolicySelectBranch
)

// Policy names, as used in reports and scenario files.
const (
	AccumulateName   = "accumulate"
	ConservationName = "conservation"
	SelectBranchName = "select"
)

// SplitPolicy selects how a Split layer recombines branch gradients.
// The zero value is Accumulate().
type SplitPolicy struct {
	kind   PolicyKind
	branch int
}

// Accumulate is the standard backward: input grad = sum of all output grads.
func Accumulate() SplitPolicy {
	return SplitPolicy{kind: PolicyAccumulate}
}

// AccumulateWithConservationCheck accumulates like Accumulate and reports
// the totals of branch 0, branch 1, and the resulting input gradient.
func AccumulateWithConservationCheck() SplitPolicy {
	return SplitPolicy{kind: PolicyConservation}
}

// SelectBranch propagates only output branch's gradient. Valid branches are
// 0 and 1; anything else is rejected when the policy is applied.
func SelectBranch(branch int) SplitPolicy {
	return SplitPolicy{kind: PolicySelectBranch, branch: branch}
}

// ParsePolicy builds a policy from its name. branch is only used by SelectBranchName.
func ParsePolicy(name string, branch int) (SplitPolicy, error) {
	switch name {
	case AccumulateName, "":
		return Accumulate(), nil
	case ConservationName:
		return AccumulateWithConservationCheck(), nil
	case SelectBranchName:
		return SelectBranch(branch), nil
	default:
		return SplitPolicy{}, errors.Errorf("unknown split policy %q (want %q, %q or %q)",
			name, AccumulateName, ConservationName, SelectBranchName)
	}
}

// Kind returns the policy's variant.
func (p SplitPolicy) Kind() PolicyKind {
	return p.kind
}

// Branch returns the selected branch; only meaningful for PolicySelectBranch.
func (p SplitPolicy) Branch() int {
	return p.branch
}

// Name returns the policy's name without arguments.
func (p SplitPolicy) Name() string {
	switch p.kind {
	case PolicyAccumulate:
		return AccumulateName
	case PolicyConservation:
		return ConservationName
	case PolicySelectBranch:
		return SelectBranchName
	default:
		return "unknown"
	}
}

// Reports returns whether the policy emits conservation reports.
func (p SplitPolicy) Reports() bool {
	return p.kind == PolicyConservation || p.kind == PolicySelectBranch
}

func (p SplitPolicy) String() string {
	if p.kind == PolicySelectBranch {
		return fmt.Sprintf("%s(%d)", SelectBranchName, p.branch)
	}
	return p.Name()
}
