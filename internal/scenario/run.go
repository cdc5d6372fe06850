package scenario

import (
	"github.com/born-ml/fanout/internal/diagnostics"
	"github.com/born-ml/fanout/internal/nn"
	"github.com/born-ml/fanout/internal/tensor"
	"github.com/pkg/errors"
)

// Result is the outcome of running one Scenario.
type Result struct {
	Name      string
	Policy    string
	Propagate bool
	Branches  int
	Aliased   bool      // Every output shared the input's data after Forward.
	InputGrad []float64 // Input gradient after backward, widened to float64.
	Reports   []diagnostics.ConservationReport
	Matched   bool // InputGrad equals Expect (or Expect is empty).
}

// Run builds the tensors for s, then drives a Split layer through Reshape,
// Forward and the configured backward policy. Conservation reports go to
// sink (may be nil) and are also collected in the Result.
//
// Fatal layer conditions are not recovered here; they panic through Run.
func Run(s *Scenario, sink diagnostics.Sink) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	dt, _ := s.dataType()
	switch dt {
	case tensor.Float64:
		return run[float64](s, sink)
	default:
		return run[float32](s, sink)
	}
}

// RunAll runs each scenario in order, stopping at the first error.
func RunAll(scenarios []*Scenario, sink diagnostics.Sink) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := Run(s, sink)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}

func run[T tensor.DType](s *Scenario, sink diagnostics.Sink) (*Result, error) {
	policy, err := s.SplitPolicy()
	if err != nil {
		return nil, err
	}

	bottom, err := tensor.New[T](tensor.Shape(s.Shape))
	if err != nil {
		return nil, errors.WithMessagef(err, "scenario %q", s.Name)
	}
	copyInto(bottom.MutableData(), s.Input)
	grad := bottom.MutableGrad()
	for i := range grad {
		grad[i] = T(s.Sentinel)
	}

	tops := make([]*tensor.Tensor[T], len(s.Branches))
	for i := range tops {
		tops[i] = tensor.Empty[T]()
	}

	rec := diagnostics.NewRecorder()
	layer := nn.NewSplit[T](nn.WithName(s.Name), nn.WithSink(diagnostics.Multi(rec, sink)))
	if err := layer.Reshape(bottom, tops); err != nil {
		return nil, errors.WithMessagef(err, "scenario %q", s.Name)
	}
	layer.Forward(bottom, tops)

	aliased := true
	for i, top := range tops {
		aliased = aliased && top.SharesDataWith(bottom)
		copyInto(top.MutableGrad(), s.Branches[i])
	}

	layer.BackwardWith(policy, tops, []bool{s.PropagateDown()}, bottom)

	res := &Result{
		Name:      s.Name,
		Policy:    policy.String(),
		Propagate: s.PropagateDown(),
		Branches:  len(tops),
		Aliased:   aliased,
		InputGrad: widen(bottom.Grad()),
		Reports:   rec.Reports(),
	}
	res.Matched = matches(s.Expect, res.InputGrad)
	return res, nil
}

func copyInto[T tensor.DType](dst []T, src []float64) {
	for i, v := range src {
		dst[i] = T(v)
	}
}

func widen[T tensor.DType](src []T) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

// Builtin returns the reference scenarios: plain accumulation over three
// branches, a gated call, and both attribution policies on two heads.
func Builtin() []*Scenario {
	off := false
	heads := [][]float64{{1, -1, 2, 0}, {0, 1, -2, 5}}
	return []*Scenario{
		{
			Name:     "three-branch-sum",
			Shape:    []int{2, 2},
			Branches: [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}, {1, 1, 2, 1}},
			Policy:   nn.AccumulateName,
			Expect:   []float64{3, 3, 4, 3},
		},
		{
			Name:      "gated",
			Shape:     []int{1, 4},
			Branches:  heads,
			Propagate: &off,
			Policy:    nn.AccumulateName,
			Sentinel:  -1,
			Expect:    []float64{-1, -1, -1, -1},
		},
		{
			Name:     "heads-conservation",
			DType:    "float64",
			Shape:    []int{1, 4},
			Branches: heads,
			Policy:   nn.ConservationName,
			Expect:   []float64{1, 0, 0, 5},
		},
		{
			Name:     "heads-select-1",
			Shape:    []int{1, 4},
			Branches: heads,
			Policy:   nn.SelectBranchName,
			Branch:   1,
			Expect:   []float64{0, 1, -2, 5},
		},
	}
}
