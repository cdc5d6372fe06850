// Package scenario describes Split layer runs in YAML and executes them.
//
// A scenario file holds one or more YAML documents, one scenario each:
//
//	name: two-heads
//	dtype: float32
//	shape: [1, 4]
//	branches:
//	  - [1, -1, 2, 0]
//	  - [0, 1, -2, 5]
//	policy: select   # accumulate | conservation | select
//	branch: 1
//	expect: [0, 1, -2, 5]
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/born-ml/fanout/internal/nn"
	"github.com/born-ml/fanout/internal/tensor"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ExpectTolerance is the absolute tolerance used to compare against Scenario.Expect.
const ExpectTolerance = 1e-6

// Scenario is one Split layer run: input shape, per-branch gradients, gate and policy.
type Scenario struct {
	Name      string      `yaml:"name"`
	DType     string      `yaml:"dtype,omitempty"`
	Shape     []int       `yaml:"shape"`
	Input     []float64   `yaml:"input,omitempty"`
	Branches  [][]float64 `yaml:"branches"`
	Propagate *bool       `yaml:"propagate,omitempty"`
	Policy    string      `yaml:"policy,omitempty"`
	Branch    int         `yaml:"branch,omitempty"`
	Sentinel  float64     `yaml:"sentinel,omitempty"`
	Expect    []float64   `yaml:"expect,omitempty"`
}

// Parse decodes every YAML document in data. Unknown fields are rejected and
// each scenario is validated.
func Parse(data []byte) ([]*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var scenarios []*Scenario
	for {
		s := &Scenario{}
		err := dec.Decode(s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "decoding scenario #%d", len(scenarios))
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("scenario-%d", len(scenarios)+1)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios found")
	}
	return scenarios, nil
}

// Load reads and parses a scenario file.
func Load(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario file")
	}
	scenarios, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading %s", path)
	}
	return scenarios, nil
}

// Validate checks that the scenario can be run.
func (s *Scenario) Validate() error {
	if _, err := s.dataType(); err != nil {
		return err
	}
	shape := tensor.Shape(s.Shape)
	if err := shape.Validate(); err != nil {
		return errors.Wrapf(err, "scenario %q: shape", s.Name)
	}
	count := shape.NumElements()
	if len(s.Branches) == 0 {
		return errors.Errorf("scenario %q: at least one branch is required", s.Name)
	}
	for i, b := range s.Branches {
		if len(b) != count {
			return errors.Errorf("scenario %q: branch %d has %d values, shape %v needs %d", s.Name, i, len(b), shape, count)
		}
	}
	if s.Input != nil && len(s.Input) != count {
		return errors.Errorf("scenario %q: input has %d values, shape %v needs %d", s.Name, len(s.Input), shape, count)
	}
	if s.Expect != nil && len(s.Expect) != count {
		return errors.Errorf("scenario %q: expect has %d values, shape %v needs %d", s.Name, len(s.Expect), shape, count)
	}
	policy, err := s.SplitPolicy()
	if err != nil {
		return err
	}
	if policy.Kind() == nn.PolicySelectBranch {
		if s.Branch != 0 && s.Branch != 1 {
			return errors.Errorf("scenario %q: branch must be 0 or 1, got %d", s.Name, s.Branch)
		}
		if len(s.Branches) < 2 {
			return errors.Errorf("scenario %q: policy %q needs 2 branches, got %d", s.Name, s.Policy, len(s.Branches))
		}
	}
	return nil
}

// SplitPolicy returns the backward policy named by the scenario.
func (s *Scenario) SplitPolicy() (nn.SplitPolicy, error) {
	p, err := nn.ParsePolicy(s.Policy, s.Branch)
	if err != nil {
		return p, errors.WithMessagef(err, "scenario %q", s.Name)
	}
	return p, nil
}

// PropagateDown returns the gate for the input gradient; true unless set to false.
func (s *Scenario) PropagateDown() bool {
	return s.Propagate == nil || *s.Propagate
}

func (s *Scenario) dataType() (tensor.DataType, error) {
	if s.DType == "" {
		return tensor.Float32, nil
	}
	dt, ok := tensor.ParseDataType(s.DType)
	if !ok {
		return 0, errors.Errorf("scenario %q: unsupported dtype %q", s.Name, s.DType)
	}
	return dt, nil
}

// matches compares got against want within ExpectTolerance. An empty want always matches.
func matches(want, got []float64) bool {
	if len(want) == 0 {
		return true
	}
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > ExpectTolerance {
			return false
		}
	}
	return true
}
