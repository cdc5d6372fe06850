package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/fanout/internal/diagnostics"
	"github.com/born-ml/fanout/internal/nn"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoDocs = `
name: sum
shape: [2, 2]
branches:
  - [1, 1, 1, 1]
  - [1, 1, 1, 1]
  - [1, 1, 2, 1]
expect: [3, 3, 4, 3]
---
dtype: float64
shape: [1, 4]
branches:
  - [1, -1, 2, 0]
  - [0, 1, -2, 5]
propagate: false
sentinel: 9
expect: [9, 9, 9, 9]
`

func TestParse(t *testing.T) {
	scenarios := must.M1(Parse([]byte(twoDocs)))
	require.Len(t, scenarios, 2)

	assert.Equal(t, "sum", scenarios[0].Name)
	assert.True(t, scenarios[0].PropagateDown())
	assert.Equal(t, nn.Accumulate(), must.M1(scenarios[0].SplitPolicy()))

	assert.Equal(t, "scenario-2", scenarios[1].Name)
	assert.False(t, scenarios[1].PropagateDown())
	assert.Equal(t, 9.0, scenarios[1].Sentinel)
}

func TestParseErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":          ``,
		"unknown field":  "shape: [2]\nbranches: [[1, 2]]\ncolour: red\n",
		"no branches":    "shape: [2]\n",
		"branch length":  "shape: [2]\nbranches: [[1, 2], [1]]\n",
		"expect length":  "shape: [2]\nbranches: [[1, 2]]\nexpect: [1]\n",
		"negative dim":   "shape: [-2]\nbranches: [[1, 2]]\n",
		"bad dtype":      "dtype: int8\nshape: [2]\nbranches: [[1, 2]]\n",
		"bad policy":     "shape: [2]\nbranches: [[1, 2]]\npolicy: average\n",
		"bad branch":     "shape: [2]\nbranches: [[1, 2], [3, 4]]\npolicy: select\nbranch: 2\n",
		"select one top": "shape: [2]\nbranches: [[1, 2]]\npolicy: select\n",
		"malformed":      "shape: [2\n",
	} {
		_, err := Parse([]byte(doc))
		assert.Errorf(t, err, "%s should fail", name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoDocs), 0o600))
	scenarios := must.M1(Load(path))
	assert.Len(t, scenarios, 2)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRunParsed(t *testing.T) {
	rec := diagnostics.NewRecorder()
	results := must.M1(RunAll(must.M1(Parse([]byte(twoDocs))), rec))
	require.Len(t, results, 2)

	assert.Equal(t, []float64{3, 3, 4, 3}, results[0].InputGrad)
	assert.True(t, results[0].Matched)
	assert.True(t, results[0].Aliased)
	assert.Equal(t, 3, results[0].Branches)

	assert.Equal(t, []float64{9, 9, 9, 9}, results[1].InputGrad)
	assert.True(t, results[1].Matched)
	assert.False(t, results[1].Propagate)

	assert.Empty(t, rec.Reports(), "accumulate does not report")
}

func TestRunBuiltin(t *testing.T) {
	rec := diagnostics.NewRecorder()
	results := must.M1(RunAll(Builtin(), rec))
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Truef(t, r.Matched, "%s: got %v", r.Name, r.InputGrad)
	}

	conservation := results[2]
	require.Len(t, conservation.Reports, 1)
	assert.True(t, conservation.Reports[0].Conserved(1e-9))
	assert.Equal(t, "heads-conservation", conservation.Reports[0].Layer)

	selected := results[3]
	assert.Equal(t, "select(1)", selected.Policy)
	require.Len(t, selected.Reports, 1)
	assert.Equal(t, 1, selected.Reports[0].Selected)

	// The external sink saw the same reports.
	assert.Len(t, rec.Reports(), 2)
}

func TestRunMismatch(t *testing.T) {
	s := &Scenario{
		Name:     "wrong",
		Shape:    []int{2},
		Branches: [][]float64{{1, 2}, {3, 4}},
		Expect:   []float64{0, 0},
	}
	r := must.M1(Run(s, nil))
	assert.False(t, r.Matched)
	assert.Equal(t, []float64{4, 6}, r.InputGrad)
}

func TestRunInvalidScenario(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Shape: []int{2}}, nil)
	require.Error(t, err)
}
