package main

import (
	"bytes"
	"testing"

	"github.com/born-ml/fanout/internal/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestDemo(t *testing.T) {
	out, err := execute(t, "demo", "--sink", "none")
	require.NoError(t, err)
	for _, s := range scenario.Builtin() {
		assert.Contains(t, out, s.Name)
	}
	assert.Contains(t, out, "[3 3 4 3]")
	assert.NotContains(t, out, "MISMATCH")
}

func TestRunFiles(t *testing.T) {
	out, err := execute(t, "run", "-f", "testdata/heads.yaml", "--sink", "klog")
	require.NoError(t, err)
	assert.Contains(t, out, "heads-select-0")
	assert.Contains(t, out, "[1 -1 2 0]")
}

func TestRunMismatchFails(t *testing.T) {
	out, err := execute(t, "run", "-f", "testdata/heads.yaml", "-f", "testdata/mismatch.yaml", "--sink", "none")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4")
	assert.Contains(t, out, "MISMATCH")
}

func TestRunRequiresFile(t *testing.T) {
	_, err := execute(t, "run")
	require.Error(t, err)
}

func TestUnknownSink(t *testing.T) {
	_, err := execute(t, "demo", "--sink", "stdout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sink")
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "[]", formatValues(nil))
	assert.Equal(t, "[1 2.5]", formatValues([]float64{1, 2.5}))
	long := make([]float64, 10)
	assert.Equal(t, "[0 0 0 0 0 0 0 0 … (2 more)]", formatValues(long))
}
