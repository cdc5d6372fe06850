package cpu

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy(t *testing.T) {
	src := []float32{1, -2, 3.5}
	dst := make([]float32, 4)
	dst[3] = 9
	Copy(3, src, dst)
	assert.Equal(t, []float32{1, -2, 3.5, 9}, dst, "Copy must only touch the first n elements")
}

func TestAdd(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{10, 20, 30}
	dst := make([]float64, 3)
	Add(3, a, b, dst)
	assert.Equal(t, []float64{11, 22, 33}, dst)

	// In-place into the first operand.
	Add(3, a, b, a)
	assert.Equal(t, []float64{11, 22, 33}, a)
}

func TestAxpy(t *testing.T) {
	x := []float32{1, 2, 3}
	y := []float32{1, 1, 1}
	Axpy(3, 1, x, y)
	assert.Equal(t, []float32{2, 3, 4}, y)

	Axpy(3, -2, x, y)
	assert.Equal(t, []float32{0, -1, -2}, y)
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.0, Sum[float32](0, nil))
	assert.InDelta(t, 2.5, Sum(4, []float32{1, -1, 2, 0.5}), 1e-9)
	assert.InDelta(t, 6.0, Sum(2, []float64{4, 2, 100}), 1e-12)
}

func TestKernelsCheckLength(t *testing.T) {
	short := []float32{1}
	long := []float32{1, 2, 3}

	for name, fn := range map[string]func(){
		"Copy": func() { Copy(3, short, long) },
		"Add":  func() { Add(3, long, short, long) },
		"Axpy": func() { Axpy(3, 1, long, short) },
		"Sum":  func() { Sum(3, short) },
		"Neg":  func() { Sum(-1, long) },
	} {
		err := exceptions.TryCatch[error](fn)
		require.Errorf(t, err, "%s should panic on short operands", name)
	}
}
