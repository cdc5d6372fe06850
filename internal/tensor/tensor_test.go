package tensor

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 4, Shape{2, 2}.NumElements())
	assert.Equal(t, 0, Shape{3, 0, 2}.NumElements())
	assert.Equal(t, 24, Shape{2, 3, 4}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{1, 4}.Validate())
	require.NoError(t, Shape{0}.Validate())
	require.Error(t, Shape{2, -1}.Validate())
}

func TestShapeEqualAndClone(t *testing.T) {
	s := Shape{2, 3}
	c := s.Clone()
	assert.True(t, s.Equal(c))
	c[0] = 5
	assert.False(t, s.Equal(c), "Clone must not alias the original")
	assert.False(t, Shape{2}.Equal(Shape{2, 1}))
	assert.Equal(t, "[2 3] (6)", s.String())
}

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	dt, ok := ParseDataType("float64")
	require.True(t, ok)
	assert.Equal(t, Float64, dt)
	_, ok = ParseDataType("int8")
	assert.False(t, ok)

	assert.Equal(t, Float32, Empty[float32]().DType())
	assert.Equal(t, Float64, Empty[float64]().DType())
}

func TestFromSlice(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	x := must.M1(FromSlice(src, Shape{2, 2}))
	assert.Equal(t, src, x.Data())
	assert.Equal(t, 4, x.NumElements())
	assert.Equal(t, []float32{0, 0, 0, 0}, x.Grad())

	src[0] = 100
	assert.Equal(t, float32(1), x.Data()[0], "FromSlice must copy its input")

	_, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2})
	require.Error(t, err)
}

func TestNewInvalidShape(t *testing.T) {
	_, err := New[float64](Shape{-1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid shape")
}

func TestReshapeReusesCapacity(t *testing.T) {
	x := must.M1(New[float32](Shape{4, 4}))
	x.MutableGrad()[0] = 7
	data := x.data

	require.NoError(t, x.Reshape(Shape{2, 2}))
	assert.Same(t, data, x.data, "shrinking must not reallocate")
	assert.Len(t, x.Data(), 4)
	assert.Equal(t, float32(7), x.Grad()[0])

	require.NoError(t, x.Reshape(Shape{8, 8}))
	assert.NotSame(t, data, x.data, "growing past capacity must reallocate")
	assert.Len(t, x.Grad(), 64)
}

func TestReshapeLike(t *testing.T) {
	a := must.M1(New[float32](Shape{1, 4}))
	b := Empty[float32]()
	require.NoError(t, b.ReshapeLike(a))
	assert.True(t, b.Shape().Equal(Shape{1, 4}))
	assert.Equal(t, a.NumElements(), b.NumElements())

	// Shape is copied, not aliased.
	a.Shape()[0] = 9
	assert.Equal(t, 1, b.Shape()[0])
}

func TestShareData(t *testing.T) {
	a := must.M1(FromSlice([]float64{1, 2, 3}, Shape{3}))
	b := must.M1(New[float64](Shape{3}))
	c := must.M1(New[float64](Shape{3}))
	old := b.data

	b.ShareData(a)
	c.ShareData(a)
	assert.True(t, b.SharesDataWith(a))
	assert.True(t, c.SharesDataWith(b))
	assert.Equal(t, 3, a.DataRefs())
	assert.Equal(t, 0, old.refs(), "b's previous buffer must be released")

	a.MutableData()[1] = 42
	assert.Equal(t, float64(42), b.Data()[1])
	assert.Equal(t, float64(42), c.Data()[1])

	// Grad buffers stay independent.
	b.MutableGrad()[0] = 5
	assert.Equal(t, float64(0), a.Grad()[0])
	assert.Equal(t, float64(0), c.Grad()[0])

	// Sharing twice is a no-op.
	b.ShareData(a)
	assert.Equal(t, 3, a.DataRefs())
}

func TestShareDataCountMismatch(t *testing.T) {
	a := must.M1(New[float32](Shape{3}))
	b := must.M1(New[float32](Shape{4}))
	err := exceptions.TryCatch[error](func() { b.ShareData(a) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element count mismatch")
}

func TestRelease(t *testing.T) {
	a := must.M1(FromSlice([]float32{1, 2}, Shape{2}))
	b := must.M1(New[float32](Shape{2}))
	b.ShareData(a)
	require.Equal(t, 2, a.DataRefs())

	a.Release()
	assert.Equal(t, 0, a.DataRefs())
	assert.Nil(t, a.Data())
	assert.Equal(t, 1, b.DataRefs())
	assert.Equal(t, []float32{1, 2}, b.Data(), "shared data must survive while still held")

	// Release is idempotent.
	a.Release()
}

func TestEmpty(t *testing.T) {
	e := Empty[float32]()
	assert.Equal(t, 0, e.NumElements())
	assert.Nil(t, e.Data())
	assert.Equal(t, "Tensor[float32][0] (0)", e.String())

	// Sharing between empty tensors is allowed.
	e.ShareData(Empty[float32]())
}
