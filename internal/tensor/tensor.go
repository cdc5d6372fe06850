package tensor

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Tensor is a shaped container with two buffers:
//   - data: forward values. May be shared with other tensors (see ShareData).
//   - grad: backward values. Always exclusively owned by this tensor.
//
// Buffers are only reallocated when a Reshape needs more capacity than the
// current allocation, so repeated reshapes to the same or a smaller shape
// reuse memory.
//
// Example:
//
//	a, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	b := tensor.Empty[float32]()
//	_ = b.ReshapeLike(a)
//	b.ShareData(a)        // b.Data() now aliases a.Data()
//	b.MutableGrad()[0] = 1 // a.Grad() is unaffected
type Tensor[T DType] struct {
	shape Shape
	count int
	data  *buffer[T]
	grad  *buffer[T]
}

// Empty returns a tensor with shape [0] and no storage. It is the usual
// starting point for layer outputs, which get their shape from Reshape.
func Empty[T DType]() *Tensor[T] {
	return &Tensor[T]{shape: Shape{0}}
}

// New creates a zero-filled tensor with the given shape.
func New[T DType](shape Shape) (*Tensor[T], error) {
	t := Empty[T]()
	if err := t.Reshape(shape); err != nil {
		return nil, err
	}
	return t, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's data buffer.
func FromSlice[T DType](data []T, shape Shape) (*Tensor[T], error) {
	if shape.NumElements() != len(data) {
		return nil, errors.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New[T](shape)
	if err != nil {
		return nil, err
	}
	copy(t.MutableData(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor[T]) NumElements() int {
	return t.count
}

// DType returns the tensor's data type.
func (t *Tensor[T]) DType() DataType {
	return inferDataType[T]()
}

// Reshape changes the tensor's shape. Data and grad buffers are grown when
// the new element count exceeds their capacity; otherwise they are reused
// as-is, including a data buffer shared with other tensors.
func (t *Tensor[T]) Reshape(shape Shape) error {
	if err := shape.Validate(); err != nil {
		return errors.Wrap(err, "invalid shape")
	}
	n := shape.NumElements()
	t.shape = shape.Clone()
	t.count = n
	if t.data.capacity() < n {
		if t.data != nil {
			t.data.release()
		}
		t.data = newBuffer[T](n)
	}
	if t.grad.capacity() < n {
		t.grad = newBuffer[T](n)
	}
	return nil
}

// ReshapeLike reshapes t to match other's shape.
func (t *Tensor[T]) ReshapeLike(other *Tensor[T]) error {
	return t.Reshape(other.shape)
}

// ShareData makes t's data view alias other's data buffer (zero-copy).
// t's previous data buffer is released. The grad buffer is untouched.
//
// Panics if the element counts differ.
func (t *Tensor[T]) ShareData(other *Tensor[T]) {
	if t.count != other.count {
		exceptions.Panicf("ShareData: element count mismatch, %s vs %s", t.shape, other.shape)
	}
	if t.data == other.data {
		return
	}
	if other.data != nil {
		other.data.addRef()
	}
	if t.data != nil {
		t.data.release()
	}
	t.data = other.data
}

// SharesDataWith returns true if t and other hold the same data buffer.
func (t *Tensor[T]) SharesDataWith(other *Tensor[T]) bool {
	return t.data != nil && t.data == other.data
}

// DataRefs returns how many tensors hold t's data buffer (0 if none).
func (t *Tensor[T]) DataRefs() int {
	if t.data == nil {
		return 0
	}
	return t.data.refs()
}

// Data returns a read-only view of the forward values.
// The slice directly accesses the underlying memory (zero-copy); callers
// must not modify it. Use MutableData for writes.
func (t *Tensor[T]) Data() []T {
	return t.view(t.data)
}

// MutableData returns a writable view of the forward values. Writes are
// visible to every tensor sharing the data buffer.
func (t *Tensor[T]) MutableData() []T {
	return t.view(t.data)
}

// Grad returns a read-only view of the gradient buffer.
func (t *Tensor[T]) Grad() []T {
	return t.view(t.grad)
}

// MutableGrad returns a writable view of the gradient buffer.
func (t *Tensor[T]) MutableGrad() []T {
	return t.view(t.grad)
}

func (t *Tensor[T]) view(b *buffer[T]) []T {
	if b == nil {
		return nil
	}
	return b.data[:t.count]
}

// Release drops t's references to its buffers. Shared data survives as long
// as another tensor still holds it.
func (t *Tensor[T]) Release() {
	if t.data != nil {
		t.data.release()
		t.data = nil
	}
	t.grad = nil
}

// String returns a human-readable representation of the tensor.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor[%s]%s", t.DType(), t.shape)
}
