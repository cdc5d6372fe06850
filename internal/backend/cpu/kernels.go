// Package cpu implements the sequential numeric kernels used by the fanout
// layers. Kernels work over flat slices, never allocate, and validate that
// every operand holds at least n elements.
package cpu

import (
	"github.com/born-ml/fanout/internal/tensor"
	"github.com/gomlx/exceptions"
)

// Copy sets dst[i] = src[i] for i in [0, n).
func Copy[T tensor.DType](n int, src, dst []T) {
	checkLen("Copy", n, src, dst)
	copy(dst[:n], src[:n])
}

// Add sets dst[i] = a[i] + b[i] for i in [0, n).
// dst may alias a or b.
func Add[T tensor.DType](n int, a, b, dst []T) {
	checkLen("Add", n, a, b, dst)
	a, b, dst = a[:n], b[:n], dst[:n]
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// Axpy sets y[i] += alpha * x[i] for i in [0, n).
func Axpy[T tensor.DType](n int, alpha T, x, y []T) {
	checkLen("Axpy", n, x, y)
	x, y = x[:n], y[:n]
	if alpha == 1 {
		for i := range y {
			y[i] += x[i]
		}
		return
	}
	for i := range y {
		y[i] += alpha * x[i]
	}
}

// Sum returns the sum of x[0:n], accumulated in float64.
func Sum[T tensor.DType](n int, x []T) float64 {
	checkLen("Sum", n, x)
	var s float64
	for _, v := range x[:n] {
		s += float64(v)
	}
	return s
}

func checkLen[T tensor.DType](op string, n int, operands ...[]T) {
	if n < 0 {
		exceptions.Panicf("cpu.%s: negative element count %d", op, n)
	}
	for i, o := range operands {
		if len(o) < n {
			exceptions.Panicf("cpu.%s: operand #%d has %d elements, need %d", op, i, len(o), n)
		}
	}
}
