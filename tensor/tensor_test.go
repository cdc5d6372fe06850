// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/born-ml/fanout/tensor"
)

// TestTensorAPI verifies the Tensor alias exposes the expected API.
func TestTensorAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	if !x.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", x.Shape())
	}
	if x.DType() != tensor.Float64 {
		t.Errorf("DType() = %v, want Float64", x.DType())
	}
	if x.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", x.NumElements())
	}

	y := tensor.Empty[float64]()
	if err := y.ReshapeLike(x); err != nil {
		t.Fatalf("ReshapeLike failed: %v", err)
	}
	y.ShareData(x)
	if !y.SharesDataWith(x) {
		t.Error("ShareData should alias data buffers")
	}
	y.MutableGrad()[0] = 1
	if x.Grad()[0] != 0 {
		t.Error("gradient buffers should stay independent")
	}
}

func TestNewInvalidShape(t *testing.T) {
	if _, err := tensor.New[float32](tensor.Shape{-2}); err == nil {
		t.Error("New should reject negative dimensions")
	}
}
