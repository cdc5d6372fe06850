// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides graph layers for the fanout framework.
//
// # Overview
//
// This package contains:
//   - Split: a fan-out layer with one input and N outputs
//   - SplitPolicy: the closed set of Split backward policies
//   - Error types: InvalidGraphError, UsageError, InvariantError
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fanout/nn"
//	    "github.com/born-ml/fanout/tensor"
//	)
//
//	func main() {
//	    x, _ := tensor.New[float32](tensor.Shape{2, 2})
//	    tops := []*tensor.Tensor[float32]{tensor.Empty[float32](), tensor.Empty[float32]()}
//
//	    split := nn.NewSplit[float32]()
//	    if err := split.Reshape(x, tops); err != nil {
//	        // reject the graph
//	    }
//	    split.Forward(x, tops)
//	    // ... downstream layers write tops[i].MutableGrad() ...
//	    split.Backward(tops, []bool{true}, x)
//	}
//
// # Backward policies
//
// Accumulate: input gradient is the sum of every output gradient.
//
// AccumulateWithConservationCheck: same sum; the totals of output 0,
// output 1 and the input gradient are sent to the layer's diagnostics sink
// so callers can check that attribution is conserved.
//
// SelectBranch(b): input gradient is output b's gradient (b in {0, 1});
// the other branch is discarded. Any other b panics with a UsageError.
//
// # Fatal errors
//
// UsageError and InvariantError are raised with panic, never returned.
// They mean a wrong gradient would otherwise be produced; recover them only
// to report and stop the pipeline. Use IsFatal to classify a recovered error.
package nn
