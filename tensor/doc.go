// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor primitive consumed by fanout layers.
//
// # Overview
//
// A Tensor holds a shape and two buffers:
//   - data: forward values, shareable between tensors without copying
//   - grad: backward values, always owned by a single tensor
//
// Buffers are reference counted. ShareData points a tensor at another
// tensor's data buffer; the old buffer is released and freed once no
// tensor holds it.
//
// # Basic Usage
//
//	import "github.com/born-ml/fanout/tensor"
//
//	func main() {
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y := tensor.Empty[float32]()
//	    _ = y.ReshapeLike(x)
//	    y.ShareData(x)          // y.Data() aliases x.Data()
//	    y.MutableGrad()[0] = 1  // x.Grad() is unaffected
//	}
package tensor
