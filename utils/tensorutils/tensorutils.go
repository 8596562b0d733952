// Package tensorutils provides utilities for working with tensors and
// for transferring tensor data into plain gonum values
package tensorutils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Stack stacks a sequence of equally shaped tensors along a new
// leading batch axis. Stacking n tensors of shape (d1, ..., dk)
// produces a tensor of shape (n, d1, ..., dk). The input tensors are
// not modified.
func Stack(elems []*tensor.Dense) (*tensor.Dense, error) {
	if len(elems) == 0 {
		return nil, fmt.Errorf("stack: no tensors to stack")
	}
	if len(elems) == 1 {
		single, ok := elems[0].Clone().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("stack: could not clone tensor")
		}
		newShape := append([]int{1}, single.Shape()...)
		if err := single.Reshape(newShape...); err != nil {
			return nil, fmt.Errorf("stack: could not add batch axis: %v", err)
		}
		return single, nil
	}

	stacked, err := elems[0].Stack(0, elems[1:]...)
	if err != nil {
		return nil, fmt.Errorf("stack: could not stack tensors: %v", err)
	}
	return stacked, nil
}

// ToMat copies the data of t into a newly allocated *mat.Dense. The
// returned matrix shares no backing memory with t, so later writes to
// t - by a compute backend reusing the tensor's storage, for example -
// cannot be seen through the returned value.
//
// Rank 2 tensors of shape (r, c) become r x c matrices. Rank 1
// tensors of n elements become n x 1 matrices, one row per batch
// entry.
func ToMat(t *tensor.Dense) (*mat.Dense, error) {
	if t == nil {
		return nil, fmt.Errorf("tomat: nil tensor")
	}

	var r, c int
	switch t.Dims() {
	case 1:
		r, c = t.Shape()[0], 1
	case 2:
		r, c = t.Shape()[0], t.Shape()[1]
	default:
		return nil, fmt.Errorf("tomat: tensor must have rank 1 or 2 "+
			"\n\thave(%v)", t.Dims())
	}

	backing, ok := t.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("tomat: expected float64 tensor, got %T",
			t.Data())
	}
	if len(backing) != r*c {
		return nil, fmt.Errorf("tomat: tensor data size %v inconsistent "+
			"with shape %v", len(backing), t.Shape())
	}

	data := make([]float64, len(backing))
	copy(data, backing)
	return mat.NewDense(r, c, data), nil
}

// ToVec copies the data of a rank 1 tensor, or of a rank 2 tensor with
// a single row or column, into a newly allocated *mat.VecDense. Like
// ToMat, the returned vector shares no backing memory with t.
func ToVec(t *tensor.Dense) (*mat.VecDense, error) {
	if t == nil {
		return nil, fmt.Errorf("tovec: nil tensor")
	}

	switch t.Dims() {
	case 1:
	case 2:
		if t.Shape()[0] != 1 && t.Shape()[1] != 1 {
			return nil, fmt.Errorf("tovec: rank 2 tensor must have a "+
				"single row or column \n\thave shape(%v)", t.Shape())
		}
	default:
		return nil, fmt.Errorf("tovec: tensor must have rank 1 or 2 "+
			"\n\thave(%v)", t.Dims())
	}

	backing, ok := t.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("tovec: expected float64 tensor, got %T",
			t.Data())
	}

	data := make([]float64, len(backing))
	copy(data, backing)
	return mat.NewVecDense(len(data), data), nil
}
