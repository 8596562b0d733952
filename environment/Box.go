package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/utils/floatutils"
)

// Box implements a rectangular observation space of a fixed
// multi-dimensional shape with an interval bound on each canonical
// dimension. A Box flattens observations in row major order.
//
// Box accepts the following raw observation encodings in Flatten:
// []float64, [][]float64, mat.Vector, and *tensor.Dense of any rank.
// FlattenBatch additionally accepts []interface{} (one raw observation
// per element), []*tensor.Dense, [][]float64 (one flat observation per
// row), and a *tensor.Dense whose leading axis is the batch axis.
type Box struct {
	shape   []int
	flatDim int
	bounds  []r1.Interval
}

// NewBox returns a new Box with the argument shape. The bounds
// argument contains one interval per canonical (flattened) dimension.
func NewBox(shape []int, bounds []r1.Interval) (*Box, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("newBox: shape must have at least one " +
			"dimension")
	}
	flatDim := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, fmt.Errorf("newBox: illegal dimension %v", dim)
		}
		flatDim *= dim
	}
	if len(bounds) != flatDim {
		return nil, fmt.Errorf("newBox: invalid number of bounds "+
			"\n\twant(%v) \n\thave(%v)", flatDim, len(bounds))
	}
	boxShape := make([]int, len(shape))
	copy(boxShape, shape)
	boxBounds := make([]r1.Interval, len(bounds))
	copy(boxBounds, bounds)

	return &Box{shape: boxShape, flatDim: flatDim, bounds: boxBounds}, nil
}

// Shape returns the multi-dimensional shape of a single raw
// observation in the Box.
func (b *Box) Shape() []int {
	shape := make([]int, len(b.shape))
	copy(shape, b.shape)
	return shape
}

// FlatDim returns the canonical flat dimensionality of a single
// observation in the Box.
func (b *Box) FlatDim() int {
	return b.flatDim
}

// ObservationSpec returns the specification of canonical observations
// in the Box.
func (b *Box) ObservationSpec() Spec {
	low := make([]float64, b.flatDim)
	high := make([]float64, b.flatDim)
	for i, bound := range b.bounds {
		low[i] = bound.Min
		high[i] = bound.Max
	}
	shape := mat.NewVecDense(b.flatDim, nil)

	return NewSpec(shape, Observation, mat.NewVecDense(b.flatDim, low),
		mat.NewVecDense(b.flatDim, high), Continuous)
}

// Clip clips each element of v to the bounds of the corresponding
// canonical dimension of the Box, returning v.
func (b *Box) Clip(v *mat.VecDense) *mat.VecDense {
	if v.Len() != b.flatDim {
		panic(fmt.Sprintf("clip: invalid vector length \n\twant(%v) "+
			"\n\thave(%v)", b.flatDim, v.Len()))
	}
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, floatutils.ClipInterval(v.AtVec(i), b.bounds[i]))
	}
	return v
}

// Flatten flattens a single raw observation into a rank 1 tensor of
// FlatDim() elements.
func (b *Box) Flatten(observation interface{}) (*tensor.Dense, error) {
	data, err := b.flatten(observation)
	if err != nil {
		return nil, err
	}
	return tensor.New(tensor.WithShape(b.flatDim),
		tensor.WithBacking(data)), nil
}

// flatten copies a single raw observation into a new []float64 of
// length FlatDim().
func (b *Box) flatten(observation interface{}) ([]float64, error) {
	switch obs := observation.(type) {
	case []float64:
		if len(obs) != b.flatDim {
			return nil, fmt.Errorf("flatten: invalid observation length "+
				"\n\twant(%v) \n\thave(%v)", b.flatDim, len(obs))
		}
		data := make([]float64, b.flatDim)
		copy(data, obs)
		return data, nil

	case [][]float64:
		data := make([]float64, 0, b.flatDim)
		for _, row := range obs {
			data = append(data, row...)
		}
		if len(data) != b.flatDim {
			return nil, fmt.Errorf("flatten: invalid observation size "+
				"\n\twant(%v) \n\thave(%v)", b.flatDim, len(data))
		}
		return data, nil

	case mat.Vector:
		if obs.Len() != b.flatDim {
			return nil, fmt.Errorf("flatten: invalid observation length "+
				"\n\twant(%v) \n\thave(%v)", b.flatDim, obs.Len())
		}
		data := make([]float64, b.flatDim)
		for i := 0; i < obs.Len(); i++ {
			data[i] = obs.AtVec(i)
		}
		return data, nil

	case *tensor.Dense:
		backing, ok := obs.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("flatten: expected float64 observation, "+
				"got %T", obs.Data())
		}
		if len(backing) != b.flatDim {
			return nil, fmt.Errorf("flatten: invalid observation size "+
				"\n\twant(%v) \n\thave(%v)", b.flatDim, len(backing))
		}
		data := make([]float64, b.flatDim)
		copy(data, backing)
		return data, nil

	default:
		return nil, fmt.Errorf("flatten: cannot flatten observation of "+
			"type %T", observation)
	}
}

// FlattenBatch flattens a batch of raw observations into a rank 2
// tensor of shape (batch, FlatDim()).
func (b *Box) FlattenBatch(observations interface{}) (*tensor.Dense, error) {
	switch obs := observations.(type) {
	case []interface{}:
		if len(obs) == 0 {
			return nil, fmt.Errorf("flattenBatch: empty batch")
		}
		data := make([]float64, 0, len(obs)*b.flatDim)
		for i, o := range obs {
			flat, err := b.flatten(o)
			if err != nil {
				return nil, fmt.Errorf("flattenBatch: observation %v: %v",
					i, err)
			}
			data = append(data, flat...)
		}
		return tensor.New(tensor.WithShape(len(obs), b.flatDim),
			tensor.WithBacking(data)), nil

	case []*tensor.Dense:
		if len(obs) == 0 {
			return nil, fmt.Errorf("flattenBatch: empty batch")
		}
		data := make([]float64, 0, len(obs)*b.flatDim)
		for i, o := range obs {
			flat, err := b.flatten(o)
			if err != nil {
				return nil, fmt.Errorf("flattenBatch: observation %v: %v",
					i, err)
			}
			data = append(data, flat...)
		}
		return tensor.New(tensor.WithShape(len(obs), b.flatDim),
			tensor.WithBacking(data)), nil

	case [][]float64:
		if len(obs) == 0 {
			return nil, fmt.Errorf("flattenBatch: empty batch")
		}
		data := make([]float64, 0, len(obs)*b.flatDim)
		for i, o := range obs {
			flat, err := b.flatten(o)
			if err != nil {
				return nil, fmt.Errorf("flattenBatch: observation %v: %v",
					i, err)
			}
			data = append(data, flat...)
		}
		return tensor.New(tensor.WithShape(len(obs), b.flatDim),
			tensor.WithBacking(data)), nil

	case *tensor.Dense:
		if obs.Dims() < 2 {
			return nil, fmt.Errorf("flattenBatch: batch tensor must have "+
				"rank of at least 2 \n\thave(%v)", obs.Dims())
		}
		batch := obs.Shape()[0]
		backing, ok := obs.Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("flattenBatch: expected float64 "+
				"observations, got %T", obs.Data())
		}
		if len(backing) != batch*b.flatDim {
			return nil, fmt.Errorf("flattenBatch: invalid batch size "+
				"\n\twant(%v) \n\thave(%v)", batch*b.flatDim, len(backing))
		}
		data := make([]float64, len(backing))
		copy(data, backing)
		return tensor.New(tensor.WithShape(batch, b.flatDim),
			tensor.WithBacking(data)), nil

	default:
		return nil, fmt.Errorf("flattenBatch: cannot flatten observations "+
			"of type %T", observations)
	}
}
