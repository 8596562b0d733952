package distribution

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
	"gorgonia.org/tensor"
)

// Categorical implements a batch categorical distribution over
// discrete actions. Each row of the weights tensor holds the
// non-negative, not necessarily normalized sampling weights of the
// actions for one batch entry.
type Categorical struct {
	weights *tensor.Dense
	src     rand.Source
	batch   int
	actions int
}

// NewCategorical returns a new batch categorical distribution
// parameterized by the rank 2 weights tensor of shape
// (batch, numActions), seeded with seed.
func NewCategorical(weights *tensor.Dense, seed uint64) (*Categorical, error) {
	if weights == nil {
		return nil, fmt.Errorf("newCategorical: nil weights")
	}
	if weights.Dims() != 2 {
		return nil, fmt.Errorf("newCategorical: weights must have rank 2 "+
			"\n\thave(%v)", weights.Dims())
	}

	return &Categorical{
		weights: weights,
		src:     rand.NewSource(seed),
		batch:   weights.Shape()[0],
		actions: weights.Shape()[1],
	}, nil
}

// Sample draws one action index per batch entry, returning a tensor of
// shape (batch, 1) holding the drawn indices.
func (c *Categorical) Sample() (*tensor.Dense, error) {
	backing, ok := c.weights.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("sample: expected float64 weights, got %T",
			c.weights.Data())
	}

	drawn := make([]float64, c.batch)
	row := make([]float64, c.actions)
	for i := 0; i < c.batch; i++ {
		// sampleuv.Weighted consumes weights as it samples, so each
		// row gets a fresh copy
		copy(row, backing[i*c.actions:(i+1)*c.actions])
		index, ok := sampleuv.NewWeighted(row, c.src).Take()
		if !ok {
			return nil, fmt.Errorf("sample: no actions with positive "+
				"weight in batch entry %v", i)
		}
		drawn[i] = float64(index)
	}

	return tensor.New(tensor.WithShape(c.batch, 1),
		tensor.WithBacking(drawn)), nil
}
