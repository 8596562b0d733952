package distribution

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/utils/floatutils"
)

// Gaussian implements a batch diagonal Gaussian distribution over
// continuous actions. Each row of the mean and stddev tensors
// parameterizes the distribution for one batch entry.
//
// Actions are selected by sampling from the standard normal
// ɛ ~ N(0, 1) and computing action := μ + σ * ɛ, similar to the
// reparameterization trick.
type Gaussian struct {
	mean   *tensor.Dense
	stddev *tensor.Dense
	normal distmv.Rander
	batch  int
	dims   int
}

// StandardNormal returns a standard normal sampler over dims
// dimensions, seeded with seed.
func StandardNormal(dims int, seed uint64) distmv.Rander {
	means := make([]float64, dims)
	stds := mat.NewDiagDense(dims, floatutils.Ones(dims))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		panic("standardNormal: could not create standard normal for " +
			"action selection")
	}
	return normal
}

// NewGaussian returns a new batch Gaussian parameterized by the rank 2
// mean and stddev tensors, both of shape (batch, actionDims). The
// normal argument provides the standard normal draws used for
// sampling; it must cover actionDims dimensions.
func NewGaussian(mean, stddev *tensor.Dense,
	normal distmv.Rander) (*Gaussian, error) {
	if mean == nil || stddev == nil {
		return nil, fmt.Errorf("newGaussian: nil distribution parameters")
	}
	if mean.Dims() != 2 || stddev.Dims() != 2 {
		return nil, fmt.Errorf("newGaussian: parameters must have rank 2 "+
			"\n\thave mean(%v) stddev(%v)", mean.Dims(), stddev.Dims())
	}
	if !mean.Shape().Eq(stddev.Shape()) {
		return nil, fmt.Errorf("newGaussian: mean shape %v does not match "+
			"stddev shape %v", mean.Shape(), stddev.Shape())
	}

	return &Gaussian{
		mean:   mean,
		stddev: stddev,
		normal: normal,
		batch:  mean.Shape()[0],
		dims:   mean.Shape()[1],
	}, nil
}

// Sample draws one action per batch entry, returning a tensor of shape
// (batch, actionDims).
func (g *Gaussian) Sample() (*tensor.Dense, error) {
	meanData, ok := g.mean.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("sample: expected float64 mean, got %T",
			g.mean.Data())
	}
	stdData, ok := g.stddev.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("sample: expected float64 stddev, got %T",
			g.stddev.Data())
	}

	actions := make([]float64, g.batch*g.dims)
	eps := make([]float64, g.dims)
	for i := 0; i < g.batch; i++ {
		g.normal.Rand(eps)
		for j := 0; j < g.dims; j++ {
			k := i*g.dims + j
			actions[k] = meanData[k] + stdData[k]*eps[j]
		}
	}

	return tensor.New(tensor.WithShape(g.batch, g.dims),
		tensor.WithBacking(actions)), nil
}
