package policy

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/distribution"
	"github.com/samuelfneumann/gopolicy/environment"
	"github.com/samuelfneumann/gopolicy/network"
)

// For stability, the standard deviation of the Gaussian distribution
// should be offset from 0.
const stdOffset float64 = 1e-3

// Keys of the auxiliary statistics a GaussianMLP reports with every
// forward pass.
const (
	MeanKey   string = "mean"
	LogStdKey string = "log_std"
)

// GaussianMLP implements a Gaussian policy model parameterized by a
// multi-head MLP. A shared stack of hidden layers feeds two output
// heads: one predicts the mean and the other the log standard
// deviation of a diagonal Gaussian over continuous actions.
//
// Forward computations are run on a tape machine that computes the
// forward pass only, so no gradient history is ever built for
// inference. Networks are built for a fixed batch size; a GaussianMLP
// lazily clones its network once per distinct batch size it is asked
// to serve and reuses the clones on later calls.
type GaussianMLP struct {
	features   int
	actionDims int
	normal     distmv.Rander
	eval       bool

	base network.NeuralNet
	nets map[int]*gaussianNet
}

// gaussianNet bundles a network clone for one batch size with its
// tape machine and the value of the (offset) standard deviation node.
type gaussianNet struct {
	net    network.NeuralNet
	vm     G.VM
	stdVal G.Value
}

// newGaussianNet wires the standard deviation node into the network's
// graph and creates the tape machine that runs it. The network's
// second output head is interpreted as the log standard deviation.
func newGaussianNet(net network.NeuralNet) *gaussianNet {
	logStd := net.Prediction()[1]

	// Calculate the standard deviation and offset it for numerical
	// stability
	offset := G.NewConstant(stdOffset)
	std := G.Must(G.Exp(logStd))
	std = G.Must(G.Add(offset, std))

	gn := &gaussianNet{net: net}
	G.Read(std, &gn.stdVal)
	gn.vm = G.NewTapeMachine(net.Graph())

	return gn
}

// NewGaussianMLP returns a new GaussianMLP predicting action
// distributions for the argument action specification from
// observations of the argument observation specification.
//
// The MLP parameterization is defined by hiddenSizes, biases and
// activations, as in network.NewMultiHeadMLP. The init parameter
// determines the weight initialization scheme and the seed parameter
// seeds the model's action sampler.
func NewGaussianMLP(obsSpec, actionSpec environment.Spec, hiddenSizes []int,
	biases []bool, activations []*network.Activation, init G.InitWFn,
	seed uint64) (*GaussianMLP, error) {
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newGaussianMLP: gaussian policy requires " +
			"continuous actions")
	}

	features := obsSpec.Shape.Len()
	actionDims := actionSpec.Shape.Len()

	base, err := network.NewMultiHeadMLP(features, 1,
		[]int{actionDims, actionDims}, G.NewGraph(), hiddenSizes, biases,
		init, activations)
	if err != nil {
		return nil, fmt.Errorf("newGaussianMLP: could not create policy "+
			"network: %v", err)
	}

	g := &GaussianMLP{
		features:   features,
		actionDims: actionDims,
		normal:     distribution.StandardNormal(actionDims, seed),
		base:       base,
		nets:       map[int]*gaussianNet{1: newGaussianNet(base)},
	}

	return g, nil
}

// Forward runs the model's forward computation on a batch of canonical
// observations, returning the predicted Gaussian action distribution
// and the mean and log standard deviation that parameterize it. The
// returned tensors alias the network's output storage and are only
// valid until the next forward pass; callers must copy what they keep.
func (g *GaussianMLP) Forward(input Input) (distribution.Distribution,
	map[string]*tensor.Dense, error) {
	observations := input.Observations
	if observations == nil {
		return nil, nil, fmt.Errorf("forward: no observations")
	}
	if observations.Dims() != 2 {
		return nil, nil, fmt.Errorf("forward: observations must have rank "+
			"2 \n\thave(%v)", observations.Dims())
	}
	if observations.Shape()[1] != g.features {
		return nil, nil, fmt.Errorf("forward: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", g.features, observations.Shape()[1])
	}

	batch := observations.Shape()[0]
	gn, err := g.forBatch(batch)
	if err != nil {
		return nil, nil, err
	}

	flat, ok := observations.Data().([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("forward: expected float64 "+
			"observations, got %T", observations.Data())
	}
	if err := gn.net.SetInput(flat); err != nil {
		return nil, nil, err
	}

	// Reset before running, not after: the output tensors must stay
	// readable until the next forward pass on this clone
	gn.vm.Reset()
	if err := gn.vm.RunAll(); err != nil {
		return nil, nil, fmt.Errorf("forward: could not run policy "+
			"network: %v", err)
	}

	mean, ok := gn.net.Output()[0].(*tensor.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("forward: expected dense mean, got %T",
			gn.net.Output()[0])
	}
	logStd, ok := gn.net.Output()[1].(*tensor.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("forward: expected dense log stddev, "+
			"got %T", gn.net.Output()[1])
	}
	std, ok := gn.stdVal.(*tensor.Dense)
	if !ok {
		return nil, nil, fmt.Errorf("forward: expected dense stddev, "+
			"got %T", gn.stdVal)
	}

	dist, err := distribution.NewGaussian(mean, std, g.normal)
	if err != nil {
		return nil, nil, err
	}

	info := map[string]*tensor.Dense{
		MeanKey:   mean,
		LogStdKey: logStd,
	}

	return dist, info, nil
}

// forBatch returns the network clone serving the argument batch size,
// creating it on first use.
func (g *GaussianMLP) forBatch(batch int) (*gaussianNet, error) {
	if gn, ok := g.nets[batch]; ok {
		return gn, nil
	}

	net, err := g.base.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("forBatch: could not clone policy network "+
			"to batch size %v: %v", batch, err)
	}

	gn := newGaussianNet(net)
	g.nets[batch] = gn
	return gn, nil
}

// ActionDims returns the dimensionality of the actions the model
// predicts distributions over.
func (g *GaussianMLP) ActionDims() int {
	return g.actionDims
}

// Features returns the canonical observation dimensionality the model
// expects.
func (g *GaussianMLP) Features() int {
	return g.features
}

// Eval sets the model to evaluation mode
func (g *GaussianMLP) Eval() {
	g.eval = true
}

// Train sets the model to training mode
func (g *GaussianMLP) Train() {
	g.eval = false
}

// IsEval indicates if the model is in evaluation mode
func (g *GaussianMLP) IsEval() bool {
	return g.eval
}
