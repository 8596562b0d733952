package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// multiHeadMLP implements a multi-layered perceptron with multiple
// output heads. A shared stack of hidden layers feeds one linear
// output layer per head, so that a single forward pass predicts all
// heads at once - for example, the mean and log standard deviation of
// a Gaussian policy.
type multiHeadMLP struct {
	g      *G.ExprGraph
	hidden []Layer
	heads  []Layer
	input  *G.Node

	features  int
	batchSize int
	outputs   []int

	hiddenSizes []int
	biases      []bool
	activations []*Activation

	predictions []*G.Node
	predVals    []G.Value

	learnables G.Nodes
}

// NewMultiHeadMLP creates and returns a new multi-layered perceptron
// with one linear output layer per element of outputs. The graph
// parameter g is populated with the MLP.
//
// The MLP has len(hiddenSizes) shared hidden layers followed by the
// output heads. For index i, hiddenSizes[i] is the number of nodes in
// hidden layer i; biases[i] is true if hidden layer i contains a bias
// unit; and activations[i] is the activation function of hidden layer
// i. Each output head is a linear layer with a bias unit and no
// activation, predicting outputs[j] values for head j. The parameter
// init determines the weight initialization scheme.
func NewMultiHeadMLP(features, batch int, outputs []int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newmultiheadmlp: illegal number of "+
			"features %v", features)
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newmultiheadmlp: illegal batch size %v",
			batch)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("newmultiheadmlp: at least one output " +
			"head required")
	}
	for _, out := range outputs {
		if out <= 0 {
			return nil, fmt.Errorf("newmultiheadmlp: illegal output head "+
				"size %v", out)
		}
	}

	// Ensure we have one activation per layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmultiheadmlp: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias bool per layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmultiheadmlp: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Build the shared hidden layers
	hidden := make([]Layer, len(hiddenSizes))
	in := features
	for i, size := range hiddenSizes {
		hidden[i] = newFCLayer(g, in, size, biases[i], activations[i], init,
			fmt.Sprintf("Hidden%d", i))
		in = size
	}

	// Build one linear output layer per head
	heads := make([]Layer, len(outputs))
	for j, size := range outputs {
		heads[j] = newFCLayer(g, in, size, true, Identity(), init,
			fmt.Sprintf("Head%d", j))
	}

	network := &multiHeadMLP{
		g:           g,
		hidden:      hidden,
		heads:       heads,
		input:       input,
		features:    features,
		batchSize:   batch,
		outputs:     outputs,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmultiheadmlp: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// fwd adds the forward pass of the network on the argument input node
// to the computational graph, recording the prediction node and value
// of each output head.
func (e *multiHeadMLP) fwd(input *G.Node) error {
	x := input
	var err error
	for i, layer := range e.hidden {
		if x, err = layer.fwd(x); err != nil {
			return fmt.Errorf("fwd: hidden layer %v: %v", i, err)
		}
	}

	e.predictions = make([]*G.Node, len(e.heads))
	e.predVals = make([]G.Value, len(e.heads))
	for j, head := range e.heads {
		pred, err := head.fwd(x)
		if err != nil {
			return fmt.Errorf("fwd: output head %v: %v", j, err)
		}
		e.predictions[j] = pred
		G.Read(pred, &e.predVals[j])
	}
	return nil
}

// Graph returns the computational graph of the multiHeadMLP.
func (e *multiHeadMLP) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the batch size of inputs to the network
func (e *multiHeadMLP) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input
// observation
func (e *multiHeadMLP) Features() int {
	return e.features
}

// Outputs returns the number of values predicted by each output head
func (e *multiHeadMLP) Outputs() []int {
	outputs := make([]int, len(e.outputs))
	copy(outputs, e.outputs)
	return outputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *multiHeadMLP) SetInput(input []float64) error {
	if len(input) != e.features*e.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.features*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// CloneWithBatch clones the multiHeadMLP, copying its weights onto a
// new computational graph whose input node has the argument batch
// size.
func (e *multiHeadMLP) CloneWithBatch(batch int) (NeuralNet, error) {
	if batch <= 0 {
		return nil, fmt.Errorf("clonewithbatch: illegal batch size %v",
			batch)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batch, e.features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	hidden := make([]Layer, len(e.hidden))
	for i, layer := range e.hidden {
		hidden[i] = layer.CloneTo(graph)
	}
	heads := make([]Layer, len(e.heads))
	for j, head := range e.heads {
		heads[j] = head.CloneTo(graph)
	}

	network := &multiHeadMLP{
		g:           graph,
		hidden:      hidden,
		heads:       heads,
		input:       input,
		features:    e.features,
		batchSize:   batch,
		outputs:     e.Outputs(),
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return network, nil
}

// Learnables returns the nodes of the network whose values are learned
func (e *multiHeadMLP) Learnables() G.Nodes {
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables collects the weight and bias nodes of every layer
func (e *multiHeadMLP) computeLearnables() G.Nodes {
	var learnables G.Nodes
	for _, layer := range e.hidden {
		learnables = append(learnables, layer.Weights())
		if layer.Bias() != nil {
			learnables = append(learnables, layer.Bias())
		}
	}
	for _, head := range e.heads {
		learnables = append(learnables, head.Weights())
		if head.Bias() != nil {
			learnables = append(learnables, head.Bias())
		}
	}
	return learnables
}

// Prediction returns the node of each output head that holds the
// head's prediction when the computational graph is run.
func (e *multiHeadMLP) Prediction() []*G.Node {
	return e.predictions
}

// Output returns the value predicted by each output head. Only valid
// after a VM of the network's graph has been run.
func (e *multiHeadMLP) Output() []G.Value {
	return e.predVals
}
