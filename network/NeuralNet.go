// Package network implements the neural network function approximators
// that back policy models
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet outlines the neural networks used to predict distribution
// parameters from batches of canonical observations.
//
// A NeuralNet is built for a fixed batch size. Running a forward pass
// on a different batch size requires cloning the network with
// CloneWithBatch, which copies the network weights onto a fresh
// computational graph with a new input shape.
//
// SetInput sets the value of the network's input node from a row major
// flattening of a (batch, features) matrix. After a VM of the
// network's graph has been run, Output holds the value predicted by
// each output head.
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() []int
	SetInput([]float64) error
	CloneWithBatch(int) (NeuralNet, error)
	Learnables() G.Nodes
	Prediction() []*G.Node
	Output() []G.Value
}
