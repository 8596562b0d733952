package environment

import "gorgonia.org/tensor"

// Space represents an observation space. A Space knows the canonical
// flat dimensionality of a single observation and how to flatten raw
// observation values - one at a time or in batches - into that
// canonical form.
//
// Flatten produces a rank 1 tensor of FlatDim() elements from a single
// raw observation. FlattenBatch produces a rank 2 tensor of shape
// (batch, FlatDim()) from a batch of raw observations. Both return an
// error when given a value they cannot interpret or whose size does
// not match the space.
type Space interface {
	FlatDim() int
	Flatten(observation interface{}) (*tensor.Dense, error)
	FlattenBatch(observations interface{}) (*tensor.Dense, error)
}
