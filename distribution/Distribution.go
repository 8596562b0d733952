// Package distribution implements batch probability distributions over
// actions. A model predicts one distribution per forward pass, and a
// policy draws one action per batch entry from it.
package distribution

import "gorgonia.org/tensor"

// Distribution represents a batch probability distribution over
// actions. Sample draws one value per batch entry, returning a tensor
// whose leading axis is the batch axis. No further structure - means,
// variances, densities - is required of a Distribution.
type Distribution interface {
	Sample() (*tensor.Dense, error)
}
