package policy

import "gorgonia.org/tensor"

// Mode denotes the execution mode a model is asked to run its forward
// computation under.
type Mode int

const (
	// Rollout asks the model for an action distribution to sample
	// from during inference. No gradient history is needed.
	Rollout Mode = iota

	// Train asks the model for a forward pass used in a learning
	// update.
	Train
)

func (m Mode) String() string {
	switch m {
	case Rollout:
		return "Rollout"
	case Train:
		return "Train"
	default:
		return "Unknown"
	}
}

// Input is the sole argument to a model's forward computation: an
// execution mode paired with a batch of canonical observations of
// shape (batch, features).
type Input struct {
	Mode         Mode
	Observations *tensor.Dense
}
