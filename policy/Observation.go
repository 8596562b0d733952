// Package policy implements stochastic policies: the protocol that
// turns raw environment observations into sampled actions and
// auxiliary per-action statistics, using an action distribution
// predicted by a model.
package policy

import (
	"errors"
	"fmt"

	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/environment"
	"github.com/samuelfneumann/gopolicy/utils/tensorutils"
)

// errEmptyBatch is returned when normalizing a batch with no
// observations. There is no defensible shape to fabricate for an empty
// batch, so normalization refuses it outright.
var errEmptyBatch = errors.New("empty observation batch")

// Observation is a single environment observation in one of the
// supported encodings. Exactly one of Raw, Flat, or Array is used for
// any one observation.
type Observation interface {
	isObservation()
}

// Raw is an observation in the raw, structured form produced by an
// environment. Its value is interpreted by the observation space.
type Raw struct {
	Value interface{}
}

// Flat is an observation already in canonical flat numeric form.
type Flat struct {
	Data []float64
}

// Array is an observation in numeric tensor form, of any rank.
type Array struct {
	Tensor *tensor.Dense
}

func (Raw) isObservation()   {}
func (Flat) isObservation()  {}
func (Array) isObservation() {}

// Batch is an ordered batch of observations in one of the supported
// encodings. Every observation in a batch must use the same encoding
// and have the same canonical shape: normalization inspects only the
// first element to decide how the whole batch is handled.
type Batch interface {
	isBatch()
}

// RawBatch is a batch of observations in raw, structured form, one
// element per observation.
type RawBatch struct {
	Values []interface{}
}

// Stacked is a batch already stacked into a single numeric tensor
// whose leading axis is the batch axis.
type Stacked struct {
	Tensor *tensor.Dense
}

// Sequence is a batch held as a plain sequence of numeric tensors, one
// element per observation.
type Sequence struct {
	Elems []*tensor.Dense
}

func (RawBatch) isBatch() {}
func (Stacked) isBatch()  {}
func (Sequence) isBatch() {}

// normalizeObservation canonicalizes a single observation into a rank
// 1 tensor of space.FlatDim() elements.
//
// The encoding rules are applied in precedence order: raw observations
// are flattened by the observation space; numeric observations whose
// rank exceeds 1 are flattened by the observation space; anything else
// is already canonical and passes through unchanged.
func normalizeObservation(space environment.Space,
	observation Observation) (*tensor.Dense, error) {
	switch obs := observation.(type) {
	case Raw:
		return space.Flatten(obs.Value)

	case Flat:
		if len(obs.Data) == 0 {
			return nil, fmt.Errorf("normalizeObservation: empty observation")
		}
		return tensor.New(tensor.WithShape(len(obs.Data)),
			tensor.WithBacking(obs.Data)), nil

	case Array:
		if obs.Tensor == nil {
			return nil, fmt.Errorf("normalizeObservation: nil observation " +
				"tensor")
		}
		if obs.Tensor.Dims() > 1 {
			return space.Flatten(obs.Tensor)
		}
		return obs.Tensor, nil

	case nil:
		return nil, fmt.Errorf("normalizeObservation: nil observation")

	default:
		return nil, fmt.Errorf("normalizeObservation: unsupported "+
			"observation encoding %T", observation)
	}
}

// normalizeBatch canonicalizes a batch of observations into a rank 2
// tensor of shape (batch, space.FlatDim()).
//
// The encoding rules are applied in precedence order: raw batches are
// flattened by the observation space; sequences are stacked into a
// single batch tensor first, flattening through the observation space
// when the elements have rank above 1; stacked tensors of rank above 2
// are flattened by the observation space; anything else is already
// canonical and passes through unchanged.
func normalizeBatch(space environment.Space,
	batch Batch) (*tensor.Dense, error) {
	switch obs := batch.(type) {
	case RawBatch:
		if len(obs.Values) == 0 {
			return nil, errEmptyBatch
		}
		return space.FlattenBatch(obs.Values)

	case Sequence:
		if len(obs.Elems) == 0 {
			return nil, errEmptyBatch
		}
		if obs.Elems[0] == nil {
			return nil, fmt.Errorf("normalizeBatch: nil observation tensor")
		}
		if obs.Elems[0].Dims() > 1 {
			return space.FlattenBatch(obs.Elems)
		}
		return tensorutils.Stack(obs.Elems)

	case Stacked:
		if obs.Tensor == nil {
			return nil, fmt.Errorf("normalizeBatch: nil batch tensor")
		}
		switch {
		case obs.Tensor.Dims() > 2:
			return space.FlattenBatch(obs.Tensor)
		case obs.Tensor.Dims() == 2:
			return obs.Tensor, nil
		default:
			return nil, fmt.Errorf("normalizeBatch: stacked batch must "+
				"have rank of at least 2 \n\thave(%v)", obs.Tensor.Dims())
		}

	case nil:
		return nil, fmt.Errorf("normalizeBatch: nil batch")

	default:
		return nil, fmt.Errorf("normalizeBatch: unsupported batch "+
			"encoding %T", batch)
	}
}
