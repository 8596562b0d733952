package policy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/distribution"
	"github.com/samuelfneumann/gopolicy/environment"
	"github.com/samuelfneumann/gopolicy/utils/tensorutils"
)

// Model is the trainable collaborator of a StochasticPolicy. Forward
// maps a batch of canonical observations to an action distribution and
// a mapping of auxiliary named statistics, one row per batch entry.
// The returned tensors need not be detached from the model: they may
// alias storage the model reuses on its next forward pass, and the
// policy copies them before handing anything to a caller.
//
// Eval, Train and IsEval switch the model between evaluation and
// training mode. In evaluation mode a model must not build gradient
// history for its forward computation.
type Model interface {
	Forward(Input) (distribution.Distribution, map[string]*tensor.Dense,
		error)
	Eval()
	Train()
	IsEval() bool
}

// AgentInfo maps auxiliary statistic names, such as the mean or log
// standard deviation of the action distribution, to batches of values
// with one row per batch entry.
type AgentInfo map[string]*mat.Dense

// StepInfo maps auxiliary statistic names to their values for a single
// sampled action.
type StepInfo map[string]*mat.VecDense

// StochasticPolicy selects actions by sampling from the action
// distribution a model predicts for a batch of observations. It
// accepts observations in any supported encoding, canonicalizes them,
// runs the model's forward computation in evaluation mode, and returns
// actions and auxiliary statistics as plain gonum values that share no
// memory with the model.
//
// A StochasticPolicy holds no mutable state of its own: the model is
// treated as a read-only collaborator, so concurrent use is safe
// exactly when the model's forward computation is reentrant.
type StochasticPolicy struct {
	space environment.Space
	model Model
}

// New returns a new StochasticPolicy selecting actions with the
// argument model over the argument observation space.
func New(space environment.Space, model Model) (*StochasticPolicy, error) {
	if space == nil {
		return nil, fmt.Errorf("newStochasticPolicy: no observation space")
	}
	if model == nil {
		return nil, fmt.Errorf("newStochasticPolicy: no model")
	}
	return &StochasticPolicy{space: space, model: model}, nil
}

// GetActions selects one action per observation in the argument batch.
// It returns the sampled actions as a (batch, actionDims) matrix and
// the model's auxiliary statistics with one row per batch entry.
// Either a fully formed result is returned or an error; there are no
// partial results and no retries.
func (p *StochasticPolicy) GetActions(batch Batch) (*mat.Dense, AgentInfo,
	error) {
	observations, err := normalizeBatch(p.space, batch)
	if err != nil {
		return nil, nil, err
	}

	// The forward pass and sampling run in evaluation mode; the
	// previous mode is restored on every exit path, panics included
	restore := evalScope(p.model)
	defer restore()

	dist, infoMap, err := p.model.Forward(Input{
		Mode:         Rollout,
		Observations: observations,
	})
	if err != nil {
		return nil, nil, err
	}

	sample, err := dist.Sample()
	if err != nil {
		return nil, nil, err
	}

	actions, err := tensorutils.ToMat(sample)
	if err != nil {
		return nil, nil, err
	}

	info := make(AgentInfo, len(infoMap))
	for name, value := range infoMap {
		host, err := tensorutils.ToMat(value)
		if err != nil {
			return nil, nil, err
		}
		info[name] = host
	}

	return actions, info, nil
}

// GetAction selects a single action for a single observation. The
// observation is canonicalized, wrapped into a batch of size one and
// delegated to GetActions; the returned action and statistics are the
// first and only batch entry, with no batch axis visible to the
// caller.
func (p *StochasticPolicy) GetAction(observation Observation) (*mat.VecDense,
	StepInfo, error) {
	canonical, err := normalizeObservation(p.space, observation)
	if err != nil {
		return nil, nil, err
	}

	flat, ok := canonical.Data().([]float64)
	if !ok {
		return nil, nil, fmt.Errorf("getAction: expected float64 "+
			"observation, got %T", canonical.Data())
	}

	// Synthesize a batch of size 1
	batched := tensor.New(tensor.WithShape(1, len(flat)),
		tensor.WithBacking(flat))

	actions, batchInfo, err := p.GetActions(Stacked{Tensor: batched})
	if err != nil {
		return nil, nil, err
	}

	_, dims := actions.Dims()
	action := mat.NewVecDense(dims, mat.Row(nil, 0, actions))

	info := make(StepInfo, len(batchInfo))
	for name, value := range batchInfo {
		_, cols := value.Dims()
		info[name] = mat.NewVecDense(cols, mat.Row(nil, 0, value))
	}

	return action, info, nil
}

// evalScope puts the model into evaluation mode and returns a function
// restoring the mode the model was in before. Intended use:
//
//	restore := evalScope(model)
//	defer restore()
func evalScope(model Model) func() {
	wasEval := model.IsEval()
	model.Eval()
	return func() {
		if !wasEval {
			model.Train()
		}
	}
}
