package policy

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/distribution"
	"github.com/samuelfneumann/gopolicy/environment"
	"github.com/samuelfneumann/gopolicy/network"
)

func newActionSpec(dims int, cardinality environment.Cardinality,
) environment.Spec {
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := range low {
		low[i] = -1.0
		high[i] = 1.0
	}
	return environment.NewSpec(mat.NewVecDense(dims, nil),
		environment.Action, mat.NewVecDense(dims, low),
		mat.NewVecDense(dims, high), cardinality)
}

func newTestGaussianMLP(t *testing.T) *GaussianMLP {
	t.Helper()
	space := newTestSpace(t)
	model, err := NewGaussianMLP(
		space.ObservationSpec(),
		newActionSpec(2, environment.Continuous),
		[]int{8},
		[]bool{true},
		[]*network.Activation{network.TanH()},
		G.GlorotN(1.0),
		192382,
	)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}
	return model
}

func TestNewGaussianMLPDiscreteActions(t *testing.T) {
	space := newTestSpace(t)
	_, err := NewGaussianMLP(
		space.ObservationSpec(),
		newActionSpec(2, environment.Discrete),
		[]int{8},
		[]bool{true},
		[]*network.Activation{network.TanH()},
		G.GlorotN(1.0),
		192382,
	)
	if err == nil {
		t.Error("expected error for discrete actions")
	}
}

func TestGaussianMLPForward(t *testing.T) {
	model := newTestGaussianMLP(t)

	for _, batch := range []int{1, 3} {
		observations := tensor.New(tensor.WithShape(batch, 4),
			tensor.WithBacking(make([]float64, batch*4)))

		dist, info, err := model.Forward(Input{
			Mode:         Rollout,
			Observations: observations,
		})
		if err != nil {
			t.Fatalf("batch %v: could not run forward pass: %v", batch, err)
		}

		if _, ok := dist.(*distribution.Gaussian); !ok {
			t.Fatalf("batch %v: expected gaussian distribution, got %T",
				batch, dist)
		}

		for _, key := range []string{MeanKey, LogStdKey} {
			value, ok := info[key]
			if !ok {
				t.Fatalf("batch %v: missing statistic %q", batch, key)
			}
			if value.Shape()[0] != batch || value.Shape()[1] != 2 {
				t.Errorf("batch %v: invalid shape for %q \n\twant(%v, 2) "+
					"\n\thave(%v)", batch, key, batch, value.Shape())
			}
		}

		sample, err := dist.Sample()
		if err != nil {
			t.Fatalf("batch %v: could not sample: %v", batch, err)
		}
		if sample.Shape()[0] != batch || sample.Shape()[1] != 2 {
			t.Errorf("batch %v: invalid sample shape \n\twant(%v, 2) "+
				"\n\thave(%v)", batch, batch, sample.Shape())
		}
	}
}

func TestGaussianMLPForwardDeterministicParameters(t *testing.T) {
	model := newTestGaussianMLP(t)

	observations := []float64{0.1, -0.2, 0.3, 0.05}
	var means [2][]float64
	for trial := 0; trial < 2; trial++ {
		obs := tensor.New(tensor.WithShape(1, 4),
			tensor.WithBacking(append([]float64(nil), observations...)))
		_, info, err := model.Forward(Input{Mode: Rollout,
			Observations: obs})
		if err != nil {
			t.Fatalf("trial %v: could not run forward pass: %v", trial, err)
		}
		mean := info[MeanKey].Data().([]float64)
		means[trial] = append([]float64(nil), mean...)
	}

	for i := range means[0] {
		if means[0][i] != means[1][i] {
			t.Errorf("element %v: identical observations should predict "+
				"identical means \n\thave(%v, %v)", i, means[0][i],
				means[1][i])
		}
	}
}

func TestGaussianMLPForwardInvalid(t *testing.T) {
	model := newTestGaussianMLP(t)

	if _, _, err := model.Forward(Input{Mode: Rollout}); err == nil {
		t.Error("expected error for missing observations")
	}

	vector := tensor.New(tensor.WithBacking(make([]float64, 4)))
	_, _, err := model.Forward(Input{Mode: Rollout, Observations: vector})
	if err == nil {
		t.Error("expected error for rank 1 observations")
	}

	wide := tensor.New(tensor.WithShape(1, 6),
		tensor.WithBacking(make([]float64, 6)))
	_, _, err = model.Forward(Input{Mode: Rollout, Observations: wide})
	if err == nil {
		t.Error("expected error for wrong number of features")
	}
}

func TestGaussianMLPModeSwitching(t *testing.T) {
	model := newTestGaussianMLP(t)

	if model.IsEval() {
		t.Error("model should start in training mode")
	}
	model.Eval()
	if !model.IsEval() {
		t.Error("model should be in evaluation mode after Eval")
	}
	model.Train()
	if model.IsEval() {
		t.Error("model should be in training mode after Train")
	}
}

// TestStochasticPolicyWithGaussianMLP runs the full protocol against
// the gorgonia-backed model: observation space dimensionality 4,
// action dimensionality 2.
func TestStochasticPolicyWithGaussianMLP(t *testing.T) {
	space := newTestSpace(t)
	model := newTestGaussianMLP(t)
	pol, err := New(space, model)
	if err != nil {
		t.Fatalf("could not create policy: %v", err)
	}

	// Single flat pre-normalized observation: action of shape (2,) and
	// statistics of shape (2,) each, no batch axis visible
	action, info, err := pol.GetAction(Flat{
		Data: []float64{0.1, -0.2, 0.3, 0.05},
	})
	if err != nil {
		t.Fatalf("could not get action: %v", err)
	}
	if action.Len() != 2 {
		t.Errorf("invalid action length \n\twant(2) \n\thave(%v)",
			action.Len())
	}
	for _, key := range []string{MeanKey, LogStdKey} {
		value, ok := info[key]
		if !ok {
			t.Fatalf("missing statistic %q", key)
		}
		if value.Len() != 2 {
			t.Errorf("invalid length for %q \n\twant(2) \n\thave(%v)", key,
				value.Len())
		}
	}

	// Batch of three raw observations: actions of shape 3x2 and
	// statistics of shape 3x2 each
	actions, batchInfo, err := pol.GetActions(RawBatch{
		Values: []interface{}{
			[][]float64{{0.1, -0.2}, {0.3, 0.05}},
			[][]float64{{0.0, 0.0}, {0.0, 0.0}},
			[][]float64{{-0.5, 0.9}, {-0.1, 0.7}},
		},
	})
	if err != nil {
		t.Fatalf("could not get actions: %v", err)
	}
	rows, cols := actions.Dims()
	if rows != 3 || cols != 2 {
		t.Errorf("invalid action shape \n\twant(3 x 2) \n\thave(%v x %v)",
			rows, cols)
	}
	for name, value := range batchInfo {
		r, c := value.Dims()
		if r != 3 || c != 2 {
			t.Errorf("invalid shape for %q \n\twant(3 x 2) "+
				"\n\thave(%v x %v)", name, r, c)
		}
	}
}
