package main

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/environment"
	"github.com/samuelfneumann/gopolicy/network"
	"github.com/samuelfneumann/gopolicy/policy"
)

func main() {
	var seed uint64 = 192382

	// Observation space: 2x2 raw observations, flattened to 4 features
	bound := r1.Interval{Min: -1.0, Max: 1.0}
	space, err := environment.NewBox([]int{2, 2},
		[]r1.Interval{bound, bound, bound, bound})
	if err != nil {
		log.Fatal(err)
	}

	// Two-dimensional continuous actions in [-1, 1]
	actionSpec := environment.NewSpec(
		mat.NewVecDense(2, nil),
		environment.Action,
		mat.NewVecDense(2, []float64{-1.0, -1.0}),
		mat.NewVecDense(2, []float64{1.0, 1.0}),
		environment.Continuous,
	)

	model, err := policy.NewGaussianMLP(
		space.ObservationSpec(),
		actionSpec,
		[]int{64, 64},
		[]bool{true, true},
		[]*network.Activation{network.ReLU(), network.ReLU()},
		G.GlorotN(1.0),
		seed,
	)
	if err != nil {
		log.Fatal(err)
	}

	pol, err := policy.New(space, model)
	if err != nil {
		log.Fatal(err)
	}

	// Action space, used to clip sampled actions into bounds
	actionBox, err := environment.NewBox([]int{2}, []r1.Interval{bound, bound})
	if err != nil {
		log.Fatal(err)
	}

	// A single observation in raw 2x2 form
	action, info, err := pol.GetAction(policy.Raw{
		Value: [][]float64{{0.1, -0.2}, {0.3, 0.05}},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("action:", mat.Formatted(actionBox.Clip(action)))
	fmt.Println("mean:  ", mat.Formatted(info[policy.MeanKey]))

	// A batch of three flat observations
	batch := policy.Sequence{Elems: []*tensor.Dense{
		tensor.New(tensor.WithBacking([]float64{0.1, -0.2, 0.3, 0.05})),
		tensor.New(tensor.WithBacking([]float64{0.0, 0.0, 0.0, 0.0})),
		tensor.New(tensor.WithBacking([]float64{-0.5, 0.9, -0.1, 0.7})),
	}}
	actions, batchInfo, err := pol.GetActions(batch)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("actions:", mat.Formatted(actions))
	fmt.Println("log std:", mat.Formatted(batchInfo[policy.LogStdKey]))
}
