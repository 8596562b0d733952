package policy

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gopolicy/environment"
)

// newTestSpace returns a Box observation space of 2x2 raw observations
// with a canonical flat dimensionality of 4.
func newTestSpace(t *testing.T) *environment.Box {
	t.Helper()
	bound := r1.Interval{Min: -1.0, Max: 1.0}
	box, err := environment.NewBox([]int{2, 2},
		[]r1.Interval{bound, bound, bound, bound})
	if err != nil {
		t.Fatalf("could not create observation space: %v", err)
	}
	return box
}

func TestNormalizeObservation(t *testing.T) {
	space := newTestSpace(t)
	want := []float64{0.1, -0.2, 0.3, 0.05}

	observations := []Observation{
		Raw{Value: [][]float64{{0.1, -0.2}, {0.3, 0.05}}},
		Flat{Data: []float64{0.1, -0.2, 0.3, 0.05}},
		Array{Tensor: tensor.New(tensor.WithBacking(
			[]float64{0.1, -0.2, 0.3, 0.05}))},
		Array{Tensor: tensor.New(tensor.WithShape(2, 2),
			tensor.WithBacking([]float64{0.1, -0.2, 0.3, 0.05}))},
	}

	for i, obs := range observations {
		canonical, err := normalizeObservation(space, obs)
		if err != nil {
			t.Fatalf("encoding %v: could not normalize: %v", i, err)
		}
		if canonical.Dims() != 1 {
			t.Fatalf("encoding %v: invalid rank \n\twant(1) \n\thave(%v)",
				i, canonical.Dims())
		}
		if canonical.Shape()[0] != space.FlatDim() {
			t.Fatalf("encoding %v: invalid length \n\twant(%v) "+
				"\n\thave(%v)", i, space.FlatDim(), canonical.Shape()[0])
		}
		data := canonical.Data().([]float64)
		for j := range want {
			if data[j] != want[j] {
				t.Errorf("encoding %v: element %v \n\twant(%v) "+
					"\n\thave(%v)", i, j, want[j], data[j])
			}
		}
	}
}

func TestNormalizeObservationPassThrough(t *testing.T) {
	space := newTestSpace(t)

	// A canonical rank 1 tensor must pass through unchanged, not be
	// copied
	canonical := tensor.New(tensor.WithBacking(
		[]float64{0.1, -0.2, 0.3, 0.05}))
	normalized, err := normalizeObservation(space, Array{Tensor: canonical})
	if err != nil {
		t.Fatalf("could not normalize: %v", err)
	}
	if normalized != canonical {
		t.Error("canonical observations should pass through unchanged")
	}
}

func TestNormalizeObservationInvalid(t *testing.T) {
	space := newTestSpace(t)

	if _, err := normalizeObservation(space, nil); err == nil {
		t.Error("expected error for nil observation")
	}
	if _, err := normalizeObservation(space, Flat{}); err == nil {
		t.Error("expected error for empty observation")
	}
	if _, err := normalizeObservation(space, Array{}); err == nil {
		t.Error("expected error for nil observation tensor")
	}
	if _, err := normalizeObservation(space, Raw{Value: 3}); err == nil {
		t.Error("expected error for uninterpretable raw observation")
	}
}

func TestNormalizeBatch(t *testing.T) {
	space := newTestSpace(t)
	const batch = 3

	backing := []float64{
		0.1, -0.2, 0.3, 0.05,
		0.0, 0.0, 0.0, 0.0,
		-0.5, 0.9, -0.1, 0.7,
	}

	batches := []Batch{
		RawBatch{Values: []interface{}{
			[][]float64{{0.1, -0.2}, {0.3, 0.05}},
			[][]float64{{0.0, 0.0}, {0.0, 0.0}},
			[][]float64{{-0.5, 0.9}, {-0.1, 0.7}},
		}},
		Stacked{Tensor: tensor.New(tensor.WithShape(batch, 4),
			tensor.WithBacking(backing))},
		Stacked{Tensor: tensor.New(tensor.WithShape(batch, 2, 2),
			tensor.WithBacking(backing))},
		Sequence{Elems: []*tensor.Dense{
			tensor.New(tensor.WithBacking(backing[:4])),
			tensor.New(tensor.WithBacking(backing[4:8])),
			tensor.New(tensor.WithBacking(backing[8:])),
		}},
		Sequence{Elems: []*tensor.Dense{
			tensor.New(tensor.WithShape(2, 2),
				tensor.WithBacking(backing[:4])),
			tensor.New(tensor.WithShape(2, 2),
				tensor.WithBacking(backing[4:8])),
			tensor.New(tensor.WithShape(2, 2),
				tensor.WithBacking(backing[8:])),
		}},
	}

	for i, b := range batches {
		canonical, err := normalizeBatch(space, b)
		if err != nil {
			t.Fatalf("batch encoding %v: could not normalize: %v", i, err)
		}
		if canonical.Dims() != 2 {
			t.Fatalf("batch encoding %v: invalid rank \n\twant(2) "+
				"\n\thave(%v)", i, canonical.Dims())
		}
		if canonical.Shape()[0] != batch ||
			canonical.Shape()[1] != space.FlatDim() {
			t.Fatalf("batch encoding %v: invalid shape \n\twant(%v, %v) "+
				"\n\thave(%v)", i, batch, space.FlatDim(), canonical.Shape())
		}
		data := canonical.Data().([]float64)
		for j := range backing {
			if data[j] != backing[j] {
				t.Errorf("batch encoding %v: element %v \n\twant(%v) "+
					"\n\thave(%v)", i, j, backing[j], data[j])
			}
		}
	}
}

func TestNormalizeBatchEmpty(t *testing.T) {
	space := newTestSpace(t)

	if _, err := normalizeBatch(space, RawBatch{}); err != errEmptyBatch {
		t.Errorf("expected empty batch error, got %v", err)
	}
	if _, err := normalizeBatch(space, Sequence{}); err != errEmptyBatch {
		t.Errorf("expected empty batch error, got %v", err)
	}
}

func TestNormalizeBatchInvalid(t *testing.T) {
	space := newTestSpace(t)

	if _, err := normalizeBatch(space, nil); err == nil {
		t.Error("expected error for nil batch")
	}
	if _, err := normalizeBatch(space, Stacked{}); err == nil {
		t.Error("expected error for nil batch tensor")
	}
	vec := tensor.New(tensor.WithBacking([]float64{1, 2, 3, 4}))
	if _, err := normalizeBatch(space, Stacked{Tensor: vec}); err == nil {
		t.Error("expected error for rank 1 stacked batch")
	}
}
