// Package network implements the fixed two-layer allocation network:
// tanh hidden layer, linear output clamped at zero and normalized per row.
package network

import (
	"math"

	"github.com/aristath/thalia/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// normalizationFloor keeps the row normalization finite for all-zero rows
const normalizationFloor = 1e-15

// Network holds the two weight matrices. It carries no other state, so one
// value can be shared by concurrent Forward calls.
type Network struct {
	topology domain.Topology
	w1       *mat.Dense // InputWidth × Neurons
	w2       *mat.Dense // Neurons × Assets
}

// New decomposes a flat weight vector into W1 and W2. The vector is copied.
func New(w domain.WeightVector, topo domain.Topology) (*Network, error) {
	w1, w2, err := topo.Split(w)
	if err != nil {
		return nil, err
	}

	return &Network{
		topology: topo,
		w1:       mat.NewDense(topo.InputWidth(), topo.Neurons, append([]float64(nil), w1...)),
		w2:       mat.NewDense(topo.Neurons, topo.Assets, append([]float64(nil), w2...)),
	}, nil
}

// Topology returns the network shape
func (n *Network) Topology() domain.Topology {
	return n.topology
}

// Forward maps every feature row to an allocation row
func (n *Network) Forward(ft *domain.FeatureTable, assets []string) (*domain.AllocationTable, error) {
	width := n.topology.InputWidth()
	if ft.Width() != width {
		return nil, &domain.DimensionMismatchError{What: "feature width", Got: ft.Width(), Expected: width}
	}
	if assets != nil && len(assets) != n.topology.Assets {
		return nil, &domain.DimensionMismatchError{What: "asset count", Got: len(assets), Expected: n.topology.Assets}
	}

	rows := ft.Len()
	out := &domain.AllocationTable{Assets: assets, Rows: make([][]float64, rows)}
	if rows == 0 {
		return out, nil
	}

	data := make([]float64, 0, rows*width)
	for _, row := range ft.Rows {
		if len(row) != width {
			return nil, &domain.DimensionMismatchError{What: "feature row length", Got: len(row), Expected: width}
		}
		data = append(data, row...)
	}
	features := mat.NewDense(rows, width, data)

	var hidden mat.Dense
	hidden.Mul(features, n.w1)
	hidden.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, &hidden)

	var raw mat.Dense
	raw.Mul(&hidden, n.w2)

	for r := 0; r < rows; r++ {
		alloc := mat.Row(nil, r, &raw)
		sum := 0.0
		for c, v := range alloc {
			if v < 0 {
				alloc[c] = 0
				continue
			}
			sum += v
		}
		denom := sum + normalizationFloor
		for c := range alloc {
			alloc[c] /= denom
		}
		out.Rows[r] = alloc
	}
	return out, nil
}

// Forward is the one-shot form: decompose w and run the network
func Forward(ft *domain.FeatureTable, w domain.WeightVector, topo domain.Topology, assets []string) (*domain.AllocationTable, error) {
	n, err := New(w, topo)
	if err != nil {
		return nil, err
	}
	return n.Forward(ft, assets)
}
