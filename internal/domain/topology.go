package domain

// Topology fixes the shape of the allocation network
type Topology struct {
	Assets  int `json:"assets" yaml:"n_actions" msgpack:"assets"`
	Lags    int `json:"lags" yaml:"n_lags" msgpack:"lags"`
	Neurons int `json:"neurons" yaml:"neurons" msgpack:"neurons"`
}

// InputWidth is the feature width Assets*Lags
func (t Topology) InputWidth() int {
	return t.Assets * t.Lags
}

// Dimensions is the flat weight vector length
// Neurons*(Assets*Lags) + Neurons*Assets
func (t Topology) Dimensions() int {
	return t.Neurons*t.InputWidth() + t.Neurons*t.Assets
}

// Validate rejects non-positive sizes
func (t Topology) Validate() error {
	switch {
	case t.Assets < 1:
		return &DimensionMismatchError{What: "asset count", Got: t.Assets, Expected: 1}
	case t.Lags < 1:
		return &DimensionMismatchError{What: "lag depth", Got: t.Lags, Expected: 1}
	case t.Neurons < 1:
		return &DimensionMismatchError{What: "neuron count", Got: t.Neurons, Expected: 1}
	}
	return nil
}

// WeightVector is the flat parameter vector searched by the optimizer. The
// first InputWidth()*Neurons values form W1 (row-major, InputWidth × Neurons),
// the remaining Neurons*Assets values form W2 (row-major, Neurons × Assets).
type WeightVector []float64

// Split returns the W1 and W2 blocks as sub-slices of w
func (t Topology) Split(w WeightVector) (w1, w2 []float64, err error) {
	if err := t.Validate(); err != nil {
		return nil, nil, err
	}
	if len(w) != t.Dimensions() {
		return nil, nil, &DimensionMismatchError{What: "weight vector length", Got: len(w), Expected: t.Dimensions()}
	}
	cut := t.InputWidth() * t.Neurons
	return w[:cut], w[cut:], nil
}
