package ml

import (
	"errors"
	"fmt"
	"math"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler is a fitted affine transform applied column-wise:
// out[i] = (x[i] - offset[i]) * factor[i].
type Scaler struct {
	kind   string
	offset []float64
	factor []float64
}

type scalerArtifact struct {
	Type  string    `json:"type" yaml:"type"`
	Mean  []float64 `json:"mean" yaml:"mean"`
	Min   []float64 `json:"min" yaml:"min"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// NewStandardScaler mirrors a fitted StandardScaler: (x - mean) / scale.
// Zero scale entries leave the centered value unscaled.
func NewStandardScaler(mean, scale []float64) (*Scaler, error) {
	if err := checkScalerVectors(mean, scale); err != nil {
		return nil, err
	}
	factor := make([]float64, len(scale))
	for i, s := range scale {
		if s == 0 {
			s = 1
		}
		factor[i] = 1 / s
	}
	return &Scaler{
		kind:   ScalerStandard,
		offset: append([]float64(nil), mean...),
		factor: factor,
	}, nil
}

// NewMinMaxScaler mirrors a fitted MinMaxScaler: x*scale + min.
func NewMinMaxScaler(minValues, scale []float64) (*Scaler, error) {
	if err := checkScalerVectors(minValues, scale); err != nil {
		return nil, err
	}
	offset := make([]float64, len(minValues))
	for i := range minValues {
		if scale[i] == 0 {
			return nil, fmt.Errorf("minmax scale[%d] is zero", i)
		}
		offset[i] = -minValues[i] / scale[i]
	}
	return &Scaler{
		kind:   ScalerMinMax,
		offset: offset,
		factor: append([]float64(nil), scale...),
	}, nil
}

func checkScalerVectors(offset, scale []float64) error {
	if len(offset) == 0 || len(scale) == 0 {
		return errors.New("scaler vectors are empty")
	}
	if len(offset) != len(scale) {
		return fmt.Errorf("scaler vectors differ in length: %d != %d", len(offset), len(scale))
	}
	for i := range offset {
		if !isFinite(offset[i]) || !isFinite(scale[i]) {
			return fmt.Errorf("scaler column %d is not finite", i)
		}
	}
	return nil
}

func LoadScaler(path, charset string) (*Scaler, error) {
	var artifact scalerArtifact
	if err := decodeArtifact(path, charset, &artifact); err != nil {
		return nil, err
	}
	switch artifact.Type {
	case ScalerStandard, "":
		return NewStandardScaler(artifact.Mean, artifact.Scale)
	case ScalerMinMax:
		return NewMinMaxScaler(artifact.Min, artifact.Scale)
	default:
		return nil, fmt.Errorf("unsupported scaler type %q", artifact.Type)
	}
}

func (s *Scaler) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.factor) {
		return nil, fmt.Errorf("X has %d features, but scaler is expecting %d features as input", len(values), len(s.factor))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - s.offset[i]) * s.factor[i]
		if !isFinite(out[i]) {
			return nil, fmt.Errorf("scaled value for column %d is not finite", i)
		}
	}
	return out, nil
}

func (s *Scaler) Kind() string {
	return s.kind
}

func (s *Scaler) Width() int {
	return len(s.factor)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
