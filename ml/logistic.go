package ml

import (
	"fmt"
	"math"
)

type LogisticRegression struct {
	coefficients []float64
	intercept    float64
}

func NewLogisticRegression(coefficients []float64, intercept float64, nFeatures int) (*LogisticRegression, error) {
	if len(coefficients) != nFeatures {
		return nil, fmt.Errorf("logistic regression has %d coefficients, want %d", len(coefficients), nFeatures)
	}
	for i, c := range coefficients {
		if !isFinite(c) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}
	if !isFinite(intercept) {
		return nil, fmt.Errorf("intercept is not finite")
	}
	return &LogisticRegression{
		coefficients: append([]float64(nil), coefficients...),
		intercept:    intercept,
	}, nil
}

func (lr *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if len(features) != len(lr.coefficients) {
		return 0, 0, featureCountError(len(features), len(lr.coefficients))
	}
	z := lr.intercept
	for i, x := range features {
		z += lr.coefficients[i] * x
	}
	probability := sigmoid(z)
	if probability > 0.5 {
		return 1, probability, nil
	}
	return 0, probability, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.coefficients)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func featureCountError(got, want int) error {
	return fmt.Errorf("X has %d features, but model is expecting %d features as input", got, want)
}
