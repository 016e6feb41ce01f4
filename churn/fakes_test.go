package churn

import (
	"errors"
	"sync/atomic"
)

var errUnseen = errors.New("previously unseen label")

type fakeEncoder map[string]int

func (f fakeEncoder) Encode(value string) (int, error) {
	code, ok := f[value]
	if !ok {
		return 0, errUnseen
	}
	return code, nil
}

type fakeScaler struct {
	mean, scale float64
	err         error
}

func (f fakeScaler) Transform(values []float64) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float64{(values[0] - f.mean) / f.scale}, nil
}

type fakeModel struct {
	label       int
	probability float64
	err         error
	calls       atomic.Int64
	lastInput   []float64
}

func (f *fakeModel) Predict(features []float64) (int, float64, error) {
	f.calls.Add(1)
	f.lastInput = append([]float64(nil), features...)
	return f.label, f.probability, f.err
}

func fakeArtifacts(model *fakeModel) *Artifacts {
	return &Artifacts{
		Model:  model,
		Scaler: fakeScaler{mean: 10, scale: 2},
		Encoders: map[Field]Encoder{
			FieldInternetService: fakeEncoder{"DSL": 0, "Fiber optic": 1, "No": 2},
			FieldOnlineSecurity:  fakeEncoder{"No": 0, "No internet service": 1, "Yes": 2},
			FieldTechSupport:     fakeEncoder{"No": 0, "No internet service": 1, "Yes": 2},
			FieldContract:        fakeEncoder{"Month-to-month": 0, "One year": 1, "Two year": 2},
		},
	}
}

func sampleRecord() CustomerRecord {
	return CustomerRecord{
		Tenure:          12,
		InternetService: "DSL",
		OnlineSecurity:  "No",
		TechSupport:     "No",
		Contract:        "Month-to-month",
	}
}
