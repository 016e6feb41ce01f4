package churn

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictSuccess(t *testing.T) {
	model := &fakeModel{label: 1, probability: 0.734567}
	p, err := NewPredictor(fakeArtifacts(model))
	require.NoError(t, err)

	resp, err := p.Predict(sampleRecord())
	require.NoError(t, err)
	assert.False(t, resp.Failed())
	assert.Equal(t, PredictionYes, resp.ChurnPrediction)
	require.NotNil(t, resp.ChurnProbability)
	assert.Equal(t, 0.7346, *resp.ChurnProbability)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"churn_prediction":"Yes","churn_probability":0.7346}`, string(body))
}

func TestPredictNegativeClassKeepsZeroProbability(t *testing.T) {
	p, err := NewPredictor(fakeArtifacts(&fakeModel{label: 0, probability: 0.00001}))
	require.NoError(t, err)

	resp, err := p.Predict(sampleRecord())
	require.NoError(t, err)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"churn_prediction":"No","churn_probability":0}`, string(body))
}

func TestPredictFeatureOrder(t *testing.T) {
	model := &fakeModel{probability: 0.1}
	p, err := NewPredictor(fakeArtifacts(model))
	require.NoError(t, err)

	record := CustomerRecord{
		Tenure:          14,
		InternetService: "No",
		OnlineSecurity:  "No internet service",
		TechSupport:     "Yes",
		Contract:        "One year",
	}
	_, err = p.Predict(record)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 1, 2, 1}, model.lastInput)
}

func TestPredictEncodingError(t *testing.T) {
	model := &fakeModel{}
	p, err := NewPredictor(fakeArtifacts(model))
	require.NoError(t, err)

	record := sampleRecord()
	record.InternetService = "Fiber-Optics-Typo"
	record.Contract = "Weekly"

	resp, err := p.Predict(record)
	require.NoError(t, err)
	assert.True(t, resp.Failed())
	assert.Equal(t, "Encoding error", resp.Error)
	assert.Contains(t, resp.Details, "InternetService")
	assert.Equal(t, "Check for spelling or unseen category values.", resp.Tip)
	assert.Nil(t, resp.ChurnProbability)
	assert.Zero(t, model.calls.Load())

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Len(t, payload, 3)
}

func TestFeaturesReturnsTypedErrors(t *testing.T) {
	artifacts := fakeArtifacts(&fakeModel{})
	p, err := NewPredictor(artifacts)
	require.NoError(t, err)

	record := sampleRecord()
	record.TechSupport = "Maybe"
	_, err = p.Features(record)
	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, FieldTechSupport, encErr.Field)
	assert.Equal(t, "Maybe", encErr.Value)
	assert.ErrorIs(t, err, errUnseen)

	artifacts.Scaler = fakeScaler{err: errors.New("X has 1 features, but scaler is expecting 2")}
	_, err = p.Features(sampleRecord())
	var scaleErr *ScalingError
	require.True(t, errors.As(err, &scaleErr))
}

func TestPredictScalingError(t *testing.T) {
	artifacts := fakeArtifacts(&fakeModel{})
	artifacts.Scaler = fakeScaler{err: errors.New("bad shape")}
	p, err := NewPredictor(artifacts)
	require.NoError(t, err)

	resp, err := p.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, Response{Error: "Scaling error: bad shape"}, resp)
}

func TestPredictModelFailureIsAnError(t *testing.T) {
	p, err := NewPredictor(fakeArtifacts(&fakeModel{err: errors.New("boom")}))
	require.NoError(t, err)

	_, err = p.Predict(sampleRecord())
	require.Error(t, err)

	p, err = NewPredictor(fakeArtifacts(&fakeModel{probability: math.NaN()}))
	require.NoError(t, err)
	_, err = p.Predict(sampleRecord())
	require.Error(t, err)
}

func TestPredictIsIdempotent(t *testing.T) {
	p, err := NewPredictor(fakeArtifacts(&fakeModel{label: 1, probability: 0.61234}))
	require.NoError(t, err)

	first, err := p.Predict(sampleRecord())
	require.NoError(t, err)
	second, err := p.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictCache(t *testing.T) {
	model := &fakeModel{label: 1, probability: 0.9}
	p, err := NewPredictor(fakeArtifacts(model), WithCache(8))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := p.Predict(sampleRecord())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, model.calls.Load())

	other := sampleRecord()
	other.Tenure = 40
	_, err = p.Predict(other)
	require.NoError(t, err)
	assert.EqualValues(t, 2, model.calls.Load())
}

func TestPredictCacheSkipsFailures(t *testing.T) {
	model := &fakeModel{err: errors.New("boom")}
	p, err := NewPredictor(fakeArtifacts(model), WithCache(8))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := p.Predict(sampleRecord())
		require.Error(t, err)
	}
	assert.EqualValues(t, 2, model.calls.Load())
}

func TestNewPredictorRequiresAllArtifacts(t *testing.T) {
	_, err := NewPredictor(nil)
	require.Error(t, err)

	artifacts := fakeArtifacts(&fakeModel{})
	delete(artifacts.Encoders, FieldContract)
	_, err = NewPredictor(artifacts)
	require.Error(t, err)

	artifacts = fakeArtifacts(&fakeModel{})
	artifacts.Scaler = nil
	_, err = NewPredictor(artifacts)
	require.Error(t, err)
}

func TestRoundProbability(t *testing.T) {
	assert.Equal(t, 0.1235, RoundProbability(0.12346))
	assert.Equal(t, 1.0, RoundProbability(0.99999))
	assert.Equal(t, 0.0, RoundProbability(0.00004))
}
