package churn

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	PredictionYes = "Yes"
	PredictionNo  = "No"

	encodingErrorMessage = "Encoding error"
	encodingErrorTip     = "Check for spelling or unseen category values."
)

// Response is the /predict body. A successful prediction sets the churn
// fields; a recoverable failure sets Error (and Details/Tip for encoding).
type Response struct {
	ChurnPrediction  string   `json:"churn_prediction,omitempty"`
	ChurnProbability *float64 `json:"churn_probability,omitempty"`
	Error            string   `json:"error,omitempty"`
	Details          string   `json:"details,omitempty"`
	Tip              string   `json:"tip,omitempty"`
}

// Failed reports whether the body carries an error payload.
func (r Response) Failed() bool {
	return r.Error != ""
}

// EncodingError is returned for a category outside the encoder's vocabulary.
type EncodingError struct {
	Field Field
	Value string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func (e *EncodingError) Response() Response {
	return Response{Error: encodingErrorMessage, Details: e.Error(), Tip: encodingErrorTip}
}

// ScalingError is returned when tenure cannot be transformed.
type ScalingError struct {
	Err error
}

func (e *ScalingError) Error() string {
	return fmt.Sprintf("Scaling error: %v", e.Err)
}

func (e *ScalingError) Unwrap() error {
	return e.Err
}

func (e *ScalingError) Response() Response {
	return Response{Error: e.Error()}
}

// Predictor runs the encode, scale, predict pipeline over read-only artifacts.
type Predictor struct {
	artifacts *Artifacts
	cache     *lru.Cache[CustomerRecord, Response]
}

type Option func(*Predictor) error

// WithCache memoizes responses for up to size distinct records. Prediction is
// deterministic, so a cached response is identical to a recomputed one.
func WithCache(size int) Option {
	return func(p *Predictor) error {
		if size <= 0 {
			return nil
		}
		cache, err := lru.New[CustomerRecord, Response](size)
		if err != nil {
			return fmt.Errorf("create prediction cache: %w", err)
		}
		p.cache = cache
		return nil
	}
}

func NewPredictor(artifacts *Artifacts, opts ...Option) (*Predictor, error) {
	if artifacts == nil {
		return nil, errors.New("artifacts are required")
	}
	if err := artifacts.validate(); err != nil {
		return nil, err
	}
	p := &Predictor{artifacts: artifacts}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Predict returns the response body for record. Encoding and scaling
// failures are reported inside the Response; the error return is reserved for
// inference failures that indicate a broken deployment.
func (p *Predictor) Predict(record CustomerRecord) (Response, error) {
	if p.cache != nil {
		if resp, ok := p.cache.Get(record); ok {
			return resp, nil
		}
	}

	resp, err := p.predict(record)
	if err != nil {
		return Response{}, err
	}
	if p.cache != nil {
		p.cache.Add(record, resp)
	}
	return resp, nil
}

func (p *Predictor) predict(record CustomerRecord) (Response, error) {
	features, err := p.Features(record)
	if err != nil {
		var encErr *EncodingError
		var scaleErr *ScalingError
		switch {
		case errors.As(err, &encErr):
			return encErr.Response(), nil
		case errors.As(err, &scaleErr):
			return scaleErr.Response(), nil
		default:
			return Response{}, err
		}
	}

	label, probability, err := p.artifacts.Model.Predict(features)
	if err != nil {
		return Response{}, fmt.Errorf("model inference: %w", err)
	}
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return Response{}, fmt.Errorf("model inference: probability %v out of range", probability)
	}

	prediction := PredictionNo
	if label == 1 {
		prediction = PredictionYes
	}
	rounded := RoundProbability(probability)
	return Response{ChurnPrediction: prediction, ChurnProbability: &rounded}, nil
}

// Features encodes and scales record into the model input:
// [scaled tenure, InternetService, OnlineSecurity, TechSupport, Contract].
// The order is fixed by training and cannot be checked at runtime.
func (p *Predictor) Features(record CustomerRecord) ([]float64, error) {
	codes := make([]float64, 0, len(CategoricalFields))
	for _, field := range CategoricalFields {
		value := record.Category(field)
		code, err := p.artifacts.Encoders[field].Encode(value)
		if err != nil {
			return nil, &EncodingError{Field: field, Value: value, Err: err}
		}
		codes = append(codes, float64(code))
	}

	scaled, err := p.artifacts.Scaler.Transform([]float64{record.Tenure})
	if err != nil {
		return nil, &ScalingError{Err: err}
	}
	if len(scaled) != 1 {
		return nil, &ScalingError{Err: fmt.Errorf("scaler returned %d values for 1 input", len(scaled))}
	}

	return append([]float64{scaled[0]}, codes...), nil
}

// RoundProbability rounds to 4 decimal places.
func RoundProbability(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}
