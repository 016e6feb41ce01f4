package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"telcochurn/churn"
)

type fakePredictor struct {
	resp  churn.Response
	err   error
	calls atomic.Int64
	panic bool

	mu   sync.Mutex
	last churn.CustomerRecord
}

func (f *fakePredictor) Predict(record churn.CustomerRecord) (churn.Response, error) {
	f.calls.Add(1)
	if f.panic {
		panic("model exploded")
	}
	f.mu.Lock()
	f.last = record
	f.mu.Unlock()
	return f.resp, f.err
}

func newTestHandler(predictor Predictor) http.Handler {
	return NewServer(DefaultServerConfig(), predictor, zap.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const validBody = `{"tenure":12,"InternetService":"DSL","OnlineSecurity":"No","TechSupport":"No","Contract":"Month-to-month"}`

func TestRootHandler(t *testing.T) {
	h := newTestHandler(&fakePredictor{})

	w := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Telco Churn Prediction API is running!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(t, h, http.MethodGet, "/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRootHandlerUnderPredictLoad(t *testing.T) {
	h := newTestHandler(&fakePredictor{resp: churn.Response{ChurnPrediction: "No"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validBody))
			h.ServeHTTP(httptest.NewRecorder(), req)
		}()
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.JSONEq(t, `{"message":"Telco Churn Prediction API is running!"}`, w.Body.String())
		}()
	}
	wg.Wait()
}

func TestPredictHandlerSuccess(t *testing.T) {
	prob := 0.6617
	predictor := &fakePredictor{resp: churn.Response{ChurnPrediction: "Yes", ChurnProbability: &prob}}
	h := newTestHandler(predictor)

	w := do(t, h, http.MethodPost, "/predict", validBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"churn_prediction":"Yes","churn_probability":0.6617}`, w.Body.String())
	assert.Equal(t, "Month-to-month", predictor.last.Contract)
	assert.Equal(t, 12.0, predictor.last.Tenure)
}

func TestPredictHandlerErrorPayloadIsOK(t *testing.T) {
	predictor := &fakePredictor{resp: churn.Response{
		Error:   "Encoding error",
		Details: `InternetService: previously unseen label: "Fiber-Optics-Typo"`,
		Tip:     "Check for spelling or unseen category values.",
	}}
	h := newTestHandler(predictor)

	w := do(t, h, http.MethodPost, "/predict", validBody)
	require.Equal(t, http.StatusOK, w.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Encoding error", payload["error"])
	assert.Contains(t, payload, "details")
	assert.Contains(t, payload, "tip")
}

func TestPredictHandlerValidation(t *testing.T) {
	predictor := &fakePredictor{}
	h := newTestHandler(predictor)

	w := do(t, h, http.MethodPost, "/predict", `{"tenure":12,"InternetService":"DSL","OnlineSecurity":"No","TechSupport":"No"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"detail":[{"loc":["body","Contract"],"msg":"Field required","type":"missing"}]}`, w.Body.String())

	w = do(t, h, http.MethodPost, "/predict", `not json`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	assert.Zero(t, predictor.calls.Load())
}

func TestPredictHandlerMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&fakePredictor{})
	w := do(t, h, http.MethodGet, "/predict", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestPredictHandlerInferenceFailure(t *testing.T) {
	h := newTestHandler(&fakePredictor{err: errors.New("model inference: bad width")})

	w := do(t, h, http.MethodPost, "/predict", validBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestPredictHandlerPanicRecovered(t *testing.T) {
	h := newTestHandler(&fakePredictor{panic: true})

	w := do(t, h, http.MethodPost, "/predict", validBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPredictEndToEnd(t *testing.T) {
	dir := filepath.Join("..", "churn", "testdata", "artifacts")
	artifacts, err := churn.NewFileLoader(churn.ArtifactPaths{
		ModelPath:   filepath.Join(dir, "model.json"),
		ScalerPath:  filepath.Join(dir, "scaler.json"),
		EncodersDir: filepath.Join(dir, "encoders"),
	}).Load()
	require.NoError(t, err)
	predictor, err := churn.NewPredictor(artifacts, churn.WithCache(16))
	require.NoError(t, err)
	h := newTestHandler(predictor)

	first := do(t, h, http.MethodPost, "/predict", validBody)
	require.Equal(t, http.StatusOK, first.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &payload))
	assert.Contains(t, []interface{}{"Yes", "No"}, payload["churn_prediction"])
	prob, ok := payload["churn_probability"].(float64)
	require.True(t, ok)
	assert.Equal(t, churn.RoundProbability(prob), prob)

	second := do(t, h, http.MethodPost, "/predict", validBody)
	assert.Equal(t, first.Body.String(), second.Body.String())

	typo := strings.Replace(validBody, `"DSL"`, `"Fiber-Optics-Typo"`, 1)
	w := do(t, h, http.MethodPost, "/predict", typo)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Encoding error", payload["error"])
}
