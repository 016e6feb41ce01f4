package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"telcochurn/churn"
)

const livenessMessage = "Telco Churn Prediction API is running!"

// Predictor is the inference dependency of the /predict route.
type Predictor interface {
	Predict(record churn.CustomerRecord) (churn.Response, error)
}

type errorBody struct {
	Error string `json:"error"`
}

type handlers struct {
	predictor Predictor
	logger    *zap.Logger
}

func RegisterHandlers(mux *http.ServeMux, predictor Predictor, logger *zap.Logger) {
	h := &handlers{predictor: predictor, logger: logger}
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("POST /predict", h.handlePredict)
}

func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": livenessMessage})
}

// handlePredict answers 200 for encoding and scaling failures too; clients
// must look for an "error" key in the body.
func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	record, err := churn.DecodeRecord(r.Body)
	if err != nil {
		var verr *churn.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, verr)
			return
		}
		h.logger.Error("decode request", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	resp, err := h.predictor.Predict(record)
	if err != nil {
		h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}
	if resp.Failed() {
		h.logger.Debug("prediction rejected input",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("error", resp.Error),
			zap.String("details", resp.Details))
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
