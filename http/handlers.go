package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"frauddetect/fraud"
	"frauddetect/ml"
)

// Predictor scores one transaction against a threshold.
type Predictor interface {
	Predict(ctx context.Context, tx fraud.Transaction, threshold float64) (*fraud.Prediction, error)
}

// ModelSource exposes the active model snapshot.
type ModelSource interface {
	Current() (*ml.LoadedModel, error)
}

type Handlers struct {
	predictor        Predictor
	models           ModelSource
	logger           *zap.Logger
	defaultThreshold float64
}

func NewHandlers(predictor Predictor, models ModelSource, logger *zap.Logger, defaultThreshold float64) (*Handlers, error) {
	if predictor == nil || models == nil {
		return nil, errors.New("predictor and model source are required")
	}
	if err := fraud.ValidateThreshold(defaultThreshold); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		predictor:        predictor,
		models:           models,
		logger:           logger,
		defaultThreshold: defaultThreshold,
	}, nil
}

func RegisterHandlers(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /predict", h.handleFormPredict)
	mux.Handle("GET /static/", staticHandler())

	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
}

type healthResponse struct {
	Status          string `json:"status"`
	ModelVersion    string `json:"model_version,omitempty"`
	ModelGeneration uint64 `json:"model_generation,omitempty"`
}

// handleHealth reports ready once a model is loaded.
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.models.Current()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:          "ok",
		ModelVersion:    loaded.Classifier.Info().Version,
		ModelGeneration: loaded.Generation,
	})
}

// PredictRequest is the JSON body of /api/predict and of websocket messages,
// both sent by the page script while the threshold slider moves.
// Absent fields take the form defaults.
type PredictRequest struct {
	fraud.Transaction
	Threshold *float64 `json:"threshold,omitempty"`
}

type PredictResponse struct {
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
	Threshold       float64 `json:"threshold"`
	ThresholdText   string  `json:"threshold_text"`
	Verdict         string  `json:"verdict"`
	Label           string  `json:"label"`
	BalanceDiffOrig float64 `json:"balanceDiffOrig"`
	BalanceDiffDest float64 `json:"balanceDiffDest"`
	ModelVersion    string  `json:"model_version"`
	Cached          bool    `json:"cached"`
}

func newPredictRequest() PredictRequest {
	return PredictRequest{Transaction: fraud.DefaultTransaction()}
}

// threshold is the requested threshold on the slider grid, or the default.
func (h *Handlers) threshold(req PredictRequest) float64 {
	if req.Threshold == nil {
		return h.defaultThreshold
	}
	return fraud.SnapThreshold(*req.Threshold)
}

func newPredictResponse(p *fraud.Prediction) PredictResponse {
	return PredictResponse{
		Probability:     p.Probability,
		ProbabilityText: formatPercent(p.Probability),
		Threshold:       p.Threshold,
		ThresholdText:   formatThreshold(p.Threshold),
		Verdict:         string(p.Verdict),
		Label:           p.Verdict.Label(),
		BalanceDiffOrig: p.Record.BalanceDiffOrig,
		BalanceDiffDest: p.Record.BalanceDiffDest,
		ModelVersion:    p.ModelVersion,
		Cached:          p.Cached,
	}
}

func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	req := newPredictRequest()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	prediction, err := h.predictor.Predict(r.Context(), req.Transaction, h.threshold(req))
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictResponse(prediction))
}

func (h *Handlers) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("prediction failed", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, fraud.ErrInvalidTransaction),
		errors.Is(err, fraud.ErrInvalidThreshold),
		errors.Is(err, fraud.ErrUnknownPreset):
		return http.StatusBadRequest
	case errors.Is(err, ml.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
