package ml

import "errors"

const (
	ModelTypeRandomForest       = "random_forest"
	ModelTypeDecisionTree       = "decision_tree"
	ModelTypeLogisticRegression = "logistic_regression"
)

var (
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrFeatureMismatch  = errors.New("feature vector length mismatch")
	ErrModelNotLoaded   = errors.New("model not loaded")
	ErrInvalidModel     = errors.New("invalid model artifact")
)

// Classifier scores a feature vector with the probability of the positive class.
type Classifier interface {
	PredictProba(features []float64) (float64, error)
	Info() ModelInfo
}

type ModelInfo struct {
	Type         string   `json:"type"`
	Version      string   `json:"version"`
	FeatureNames []string `json:"feature_names"`
}
