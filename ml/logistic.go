package ml

import (
	"fmt"
	"math"
)

// Scaler mirrors a fitted StandardScaler: x' = (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

type LogisticRegression struct {
	info      ModelInfo
	coef      []float64
	intercept float64
	scaler    *Scaler
}

func NewLogisticRegression(info ModelInfo, coef []float64, intercept float64, scaler *Scaler) (*LogisticRegression, error) {
	n := len(info.FeatureNames)
	if len(coef) != n {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidModel, len(coef), n)
	}
	if !isFinite(intercept) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	for i, c := range coef {
		if !isFinite(c) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	if scaler != nil {
		if len(scaler.Mean) != n || len(scaler.Scale) != n {
			return nil, fmt.Errorf("%w: scaler expects %d/%d features, model has %d", ErrInvalidModel, len(scaler.Mean), len(scaler.Scale), n)
		}
		for i, s := range scaler.Scale {
			if s == 0 || !isFinite(s) {
				return nil, fmt.Errorf("%w: scaler scale %d is %v", ErrInvalidModel, i, s)
			}
		}
	}
	return &LogisticRegression{info: info, coef: coef, intercept: intercept, scaler: scaler}, nil
}

func (lr *LogisticRegression) PredictProba(features []float64) (float64, error) {
	if len(features) != len(lr.coef) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(lr.coef))
	}
	z := lr.intercept
	for i, x := range features {
		if lr.scaler != nil {
			x = (x - lr.scaler.Mean[i]) / lr.scaler.Scale[i]
		}
		z += lr.coef[i] * x
	}
	if math.IsNaN(z) {
		return 0, fmt.Errorf("non-finite decision value for input %v", features)
	}
	return sigmoid(z), nil
}

func (lr *LogisticRegression) Info() ModelInfo {
	return lr.info
}

func sigmoid(z float64) float64 {
	// split on sign so exp never overflows
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
