package fraud

import (
	"errors"
	"fmt"
	"math"
)

// DefaultThreshold is the tuned cut-off for the bundled forest.
const DefaultThreshold = 0.27

// ThresholdStep is the granularity of the threshold slider.
const ThresholdStep = 0.01

var ErrInvalidThreshold = errors.New("threshold must be within [0, 1]")

type Verdict string

const (
	VerdictFraud      Verdict = "fraud"
	VerdictLegitimate Verdict = "legitimate"
)

// Label is the text shown to the user.
func (v Verdict) Label() string {
	if v == VerdictFraud {
		return "Fraudulent Transaction"
	}
	return "Legitimate Transaction"
}

func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// SnapThreshold rounds t to the nearest slider step, half away from zero.
func SnapThreshold(t float64) float64 {
	return math.Round(t/ThresholdStep) / (1 / ThresholdStep)
}

// Decide flags the transaction as fraud when probability >= threshold.
func Decide(probability, threshold float64) Verdict {
	if probability >= threshold {
		return VerdictFraud
	}
	return VerdictLegitimate
}
