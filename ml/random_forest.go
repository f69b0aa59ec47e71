package ml

import (
	"fmt"
)

// RandomForest averages the leaf probabilities of its trees, matching
// scikit-learn's predict_proba for forests.
type RandomForest struct {
	info  ModelInfo
	trees [][]TreeNode
}

func NewRandomForest(info ModelInfo, trees [][]TreeNode) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	for i, nodes := range trees {
		if err := validateTree(nodes, len(info.FeatureNames)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &RandomForest{info: info, trees: trees}, nil
}

func (rf *RandomForest) PredictProba(features []float64) (float64, error) {
	if len(features) != len(rf.info.FeatureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(rf.info.FeatureNames))
	}
	sum := 0.0
	for _, nodes := range rf.trees {
		p, err := walkTree(nodes, features)
		if err != nil {
			return 0, err
		}
		sum += p
	}
	return clampProbability(sum / float64(len(rf.trees))), nil
}

func (rf *RandomForest) Info() ModelInfo {
	return rf.info
}

func (rf *RandomForest) TreeCount() int {
	return len(rf.trees)
}

// clampProbability absorbs float rounding that can push an average past 1.
func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
