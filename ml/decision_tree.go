package ml

import (
	"fmt"
)

type DecisionTree struct {
	info  ModelInfo
	nodes []TreeNode
}

// TreeNode is one entry of a flattened tree. Value holds the per-class sample
// weights [legit, fraud] and is only meaningful on leaves.
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx"`
	Threshold  float64   `json:"threshold"`
	LeftChild  int       `json:"left_child"`
	RightChild int       `json:"right_child"`
	IsLeaf     bool      `json:"is_leaf"`
	Value      []float64 `json:"value,omitempty"`
}

func NewDecisionTree(info ModelInfo, nodes []TreeNode) (*DecisionTree, error) {
	if err := validateTree(nodes, len(info.FeatureNames)); err != nil {
		return nil, err
	}
	return &DecisionTree{info: info, nodes: nodes}, nil
}

func (dt *DecisionTree) PredictProba(features []float64) (float64, error) {
	if len(features) != len(dt.info.FeatureNames) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureMismatch, len(features), len(dt.info.FeatureNames))
	}
	return walkTree(dt.nodes, features)
}

func (dt *DecisionTree) Info() ModelInfo {
	return dt.info
}

func walkTree(nodes []TreeNode, features []float64) (float64, error) {
	if len(nodes) == 0 {
		return 0, ErrModelNotLoaded
	}
	idx := 0
	// validateTree guarantees child indices grow, so the walk terminates
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return leafProbability(node.Value), nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func leafProbability(value []float64) float64 {
	total := value[0] + value[1]
	return value[1] / total
}

func validateTree(nodes []TreeNode, featureCount int) error {
	if len(nodes) == 0 {
		return fmt.Errorf("%w: empty tree", ErrInvalidModel)
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if len(node.Value) != 2 {
				return fmt.Errorf("%w: leaf %d has %d class weights, want 2", ErrInvalidModel, i, len(node.Value))
			}
			if node.Value[0] < 0 || node.Value[1] < 0 || node.Value[0]+node.Value[1] <= 0 {
				return fmt.Errorf("%w: leaf %d has invalid class weights %v", ErrInvalidModel, i, node.Value)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return fmt.Errorf("%w: node %d feature index %d out of range", ErrInvalidModel, i, node.FeatureIdx)
		}
		// children always follow their parent in the flattened layout
		if node.LeftChild <= i || node.LeftChild >= len(nodes) {
			return fmt.Errorf("%w: node %d left child %d out of range", ErrInvalidModel, i, node.LeftChild)
		}
		if node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("%w: node %d right child %d out of range", ErrInvalidModel, i, node.RightChild)
		}
	}
	return nil
}
