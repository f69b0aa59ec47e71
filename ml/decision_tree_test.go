package ml

import (
	"errors"
	"math"
	"testing"
)

var testFeatureNames = []string{
	"amount", "oldbalanceOrg", "newbalanceOrig", "oldbalanceDest", "newbalanceDest",
	"balanceDiffOrig", "balanceDiffDest",
	"type=CASH_OUT", "type=DEBIT", "type=PAYMENT", "type=TRANSFER",
}

func TestDecisionTreePredictProba(t *testing.T) {
	model, err := LoadModel(ModelTypeDecisionTree, "testdata/tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	transfer := []float64{2e6, 2e6, 0, 0, 0, -2e6, 0, 0, 0, 0, 1}
	p, err := model.PredictProba(transfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p-0.96) > 1e-12 {
		t.Fatalf("expected 0.96, got %v", p)
	}

	payment := []float64{500, 500, 0, 0, 500, -500, 500, 0, 0, 1, 0}
	p, err = model.PredictProba(payment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(p-0.005) > 1e-12 {
		t.Fatalf("expected 0.005, got %v", p)
	}
}

func TestDecisionTreeThresholdGoesLeftOnEqual(t *testing.T) {
	info := ModelInfo{Type: ModelTypeDecisionTree, FeatureNames: []string{"x"}}
	tree, err := NewDecisionTree(info, []TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: []float64{1, 0}},
		{IsLeaf: true, Value: []float64{0, 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p, _ := tree.PredictProba([]float64{1}); p != 0 {
		t.Fatalf("x == threshold should go left, got %v", p)
	}
	if p, _ := tree.PredictProba([]float64{1.0001}); p != 1 {
		t.Fatalf("x > threshold should go right, got %v", p)
	}
}

func TestDecisionTreeFeatureMismatch(t *testing.T) {
	model, err := LoadModel("", "testdata/tree.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := model.PredictProba([]float64{1, 2}); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}

func TestValidateTreeRejectsBadNodes(t *testing.T) {
	cases := map[string][]TreeNode{
		"empty":         nil,
		"leaf weights":  {{IsLeaf: true, Value: []float64{1}}},
		"zero weights":  {{IsLeaf: true, Value: []float64{0, 0}}},
		"negative":      {{IsLeaf: true, Value: []float64{-1, 2}}},
		"feature range": {{FeatureIdx: 3, LeftChild: 1, RightChild: 2}, {IsLeaf: true, Value: []float64{1, 1}}, {IsLeaf: true, Value: []float64{1, 1}}},
		"back edge":     {{FeatureIdx: 0, LeftChild: 0, RightChild: 1}, {IsLeaf: true, Value: []float64{1, 1}}},
		"child range":   {{FeatureIdx: 0, LeftChild: 1, RightChild: 9}, {IsLeaf: true, Value: []float64{1, 1}}},
	}
	for name, nodes := range cases {
		if err := validateTree(nodes, 1); !errors.Is(err, ErrInvalidModel) {
			t.Errorf("%s: expected ErrInvalidModel, got %v", name, err)
		}
	}
}
