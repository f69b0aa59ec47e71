package ml

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLoadModelRandomForest(t *testing.T) {
	model, err := LoadModel(ModelTypeRandomForest, "testdata/forest.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info := model.Info()
	if info.Type != ModelTypeRandomForest || info.Version == "" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if len(info.FeatureNames) != len(testFeatureNames) {
		t.Fatalf("expected %d features, got %d", len(testFeatureNames), len(info.FeatureNames))
	}
	if rf, ok := model.(*RandomForest); !ok || rf.TreeCount() != 3 {
		t.Fatalf("expected a 3-tree forest, got %T", model)
	}

	transfer := []float64{2e6, 2e6, 0, 0, 0, -2e6, 0, 0, 0, 0, 1}
	p, err := model.PredictProba(transfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (0.96 + 0.85 + 0.9) / 3
	if math.Abs(p-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, p)
	}
}

func TestLoadModelLogisticRegression(t *testing.T) {
	model, err := LoadModel("", "testdata/logistic.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := model.PredictProba([]float64{2e6, -2e6, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 / (1 + math.Exp(-3)); math.Abs(p-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, p)
	}
}

func TestLoadModelErrors(t *testing.T) {
	if _, err := LoadModel("", "testdata/missing.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadModel("", "testdata/malformed.json"); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
	if _, err := LoadModel("", "testdata/bad_child.json"); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
	if _, err := LoadModel(ModelTypeLogisticRegression, "testdata/forest.json"); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestDecodeModelRejects(t *testing.T) {
	cases := map[string]string{
		"unknown type":  `{"model_type":"svm","feature_names":["a"]}`,
		"unknown field": `{"model_type":"decision_tree","feature_names":["a"],"depth":3}`,
		"no features":   `{"model_type":"logistic_regression","coef":[],"intercept":0}`,
		"dup feature":   `{"model_type":"logistic_regression","feature_names":["a","a"],"coef":[1,1]}`,
		"coef count":    `{"model_type":"logistic_regression","feature_names":["a","b"],"coef":[1]}`,
		"zero scale":    `{"model_type":"logistic_regression","feature_names":["a"],"coef":[1],"scaler":{"mean":[0],"scale":[0]}}`,
		"empty forest":  `{"model_type":"random_forest","feature_names":["a"],"trees":[]}`,
	}
	for name, body := range cases {
		if _, err := DecodeModel(strings.NewReader(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestProbabilityStaysInUnitInterval(t *testing.T) {
	model, err := LoadModel("", "testdata/logistic.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, x := range [][]float64{
		{1e300, -1e300, 1},
		{0, 1e300, 0},
		{math.MaxFloat64, 0, 1},
	} {
		p, err := model.PredictProba(x)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", x, err)
		}
		if p < 0 || p > 1 {
			t.Fatalf("probability %v out of range for %v", p, x)
		}
	}
}
