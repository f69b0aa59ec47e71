package ml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Artifact is the on-disk JSON form of an exported classifier.
type Artifact struct {
	ModelType    string       `json:"model_type"`
	Version      string       `json:"version"`
	FeatureNames []string     `json:"feature_names"`
	Trees        [][]TreeNode `json:"trees,omitempty"`
	Tree         []TreeNode   `json:"tree,omitempty"`
	Coef         []float64    `json:"coef,omitempty"`
	Intercept    float64      `json:"intercept,omitempty"`
	Scaler       *Scaler      `json:"scaler,omitempty"`
}

// LoadModel reads the artifact at path. An empty modelType accepts whatever
// type the file declares.
func LoadModel(modelType, path string) (Classifier, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer file.Close()

	model, err := DecodeModel(file)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if modelType != "" && model.Info().Type != modelType {
		return nil, fmt.Errorf("load model %s: file holds %q, configured %q: %w", path, model.Info().Type, modelType, ErrUnsupportedModel)
	}
	return model, nil
}

func DecodeModel(r io.Reader) (Classifier, error) {
	var artifact Artifact
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return artifact.Build()
}

func (a *Artifact) Build() (Classifier, error) {
	if _, err := NewEncoder(a.FeatureNames); err != nil {
		return nil, err
	}
	info := ModelInfo{Type: a.ModelType, Version: a.Version, FeatureNames: a.FeatureNames}
	switch a.ModelType {
	case ModelTypeRandomForest:
		return NewRandomForest(info, a.Trees)
	case ModelTypeDecisionTree:
		return NewDecisionTree(info, a.Tree)
	case ModelTypeLogisticRegression:
		return NewLogisticRegression(info, a.Coef, a.Intercept, a.Scaler)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, a.ModelType)
	}
}
