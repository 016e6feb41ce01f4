package ml

import (
	"errors"
	"fmt"
)

const (
	ModelLogisticRegression = "logistic_regression"
	ModelDecisionTree       = "decision_tree"
	ModelRandomForest       = "random_forest"
)

type modelArtifact struct {
	Type         string      `json:"type" yaml:"type"`
	NFeatures    int         `json:"n_features" yaml:"n_features"`
	Coefficients []float64   `json:"coefficients" yaml:"coefficients"`
	Intercept    float64     `json:"intercept" yaml:"intercept"`
	Nodes        []TreeNode  `json:"nodes" yaml:"nodes"`
	Trees        []treeNodes `json:"trees" yaml:"trees"`
}

type treeNodes struct {
	Nodes []TreeNode `json:"nodes" yaml:"nodes"`
}

// LoadModel reads a model artifact and builds the classifier named by its
// "type" field.
func LoadModel(path, charset string) (MLModel, error) {
	var artifact modelArtifact
	if err := decodeArtifact(path, charset, &artifact); err != nil {
		return nil, err
	}
	if artifact.NFeatures <= 0 {
		return nil, errors.New("model artifact must declare n_features")
	}

	switch artifact.Type {
	case ModelLogisticRegression:
		return NewLogisticRegression(artifact.Coefficients, artifact.Intercept, artifact.NFeatures)
	case ModelDecisionTree:
		return NewDecisionTree(artifact.Nodes, artifact.NFeatures)
	case ModelRandomForest:
		trees := make([][]TreeNode, len(artifact.Trees))
		for i, tree := range artifact.Trees {
			trees[i] = tree.Nodes
		}
		return NewRandomForest(trees, artifact.NFeatures)
	default:
		return nil, fmt.Errorf("unsupported model type %q", artifact.Type)
	}
}

// ModelType reports the artifact type name of a loaded model.
func ModelType(model MLModel) string {
	switch model.(type) {
	case *LogisticRegression:
		return ModelLogisticRegression
	case *DecisionTree:
		return ModelDecisionTree
	case *RandomForest:
		return ModelRandomForest
	default:
		return "unknown"
	}
}
