package ml

import (
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes     []TreeNode
	nFeatures int
}

// TreeNode is one entry of a flattened tree. Children always come after their
// parent in the slice. Leaves carry per-class weights in Value (counts or
// probabilities, normalized on load).
type TreeNode struct {
	FeatureIdx int       `json:"feature_idx" yaml:"feature_idx"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
	LeftChild  int       `json:"left_child" yaml:"left_child"`
	RightChild int       `json:"right_child" yaml:"right_child"`
	Value      []float64 `json:"value" yaml:"value"`
	IsLeaf     bool      `json:"is_leaf" yaml:"is_leaf"`
}

func NewDecisionTree(nodes []TreeNode, nFeatures int) (*DecisionTree, error) {
	checked, err := checkTree(nodes, nFeatures)
	if err != nil {
		return nil, err
	}
	return &DecisionTree{nodes: checked, nFeatures: nFeatures}, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, float64, error) {
	if len(features) != dt.nFeatures {
		return 0, 0, featureCountError(len(features), dt.nFeatures)
	}
	probability := dt.positiveProbability(features)
	return argmaxBinary(probability), probability, nil
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.nFeatures
}

func (dt *DecisionTree) positiveProbability(features []float64) float64 {
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Value[1]
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

// checkTree validates topology once so that traversal never needs bounds
// checks, and returns a copy with normalized leaf values.
func checkTree(nodes []TreeNode, nFeatures int) ([]TreeNode, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no nodes")
	}
	out := make([]TreeNode, len(nodes))
	for i, node := range nodes {
		if node.IsLeaf {
			value, err := normalizeLeaf(node.Value)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			node.Value = value
			out[i] = node
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= nFeatures {
			return nil, fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if !isFinite(node.Threshold) {
			return nil, fmt.Errorf("node %d: threshold is not finite", i)
		}
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: invalid child %d", i, child)
			}
		}
		node.Value = nil
		out[i] = node
	}
	return out, nil
}

func normalizeLeaf(value []float64) ([]float64, error) {
	if len(value) != 2 {
		return nil, fmt.Errorf("leaf needs 2 class values, got %d", len(value))
	}
	total := 0.0
	for _, v := range value {
		if v < 0 || !isFinite(v) {
			return nil, fmt.Errorf("invalid leaf value %v", v)
		}
		total += v
	}
	if total == 0 {
		return nil, errors.New("leaf values sum to zero")
	}
	return []float64{value[0] / total, value[1] / total}, nil
}

// argmaxBinary picks class 1 only when it strictly outweighs class 0.
func argmaxBinary(positive float64) int {
	if positive > 1-positive {
		return 1
	}
	return 0
}
