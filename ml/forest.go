package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the class-1 probability of its trees.
type RandomForest struct {
	trees     []*DecisionTree
	nFeatures int
}

func NewRandomForest(trees [][]TreeNode, nFeatures int) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	forest := &RandomForest{
		trees:     make([]*DecisionTree, 0, len(trees)),
		nFeatures: nFeatures,
	}
	for i, nodes := range trees {
		tree, err := NewDecisionTree(nodes, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		forest.trees = append(forest.trees, tree)
	}
	return forest, nil
}

func (rf *RandomForest) Predict(features []float64) (int, float64, error) {
	if len(features) != rf.nFeatures {
		return 0, 0, featureCountError(len(features), rf.nFeatures)
	}
	sum := 0.0
	for _, tree := range rf.trees {
		sum += tree.positiveProbability(features)
	}
	probability := sum / float64(len(rf.trees))
	return argmaxBinary(probability), probability, nil
}

func (rf *RandomForest) NumFeatures() int {
	return rf.nFeatures
}
