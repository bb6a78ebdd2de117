package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// GBTreeModel evaluates a gradient-boosted binary classifier serialized in
// the XGBoost JSON model format. Each tree is walked from the root using
// "value < split_condition goes left"; leaf margins are summed across trees
// and squashed through a sigmoid for binary:logistic objectives.
type GBTreeModel struct {
	trees      []gbTree
	baseMargin float64
}

type gbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     []int     `json:"default_left"`
}

type gbModelFile struct {
	Learner struct {
		LearnerModelParam struct {
			BaseScore string `json:"base_score"`
		} `json:"learner_model_param"`
		GradientBooster struct {
			Model struct {
				Trees []gbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

// ParseGBTreeModel loads a model from its JSON serialization.
func ParseGBTreeModel(data []byte) (*GBTreeModel, error) {
	var file gbModelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	trees := file.Learner.GradientBooster.Model.Trees
	if len(trees) == 0 {
		return nil, fmt.Errorf("parse model: no trees found")
	}
	for i, t := range trees {
		n := len(t.LeftChildren)
		if n == 0 || len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
			return nil, fmt.Errorf("parse model: tree %d has inconsistent node arrays", i)
		}
	}

	if file.Learner.Objective.Name != "binary:logistic" {
		return nil, fmt.Errorf("parse model: unsupported objective %q", file.Learner.Objective.Name)
	}

	baseScore := 0.5
	if raw := file.Learner.LearnerModelParam.BaseScore; raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parse model: bad base_score %q: %w", raw, err)
		}
		baseScore = v
	}

	return &GBTreeModel{
		trees:      trees,
		baseMargin: math.Log(baseScore / (1 - baseScore)),
	}, nil
}

// Predict returns the fraud probability in [0,1].
func (m *GBTreeModel) Predict(vector []float64) (float64, error) {
	margin := m.baseMargin
	for i := range m.trees {
		leaf, err := m.trees[i].walk(vector)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += leaf
	}
	return 1 / (1 + math.Exp(-margin)), nil
}

func (t *gbTree) walk(vector []float64) (float64, error) {
	node := 0
	for t.LeftChildren[node] != -1 {
		idx := t.SplitIndices[node]
		if idx < 0 || idx >= len(vector) {
			return 0, fmt.Errorf("split index %d out of range for %d features", idx, len(vector))
		}
		if vector[idx] < t.SplitConditions[node] {
			node = t.LeftChildren[node]
		} else {
			node = t.RightChildren[node]
		}
		if node < 0 || node >= len(t.LeftChildren) {
			return 0, fmt.Errorf("child index %d out of range", node)
		}
	}
	// Leaf nodes store their output value in split_conditions.
	return t.SplitConditions[node], nil
}

// NumTrees reports the ensemble size.
func (m *GBTreeModel) NumTrees() int {
	return len(m.trees)
}
