package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// modelJSON assembles a model file in the serialization the parser expects.
func modelJSON(t *testing.T, baseScore string, objective string, trees []map[string]interface{}) []byte {
	t.Helper()
	file := map[string]interface{}{
		"learner": map[string]interface{}{
			"learner_model_param": map[string]interface{}{
				"base_score": baseScore,
			},
			"gradient_booster": map[string]interface{}{
				"model": map[string]interface{}{
					"trees": trees,
				},
			},
			"objective": map[string]interface{}{
				"name": objective,
			},
		},
	}
	data, err := json.Marshal(file)
	require.NoError(t, err)
	return data
}

// stump splits feature 0 at 100: margin -2 below, +2 at or above.
func stump() map[string]interface{} {
	return map[string]interface{}{
		"left_children":    []int{1, -1, -1},
		"right_children":   []int{2, -1, -1},
		"split_indices":    []int{0, 0, 0},
		"split_conditions": []float64{100, -2, 2},
		"default_left":     []int{1, 0, 0},
	}
}

func singleStumpModel(t *testing.T) []byte {
	return modelJSON(t, "0.5", "binary:logistic", []map[string]interface{}{stump()})
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func TestParseGBTreeModel(t *testing.T) {
	model, err := ParseGBTreeModel(singleStumpModel(t))
	require.NoError(t, err)
	assert.Equal(t, 1, model.NumTrees())
}

func TestParseRejectsEmptyEnsemble(t *testing.T) {
	_, err := ParseGBTreeModel(modelJSON(t, "0.5", "binary:logistic", nil))
	assert.ErrorContains(t, err, "no trees")
}

func TestParseRejectsUnsupportedObjective(t *testing.T) {
	_, err := ParseGBTreeModel(modelJSON(t, "0.5", "reg:squarederror", []map[string]interface{}{stump()}))
	assert.ErrorContains(t, err, "unsupported objective")
}

func TestParseRejectsInconsistentNodeArrays(t *testing.T) {
	broken := stump()
	broken["right_children"] = []int{2, -1}
	_, err := ParseGBTreeModel(modelJSON(t, "0.5", "binary:logistic", []map[string]interface{}{broken}))
	assert.ErrorContains(t, err, "inconsistent node arrays")
}

func TestParseRejectsBadBaseScore(t *testing.T) {
	_, err := ParseGBTreeModel(modelJSON(t, "half", "binary:logistic", []map[string]interface{}{stump()}))
	assert.ErrorContains(t, err, "base_score")
}

func TestPredictSingleStump(t *testing.T) {
	model, err := ParseGBTreeModel(singleStumpModel(t))
	require.NoError(t, err)

	// base_score 0.5 contributes zero margin, so the stump's leaf is the
	// whole margin.
	low, err := model.Predict([]float64{50, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(-2), low, 1e-9)

	high, err := model.Predict([]float64{500, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(2), high, 1e-9)
}

func TestPredictSumsMarginsAcrossTrees(t *testing.T) {
	model, err := ParseGBTreeModel(modelJSON(t, "0.5", "binary:logistic", []map[string]interface{}{stump(), stump()}))
	require.NoError(t, err)

	p, err := model.Predict([]float64{500, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(4), p, 1e-9)
}

func TestPredictAppliesBaseScoreMargin(t *testing.T) {
	model, err := ParseGBTreeModel(modelJSON(t, "0.2", "binary:logistic", []map[string]interface{}{stump()}))
	require.NoError(t, err)

	p, err := model.Predict([]float64{500, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.InDelta(t, sigmoid(math.Log(0.2/0.8)+2), p, 1e-9)
}

func TestPredictRejectsShortFeatureVector(t *testing.T) {
	tree := map[string]interface{}{
		"left_children":    []int{1, -1, -1},
		"right_children":   []int{2, -1, -1},
		"split_indices":    []int{4, 0, 0},
		"split_conditions": []float64{1, -1, 1},
		"default_left":     []int{1, 0, 0},
	}
	model, err := ParseGBTreeModel(modelJSON(t, "0.5", "binary:logistic", []map[string]interface{}{tree}))
	require.NoError(t, err)

	_, err = model.Predict([]float64{1, 2})
	assert.ErrorContains(t, err, "out of range")
}
