package matching

import (
	"math"

	"github.com/Ramsey-B/jasmine/pkg/models"
)

// Weights maps each dimension to its share of the composite score
type Weights map[models.Dimension]float64

// DefaultWeights returns the default composite weighting
func DefaultWeights() Weights {
	return Weights{
		models.DimensionAge:           0.25,
		models.DimensionLocation:      0.15,
		models.DimensionCommunity:     0.15,
		models.DimensionEducation:     0.10,
		models.DimensionProfession:    0.10,
		models.DimensionDiet:          0.10,
		models.DimensionHabits:        0.10,
		models.DimensionMaritalStatus: 0.05,
	}
}

// Aggregator folds per-dimension scores into one composite in [0,100]
type Aggregator struct {
	weights Weights
}

// NewAggregator creates an aggregator with the given weights. Missing or
// non-positive weights fall back to the defaults, and the set is
// renormalized to sum to 1 so operator overrides cannot skew the scale.
func NewAggregator(weights Weights) *Aggregator {
	normalized := make(Weights, len(DefaultWeights()))

	total := 0.0
	for dimension, fallback := range DefaultWeights() {
		w := weights[dimension]
		if w <= 0 {
			w = fallback
		}
		normalized[dimension] = w
		total += w
	}
	for dimension := range normalized {
		normalized[dimension] /= total
	}

	return &Aggregator{weights: normalized}
}

// Aggregate produces the directional score for one viewer->candidate run.
// Any hard failure excludes the pair outright; the reported composite is 0
// and must not be used for ranking.
func (a *Aggregator) Aggregate(scores map[models.Dimension]models.DimensionScore) models.DirectionalScore {
	breakdown := make(map[models.Dimension]float64, len(scores))

	excluded := false
	composite := 0.0
	for _, dimension := range models.Dimensions() {
		score := scores[dimension]
		breakdown[dimension] = score.Score
		if score.HardFail {
			excluded = true
		}
		composite += a.weights[dimension] * score.Score
	}

	if excluded {
		return models.DirectionalScore{Score: 0, Excluded: true, Breakdown: breakdown}
	}

	return models.DirectionalScore{
		Score:     clampScore(int(math.Round(composite * 100))),
		Breakdown: breakdown,
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
