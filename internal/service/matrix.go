package service

import (
	"sort"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

// PriorityScore combines estimated impact, confidence and an effort discount
// into a single ranking value. Impact is a percentage, confidence a 0..1
// probability, so the result lands roughly on a 0..10000 scale.
func PriorityScore(impact float64, effort models.Effort, confidence float64) float64 {
	return impact * confidence * effort.Weight() * 100
}

// Categorize places a recommendation on the impact/effort quadrant grid.
// High impact means an estimated lift of 20% or more.
func Categorize(impact float64, effort models.Effort) models.Category {
	highImpact := impact >= 20
	lowEffort := effort.Ordinal() <= 2

	switch {
	case highImpact && lowEffort:
		return models.QuickWin
	case highImpact:
		return models.MajorProject
	case lowEffort:
		return models.FillIn
	default:
		return models.ThanklessTask
	}
}

// Prioritize fills in the derived score and category for each recommendation
// and orders the slice by score, best first. The sort is stable so equally
// scored recommendations keep their generation order.
func Prioritize(recs []models.Recommendation) []models.Recommendation {
	for i := range recs {
		recs[i].PriorityScore = PriorityScore(recs[i].EstimatedImpact, recs[i].ImplementationEffort, recs[i].ConfidenceLevel)
		recs[i].Category = Categorize(recs[i].EstimatedImpact, recs[i].ImplementationEffort)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PriorityScore > recs[j].PriorityScore
	})
	return recs
}
