package allocator

import (
	"math"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// call-ups are distributed. 100% is perfectly fair (Standard Deviation = 0).
func CalculateFairnessScore(stats []models.PlayerStats) float64 {
	if len(stats) == 0 {
		return 100.0
	}

	var sum float64
	for _, s := range stats {
		sum += float64(s.Appearances())
	}

	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(stats))

	var varianceSum float64
	for _, s := range stats {
		diff := float64(s.Appearances()) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(stats)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
