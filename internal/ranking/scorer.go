package ranking

import (
	"math"

	"stageranker/internal/models"
)

// DistancePenalty is subtracted from the percentage per unit of average rank displacement.
const DistancePenalty = 5.0

// ScoreSummary compares a user ranking with the official one.
type ScoreSummary struct {
	FinalScore      float64 `json:"final_score"`
	ExactMatches    int     `json:"exact_matches"`
	MatchedTasks    int     `json:"matched_tasks"`
	TotalTasks      int     `json:"total_tasks"`
	Percentage      float64 `json:"percentage"`
	AverageDistance float64 `json:"average_distance"`
}

// Score compares user against official over the tasks present in both.
// It reports false when either ranking is empty or they share no task.
// All rounding happens once, on the final values.
func Score(user, official models.Ranks, totalTasks int) (ScoreSummary, bool) {
	if len(user) == 0 || len(official) == 0 {
		return ScoreSummary{}, false
	}

	matched, exact, distance := 0, 0, 0
	for taskID, userRank := range user {
		officialRank, ok := official[taskID]
		if !ok {
			continue
		}
		matched++
		if userRank == officialRank {
			exact++
		}
		distance += abs(userRank - officialRank)
	}
	if matched == 0 {
		return ScoreSummary{}, false
	}

	avg := float64(distance) / float64(matched)
	pct := 100 * float64(exact) / float64(matched)
	final := math.Max(0, pct-DistancePenalty*avg)

	return ScoreSummary{
		FinalScore:      round(final, 1),
		ExactMatches:    exact,
		MatchedTasks:    matched,
		TotalTasks:      totalTasks,
		Percentage:      round(pct, 1),
		AverageDistance: round(avg, 2),
	}, true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
