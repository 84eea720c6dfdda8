package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stageranker/internal/models"
)

const (
	taskA int64 = 1
	taskB int64 = 2
	taskC int64 = 3
)

var officialABC = models.Ranks{taskA: 1, taskB: 2, taskC: 3}

func TestScore_PerfectMatch(t *testing.T) {
	got, ok := Score(models.Ranks{taskA: 1, taskB: 2, taskC: 3}, officialABC, 3)

	require.True(t, ok)
	assert.Equal(t, ScoreSummary{
		FinalScore:      100.0,
		ExactMatches:    3,
		MatchedTasks:    3,
		TotalTasks:      3,
		Percentage:      100.0,
		AverageDistance: 0,
	}, got)
}

func TestScore_RoundsOnceAtTheEnd(t *testing.T) {
	got, ok := Score(models.Ranks{taskA: 2, taskB: 1, taskC: 3}, officialABC, 3)

	require.True(t, ok)
	assert.Equal(t, 1, got.ExactMatches)
	assert.Equal(t, 3, got.MatchedTasks)
	assert.Equal(t, 33.3, got.Percentage)
	assert.Equal(t, 0.67, got.AverageDistance)
	assert.Equal(t, 30.0, got.FinalScore)
}

func TestScore_FlooredAtZero(t *testing.T) {
	user := models.Ranks{1: 4, 2: 3, 3: 2, 4: 1}
	official := models.Ranks{1: 1, 2: 2, 3: 3, 4: 4}

	got, ok := Score(user, official, 4)

	require.True(t, ok, "a zero score is still a score")
	assert.Equal(t, 0, got.ExactMatches)
	assert.Equal(t, 2.0, got.AverageDistance)
	assert.Equal(t, 0.0, got.FinalScore)
}

func TestScore_UnavailableWithoutData(t *testing.T) {
	_, ok := Score(models.Ranks{}, officialABC, 3)
	assert.False(t, ok)

	_, ok = Score(officialABC, models.Ranks{}, 3)
	assert.False(t, ok)

	_, ok = Score(nil, nil, 0)
	assert.False(t, ok)
}

func TestScore_UnavailableWhenNoTaskShared(t *testing.T) {
	_, ok := Score(models.Ranks{taskA: 1}, models.Ranks{taskB: 1}, 2)
	assert.False(t, ok)
}

func TestScore_OnlyMatchedTasksCount(t *testing.T) {
	got, ok := Score(models.Ranks{taskA: 1, taskB: 2}, models.Ranks{taskA: 1}, 3)

	require.True(t, ok)
	assert.Equal(t, 1, got.MatchedTasks)
	assert.Equal(t, 3, got.TotalTasks)
	assert.Equal(t, 100.0, got.FinalScore)
}

func TestScore_ToleratesTiesAndGapsInOfficial(t *testing.T) {
	official := models.Ranks{taskA: 1, taskB: 1, taskC: 5}

	got, ok := Score(models.Ranks{taskA: 1, taskB: 2, taskC: 3}, official, 3)

	require.True(t, ok)
	assert.Equal(t, 1, got.ExactMatches)
	assert.Equal(t, 1.0, got.AverageDistance)
	assert.Equal(t, 33.3, got.Percentage)
	assert.Equal(t, 28.3, got.FinalScore)
}

func TestScore_Deterministic(t *testing.T) {
	user := models.Ranks{taskA: 3, taskB: 1, taskC: 2}
	first, ok1 := Score(user, officialABC, 3)
	for i := 0; i < 20; i++ {
		again, ok2 := Score(user, officialABC, 3)
		assert.Equal(t, ok1, ok2)
		assert.Equal(t, first, again)
	}
}
