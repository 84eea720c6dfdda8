package ranking

import (
	"fmt"
	"strconv"
	"strings"

	"stageranker/internal/models"
)

// RankFieldPrefix prefixes the per-task form field carrying a submitted rank.
const RankFieldPrefix = "rank_"

const (
	ReasonIncomplete = "missing or incomplete ranking"
	ReasonDuplicate  = "duplicate rank value used more than once"
)

// Rejection lists why a submitted ranking was not accepted.
type Rejection struct {
	Reasons []string
}

func (r *Rejection) Error() string {
	return "ranking rejected: " + strings.Join(r.Reasons, "; ")
}

// FieldName returns the form field that carries the rank of a task.
func FieldName(taskID int64) string {
	return fmt.Sprintf("%s%d", RankFieldPrefix, taskID)
}

// ParseSubmission reads one rank per task through lookup. Values that are
// empty, not integers, or outside [1, len(tasks)] are treated as absent.
func ParseSubmission(tasks []models.Task, lookup func(field string) string) models.Ranks {
	maxRank := len(tasks)
	ranks := make(models.Ranks, maxRank)
	for _, t := range tasks {
		raw := strings.TrimSpace(lookup(FieldName(t.ID)))
		if raw == "" {
			continue
		}
		rank, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if rank >= 1 && rank <= maxRank {
			ranks[t.ID] = rank
		}
	}
	return ranks
}

// Validate accepts submitted only when it assigns every active task exactly
// one rank and the ranks form the permutation 1..N. Out-of-range values are
// ignored as if they were never submitted. The returned error is a *Rejection.
func Validate(activeTaskIDs []int64, submitted models.Ranks) error {
	n := len(activeTaskIDs)
	active := make(map[int64]struct{}, n)
	for _, id := range activeTaskIDs {
		active[id] = struct{}{}
	}

	incomplete := false
	duplicate := false
	seen := make(map[int]struct{}, n)
	counted := 0
	for taskID, rank := range submitted {
		if rank < 1 || rank > n {
			continue
		}
		if _, ok := active[taskID]; !ok {
			incomplete = true
			continue
		}
		counted++
		if _, dup := seen[rank]; dup {
			duplicate = true
			continue
		}
		seen[rank] = struct{}{}
	}
	if counted != n || len(seen) != n {
		incomplete = true
	}

	var reasons []string
	if incomplete {
		reasons = append(reasons, ReasonIncomplete)
	}
	if duplicate {
		reasons = append(reasons, ReasonDuplicate)
	}
	if len(reasons) > 0 {
		return &Rejection{Reasons: reasons}
	}
	return nil
}

// TaskIDs returns the ids of tasks in order.
func TaskIDs(tasks []models.Task) []int64 {
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}
