package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"stageranker/internal/models"
)

// GetUserRanking returns every rank row the user holds for a stage,
// including rows for tasks that have since been deactivated.
func (s *Store) GetUserRanking(ctx context.Context, userID, stageID int64) (models.Ranks, error) {
	return s.queryRanks(ctx, `SELECT task_id, rank FROM task_rankings WHERE user_id = ? AND stage_id = ?`, userID, stageID)
}

// GetOfficialRanking returns the ground-truth ranks of a stage.
func (s *Store) GetOfficialRanking(ctx context.Context, stageID int64) (models.Ranks, error) {
	return s.queryRanks(ctx, `SELECT task_id, rank FROM official_rankings WHERE stage_id = ?`, stageID)
}

func (s *Store) queryRanks(ctx context.Context, query string, args ...any) (models.Ranks, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranks: %w", err)
	}
	defer rows.Close()

	ranks := models.Ranks{}
	for rows.Next() {
		var taskID int64
		var rank int
		if err := rows.Scan(&taskID, &rank); err != nil {
			return nil, fmt.Errorf("scan rank: %w", err)
		}
		ranks[taskID] = rank
	}
	return ranks, rows.Err()
}

// ListUserRankings returns all user rank rows of a stage ordered by user and rank.
func (s *Store) ListUserRankings(ctx context.Context, stageID int64) ([]models.UserRanking, error) {
	return s.queryUserRankings(ctx, `WHERE stage_id = ?`, stageID)
}

// ListUserRankingsOf returns one user's rank rows of a stage ordered by rank.
func (s *Store) ListUserRankingsOf(ctx context.Context, stageID, userID int64) ([]models.UserRanking, error) {
	return s.queryUserRankings(ctx, `WHERE stage_id = ? AND user_id = ?`, stageID, userID)
}

func (s *Store) queryUserRankings(ctx context.Context, where string, args ...any) ([]models.UserRanking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, stage_id, task_id, rank, created_at, updated_at
        FROM task_rankings `+where+` ORDER BY user_id, rank, task_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list rankings: %w", err)
	}
	defer rows.Close()

	out := []models.UserRanking{}
	for rows.Next() {
		var r models.UserRanking
		if err := rows.Scan(&r.UserID, &r.StageID, &r.TaskID, &r.Rank, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan ranking: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertUserRanking writes one row per task in a single transaction.
// Existing rows keep their created_at; rows for tasks missing from ranks are left alone.
func (s *Store) UpsertUserRanking(ctx context.Context, userID, stageID int64, ranks models.Ranks) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO task_rankings(user_id, stage_id, task_id, rank, created_at, updated_at)
            VALUES(?, ?, ?, ?, ?, ?)
            ON CONFLICT(user_id, stage_id, task_id) DO UPDATE SET rank = excluded.rank, updated_at = excluded.updated_at`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, taskID := range sortedTaskIDs(ranks) {
			if _, err := stmt.ExecContext(ctx, userID, stageID, taskID, ranks[taskID], now, now); err != nil {
				return fmt.Errorf("upsert ranking for task %d: %w", taskID, err)
			}
		}
		return nil
	})
}

// ReplaceOfficialRanking swaps the official ranking of a stage for ranks.
func (s *Store) ReplaceOfficialRanking(ctx context.Context, stageID int64, ranks models.Ranks) error {
	now := s.now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM official_rankings WHERE stage_id = ?`, stageID); err != nil {
			return fmt.Errorf("clear official ranking: %w", err)
		}
		for _, taskID := range sortedTaskIDs(ranks) {
			_, err := tx.ExecContext(ctx, `INSERT INTO official_rankings(stage_id, task_id, rank, created_at, updated_at) VALUES(?, ?, ?, ?, ?)`,
				stageID, taskID, ranks[taskID], now, now)
			if err != nil {
				return fmt.Errorf("insert official rank for task %d: %w", taskID, err)
			}
		}
		return nil
	})
}

// DeleteOfficialRanking removes the official ranking of a stage.
func (s *Store) DeleteOfficialRanking(ctx context.Context, stageID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM official_rankings WHERE stage_id = ?`, stageID); err != nil {
		return fmt.Errorf("delete official ranking: %w", err)
	}
	return nil
}

func sortedTaskIDs(ranks models.Ranks) []int64 {
	ids := make([]int64, 0, len(ranks))
	for id := range ranks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
