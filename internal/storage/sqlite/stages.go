package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stageranker/internal/models"
)

const stageColumns = `id, name, description, image_url, sort_order, created_at, updated_at`

func scanStage(row interface{ Scan(...any) error }) (models.Stage, error) {
	var st models.Stage
	err := row.Scan(&st.ID, &st.Name, &st.Description, &st.ImageURL, &st.Order, &st.CreatedAt, &st.UpdatedAt)
	return st, err
}

// ListStages retrieves all stages in display order.
func (s *Store) ListStages(ctx context.Context) ([]models.Stage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+stageColumns+` FROM stages ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	stages := []models.Stage{}
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// GetStage fetches a single stage by id.
func (s *Store) GetStage(ctx context.Context, id int64) (models.Stage, error) {
	st, err := scanStage(s.db.QueryRowContext(ctx, `SELECT `+stageColumns+` FROM stages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Stage{}, fmt.Errorf("stage %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Stage{}, fmt.Errorf("get stage: %w", err)
	}
	return st, nil
}

// CreateStage persists a new stage. A zero order places it after the existing stages.
func (s *Store) CreateStage(ctx context.Context, st models.Stage) (models.Stage, error) {
	if strings.TrimSpace(st.Name) == "" {
		return models.Stage{}, fmt.Errorf("%w: stage name must not be empty", ErrInvalid)
	}
	if st.Order <= 0 {
		order, err := s.nextOrder(ctx, `SELECT MAX(sort_order) FROM stages`)
		if err != nil {
			return models.Stage{}, err
		}
		st.Order = order
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO stages(name, description, image_url, sort_order) VALUES(?, ?, ?, ?)`,
		strings.TrimSpace(st.Name), strings.TrimSpace(st.Description), strings.TrimSpace(st.ImageURL), st.Order)
	if err != nil {
		return models.Stage{}, fmt.Errorf("insert stage: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Stage{}, fmt.Errorf("stage id: %w", err)
	}
	return s.GetStage(ctx, id)
}

// UpdateStage overwrites the editable stage fields.
func (s *Store) UpdateStage(ctx context.Context, st models.Stage) (models.Stage, error) {
	if strings.TrimSpace(st.Name) == "" {
		return models.Stage{}, fmt.Errorf("%w: stage name must not be empty", ErrInvalid)
	}
	if st.Order <= 0 {
		st.Order = 1
	}

	res, err := s.db.ExecContext(ctx, `UPDATE stages SET name = ?, description = ?, image_url = ?, sort_order = ? WHERE id = ?`,
		strings.TrimSpace(st.Name), strings.TrimSpace(st.Description), strings.TrimSpace(st.ImageURL), st.Order, st.ID)
	if err != nil {
		return models.Stage{}, fmt.Errorf("update stage: %w", err)
	}
	if err := checkAffected(res, "stage", st.ID); err != nil {
		return models.Stage{}, err
	}
	return s.GetStage(ctx, st.ID)
}

// DeleteStage removes a stage along with its tasks and rankings.
func (s *Store) DeleteStage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete stage: %w", err)
	}
	return checkAffected(res, "stage", id)
}

func (s *Store) nextOrder(ctx context.Context, query string, args ...any) (int64, error) {
	var order sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&order); err != nil {
		return 0, fmt.Errorf("select order: %w", err)
	}
	if order.Valid {
		return order.Int64 + 1, nil
	}
	return 1, nil
}
