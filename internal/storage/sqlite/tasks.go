package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stageranker/internal/models"
)

const taskColumns = `id, stage_id, name, description, sort_order, is_active, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.StageID, &t.Name, &t.Description, &t.Order, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTasks returns every task of a stage, active or not, in display order.
func (s *Store) ListTasks(ctx context.Context, stageID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE stage_id = ? ORDER BY sort_order, id`, stageID)
}

// ListActiveTasks returns the tasks of a stage that take part in ranking.
func (s *Store) ListActiveTasks(ctx context.Context, stageID int64) ([]models.Task, error) {
	return s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE stage_id = ? AND is_active = 1 ORDER BY sort_order, id`, stageID)
}

func (s *Store) queryTasks(ctx context.Context, query string, stageID int64) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task for a stage.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Name) == "" {
		return models.Task{}, fmt.Errorf("%w: task name must not be empty", ErrInvalid)
	}
	if _, err := s.GetStage(ctx, t.StageID); err != nil {
		return models.Task{}, err
	}
	if t.Order <= 0 {
		order, err := s.nextOrder(ctx, `SELECT MAX(sort_order) FROM tasks WHERE stage_id = ?`, t.StageID)
		if err != nil {
			return models.Task{}, err
		}
		t.Order = order
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(stage_id, name, description, sort_order, is_active) VALUES(?, ?, ?, ?, ?)`,
		t.StageID, strings.TrimSpace(t.Name), strings.TrimSpace(t.Description), t.Order, t.IsActive)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update. Recognized keys are name,
// description, order and is_active; anything else is ignored.
func (s *Store) UpdateTask(ctx context.Context, id int64, changes map[string]any) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	name := current.Name
	description := current.Description
	order := current.Order
	active := current.IsActive

	if v, ok := changes["name"].(string); ok && strings.TrimSpace(v) != "" {
		name = strings.TrimSpace(v)
	}
	if v, ok := changes["description"].(string); ok {
		description = strings.TrimSpace(v)
	}
	if v, ok := changes["order"].(int64); ok && v > 0 {
		order = v
	}
	if v, ok := changes["is_active"].(bool); ok {
		active = v
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET name = ?, description = ?, sort_order = ?, is_active = ? WHERE id = ?`,
		name, description, order, active, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task and every ranking row pointing at it.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return checkAffected(res, "task", id)
}
