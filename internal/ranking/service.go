package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stageranker/internal/models"
)

var (
	// ErrForbidden is returned when a non-privileged actor edits an official ranking.
	ErrForbidden = errors.New("official rankings may only be changed by administrators")
	// ErrUnknownTask is returned when an official rank names a task outside the stage.
	ErrUnknownTask = errors.New("task does not belong to stage")
	// ErrInvalidRank is returned for official ranks that are not positive.
	ErrInvalidRank = errors.New("rank must be a positive integer")
)

// Store is the persistence the ranking service depends on.
type Store interface {
	GetStage(ctx context.Context, id int64) (models.Stage, error)
	ListStages(ctx context.Context) ([]models.Stage, error)
	ListTasks(ctx context.Context, stageID int64) ([]models.Task, error)
	ListActiveTasks(ctx context.Context, stageID int64) ([]models.Task, error)
	GetUserRanking(ctx context.Context, userID, stageID int64) (models.Ranks, error)
	GetOfficialRanking(ctx context.Context, stageID int64) (models.Ranks, error)
	UpsertUserRanking(ctx context.Context, userID, stageID int64, ranks models.Ranks) error
	ReplaceOfficialRanking(ctx context.Context, stageID int64, ranks models.Ranks) error
	DeleteOfficialRanking(ctx context.Context, stageID int64) error
}

// Service ties the validator, the store and the scorer together.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds a ranking service on top of store.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// StageView bundles everything needed to render a stage for one user.
type StageView struct {
	Stage       models.Stage   `json:"stage"`
	Stages      []models.Stage `json:"stages"`
	Tasks       []models.Task  `json:"tasks"`
	Ranking     models.Ranks   `json:"ranking"`
	RankChoices []int          `json:"rank_choices"`
	MaxRank     int            `json:"max_rank"`
	Score       *ScoreSummary  `json:"score"`
}

// StageView loads a stage with the caller's ranking and, when an official
// ranking exists, the caller's score. Both rankings are restricted to the
// currently active tasks.
func (s *Service) StageView(ctx context.Context, userID, stageID int64) (StageView, error) {
	view, err := s.baseView(ctx, stageID)
	if err != nil {
		return StageView{}, err
	}

	mine, err := s.store.GetUserRanking(ctx, userID, stageID)
	if err != nil {
		return StageView{}, err
	}
	official, err := s.store.GetOfficialRanking(ctx, stageID)
	if err != nil {
		return StageView{}, err
	}

	ids := TaskIDs(view.Tasks)
	view.Ranking = restrict(mine, ids)
	if summary, ok := Score(view.Ranking, restrict(official, ids), len(view.Tasks)); ok {
		view.Score = &summary
	}
	return view, nil
}

func (s *Service) baseView(ctx context.Context, stageID int64) (StageView, error) {
	stage, err := s.store.GetStage(ctx, stageID)
	if err != nil {
		return StageView{}, err
	}
	stages, err := s.store.ListStages(ctx)
	if err != nil {
		return StageView{}, err
	}
	tasks, err := s.store.ListActiveTasks(ctx, stageID)
	if err != nil {
		return StageView{}, err
	}

	choices := make([]int, len(tasks))
	for i := range choices {
		choices[i] = i + 1
	}
	return StageView{
		Stage:       stage,
		Stages:      stages,
		Tasks:       tasks,
		Ranking:     models.Ranks{},
		RankChoices: choices,
		MaxRank:     len(tasks),
	}, nil
}

// SubmitRanking parses and validates a form submission against the stage's
// current active tasks and stores it. On a *Rejection the returned view
// carries the attempted ranking so it can be shown back to the user.
func (s *Service) SubmitRanking(ctx context.Context, userID, stageID int64, lookup func(field string) string) (StageView, error) {
	view, err := s.baseView(ctx, stageID)
	if err != nil {
		return StageView{}, err
	}

	submitted := ParseSubmission(view.Tasks, lookup)
	view.Ranking = submitted
	if err := Validate(TaskIDs(view.Tasks), submitted); err != nil {
		s.logger.Info("ranking rejected",
			slog.Int64("user_id", userID),
			slog.Int64("stage_id", stageID),
			slog.Any("reasons", err.(*Rejection).Reasons))
		return view, err
	}

	if err := s.store.UpsertUserRanking(ctx, userID, stageID, submitted); err != nil {
		return StageView{}, fmt.Errorf("save ranking: %w", err)
	}
	s.logger.Info("ranking saved", slog.Int64("user_id", userID), slog.Int64("stage_id", stageID), slog.Int("tasks", len(submitted)))
	return view, nil
}

// SetOfficialRanking replaces the official ranking of a stage. Gaps and ties
// are allowed, but every task must belong to the stage and every rank must be
// positive.
func (s *Service) SetOfficialRanking(ctx context.Context, actor models.User, stageID int64, ranks models.Ranks) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if _, err := s.store.GetStage(ctx, stageID); err != nil {
		return err
	}
	tasks, err := s.store.ListTasks(ctx, stageID)
	if err != nil {
		return err
	}
	known := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		known[t.ID] = struct{}{}
	}
	for taskID, rank := range ranks {
		if _, ok := known[taskID]; !ok {
			return fmt.Errorf("task %d: %w", taskID, ErrUnknownTask)
		}
		if rank < 1 {
			return fmt.Errorf("task %d: %w", taskID, ErrInvalidRank)
		}
	}

	if err := s.store.ReplaceOfficialRanking(ctx, stageID, ranks); err != nil {
		return fmt.Errorf("save official ranking: %w", err)
	}
	s.logger.Info("official ranking replaced", slog.Int64("stage_id", stageID), slog.String("by", actor.Username))
	return nil
}

// ClearOfficialRanking removes the official ranking of a stage.
func (s *Service) ClearOfficialRanking(ctx context.Context, actor models.User, stageID int64) error {
	if !actor.Role.Privileged() {
		return ErrForbidden
	}
	if _, err := s.store.GetStage(ctx, stageID); err != nil {
		return err
	}
	if err := s.store.DeleteOfficialRanking(ctx, stageID); err != nil {
		return err
	}
	s.logger.Info("official ranking cleared", slog.Int64("stage_id", stageID), slog.String("by", actor.Username))
	return nil
}

func restrict(ranks models.Ranks, taskIDs []int64) models.Ranks {
	out := make(models.Ranks, len(taskIDs))
	for _, id := range taskIDs {
		if rank, ok := ranks[id]; ok {
			out[id] = rank
		}
	}
	return out
}
