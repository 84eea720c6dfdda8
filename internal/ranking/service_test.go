package ranking

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stageranker/internal/models"
	"stageranker/internal/storage/sqlite"
)

type fixture struct {
	store   *sqlite.Store
	service *Service
	stage   models.Stage
	tasks   []models.Task
	user    models.User
	admin   models.User
}

func newFixture(t *testing.T, taskCount int) fixture {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	stage, err := store.CreateStage(ctx, models.Stage{Name: "Stage One"})
	require.NoError(t, err)

	var tasks []models.Task
	for i := 0; i < taskCount; i++ {
		task, err := store.CreateTask(ctx, models.Task{StageID: stage.ID, Name: string(rune('A' + i)), IsActive: true})
		require.NoError(t, err)
		tasks = append(tasks, task)
	}

	user, err := store.CreateUser(ctx, models.User{Username: "alice", PasswordHash: "x", Role: models.RoleUser})
	require.NoError(t, err)
	admin, err := store.CreateUser(ctx, models.User{Username: "root", PasswordHash: "x", Role: models.RoleSuperuser})
	require.NoError(t, err)

	return fixture{store: store, service: NewService(store, nil), stage: stage, tasks: tasks, user: user, admin: admin}
}

func (f fixture) form(ranks ...int) func(string) string {
	values := map[string]string{}
	for i, r := range ranks {
		if r > 0 {
			values[FieldName(f.tasks[i].ID)] = strconv.Itoa(r)
		}
	}
	return formLookup(values)
}

func TestSubmitRanking_PersistsAcceptedRanking(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	view, err := f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(2, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, view.MaxRank)

	stored, err := f.store.GetUserRanking(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Ranks{f.tasks[0].ID: 2, f.tasks[1].ID: 1, f.tasks[2].ID: 3}, stored)
}

func TestSubmitRanking_RejectionKeepsAttemptAndWritesNothing(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	view, err := f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(1, 2, 0))
	assert.Equal(t, []string{ReasonIncomplete}, reasonsOf(t, err))
	assert.Equal(t, models.Ranks{f.tasks[0].ID: 1, f.tasks[1].ID: 2}, view.Ranking)
	assert.Len(t, view.Tasks, 3)

	_, err = f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(1, 1, 2))
	assert.Equal(t, []string{ReasonIncomplete, ReasonDuplicate}, reasonsOf(t, err))

	stored, err := f.store.GetUserRanking(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSubmitRanking_Idempotent(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(3, 2, 1))
	require.NoError(t, err)
	_, err = f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(3, 2, 1))
	require.NoError(t, err)

	rows, err := f.store.ListUserRankings(ctx, f.stage.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSubmitRanking_DeactivatedTaskLeavesStaleRow(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(1, 2, 3))
	require.NoError(t, err)

	_, err = f.store.UpdateTask(ctx, f.tasks[2].ID, map[string]any{"is_active": false})
	require.NoError(t, err)

	view, err := f.service.StageView(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.MaxRank)
	assert.Equal(t, []int{1, 2}, view.RankChoices)
	assert.NotContains(t, view.Ranking, f.tasks[2].ID)

	// Only the two active tasks are required now.
	_, err = f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(2, 1))
	require.NoError(t, err)

	stored, err := f.store.GetUserRanking(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Ranks{f.tasks[0].ID: 2, f.tasks[1].ID: 1, f.tasks[2].ID: 3}, stored)
}

func TestSubmitRanking_UnknownStage(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.service.SubmitRanking(context.Background(), f.user.ID, 999, f.form(1))
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestStageView_ScoresAgainstOfficialRanking(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	view, err := f.service.StageView(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Score, "no ranking yet")

	_, err = f.service.SubmitRanking(ctx, f.user.ID, f.stage.ID, f.form(2, 1, 3))
	require.NoError(t, err)

	view, err = f.service.StageView(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Score, "no official ranking yet")

	official := models.Ranks{f.tasks[0].ID: 1, f.tasks[1].ID: 2, f.tasks[2].ID: 3}
	require.NoError(t, f.service.SetOfficialRanking(ctx, f.admin, f.stage.ID, official))

	view, err = f.service.StageView(ctx, f.user.ID, f.stage.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Score)
	assert.Equal(t, 30.0, view.Score.FinalScore)
	assert.Equal(t, 1, view.Score.ExactMatches)
	assert.Equal(t, 3, view.Score.TotalTasks)
	assert.Len(t, view.Stages, 1)
}

func TestSetOfficialRanking_RequiresPrivilegedActor(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	ranks := models.Ranks{f.tasks[0].ID: 1, f.tasks[1].ID: 2}

	err := f.service.SetOfficialRanking(ctx, f.user, f.stage.ID, ranks)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, f.service.ClearOfficialRanking(ctx, f.user, f.stage.ID), ErrForbidden)

	stored, err := f.store.GetOfficialRanking(ctx, f.stage.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	admin := models.User{Username: "staff", Role: models.RoleAdmin}
	require.NoError(t, f.service.SetOfficialRanking(ctx, admin, f.stage.ID, ranks))
	require.NoError(t, f.service.ClearOfficialRanking(ctx, admin, f.stage.ID))
}

func TestSetOfficialRanking_ChecksTasksAndRanks(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	other, err := f.store.CreateStage(ctx, models.Stage{Name: "Other"})
	require.NoError(t, err)
	foreign, err := f.store.CreateTask(ctx, models.Task{StageID: other.ID, Name: "foreign", IsActive: true})
	require.NoError(t, err)

	err = f.service.SetOfficialRanking(ctx, f.admin, f.stage.ID, models.Ranks{foreign.ID: 1})
	assert.ErrorIs(t, err, ErrUnknownTask)

	err = f.service.SetOfficialRanking(ctx, f.admin, f.stage.ID, models.Ranks{f.tasks[0].ID: 0})
	assert.ErrorIs(t, err, ErrInvalidRank)

	// Ties and gaps are allowed.
	tied := models.Ranks{f.tasks[0].ID: 2, f.tasks[1].ID: 2}
	require.NoError(t, f.service.SetOfficialRanking(ctx, f.admin, f.stage.ID, tied))
	stored, err := f.store.GetOfficialRanking(ctx, f.stage.ID)
	require.NoError(t, err)
	assert.Equal(t, tied, stored)
}
