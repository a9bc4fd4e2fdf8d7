package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func TestGetOrCreateUser(t *testing.T) {
	repo := newTestRepository(t)

	user, created, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, int64(100), user.TelegramID)
	assert.Empty(t, user.CurrentPlanID)
	assert.Empty(t, user.PublishedPlanID)

	again, created, err := repo.GetOrCreateUser(100, "ignored")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "alice", again.Name)
}

func TestRenameUser(t *testing.T) {
	repo := newTestRepository(t)

	_, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)

	require.NoError(t, repo.RenameUser(100, "Алиса"))
	user, err := repo.GetUserByTelegramID(100)
	require.NoError(t, err)
	assert.Equal(t, "Алиса", user.Name)

	assert.ErrorIs(t, repo.RenameUser(999, "nobody"), ErrNotFound)
}

func TestSeedBasePlansIdempotent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SeedBasePlans())
	first, err := repo.BasePlans()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, repo.SeedBasePlans())
	second, err := repo.BasePlans()
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

func TestSetCurrentRequiresExistingPlan(t *testing.T) {
	repo := newTestRepository(t)

	user, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.SetCurrent(100, "missing"), ErrNotFound)

	plan, err := repo.CreatePlan("День", user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.SetCurrent(100, plan.ID))

	user, err = repo.GetUserByTelegramID(100)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, user.CurrentPlanID)
}

func TestClonePlanCopiesBodiesOnly(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)

	base, err := repo.CreatePlan("Шаблон", "")
	require.NoError(t, err)
	first, err := repo.AddTask(base.ID, "Зарядка")
	require.NoError(t, err)
	_, err = repo.AddTask(base.ID, "Завтрак")
	require.NoError(t, err)

	require.NoError(t, repo.ToggleTask(first.ID))
	_, err = repo.AddComment(first.ID, owner.ID, "пропустил")
	require.NoError(t, err)

	clone, err := repo.ClonePlan(base.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, base.Name, clone.Name)
	assert.Equal(t, owner.ID, clone.OwnerID)
	assert.NotEqual(t, base.ID, clone.ID)

	tasks, err := repo.PlanTasks(clone.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Зарядка", tasks[0].Body)
	assert.Equal(t, "Завтрак", tasks[1].Body)
	for _, task := range tasks {
		assert.False(t, task.Checked)
	}

	comments, err := repo.PlanComments(clone.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	// The source template is untouched.
	srcTasks, err := repo.PlanTasks(base.ID)
	require.NoError(t, err)
	assert.True(t, srcTasks[0].Checked)
}

func TestDeletePlanClearsPointers(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)

	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)
	_, err = repo.AddComment(task.ID, owner.ID, "сделано")
	require.NoError(t, err)

	require.NoError(t, repo.SetCurrent(100, plan.ID))
	require.NoError(t, repo.SetPublished(100, plan.ID))

	ok, err := repo.DeletePlan(owner.ID, plan.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetPlan(plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := repo.GetUserByTelegramID(100)
	require.NoError(t, err)
	assert.Empty(t, user.CurrentPlanID)
	assert.Empty(t, user.PublishedPlanID)
}

func TestDeletePlanOwnership(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	other, _, err := repo.GetOrCreateUser(200, "bob")
	require.NoError(t, err)

	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)

	ok, err := repo.DeletePlan(other.ID, plan.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeletePlan(owner.ID, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Base templates have no owner and cannot be deleted this way.
	base, err := repo.CreatePlan("Шаблон", "")
	require.NoError(t, err)
	ok, err = repo.DeletePlan(owner.ID, base.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetPlan(plan.ID)
	assert.NoError(t, err)
}

func TestResetPlan(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)

	bodies := []string{"Зарядка", "Завтрак", "Работа"}
	for _, body := range bodies {
		task, err := repo.AddTask(plan.ID, body)
		require.NoError(t, err)
		require.NoError(t, repo.ToggleTask(task.ID))
		_, err = repo.AddComment(task.ID, owner.ID, "готово")
		require.NoError(t, err)
	}

	require.NoError(t, repo.ResetPlan(plan.ID))

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	require.Len(t, tasks, len(bodies))
	for i, task := range tasks {
		assert.False(t, task.Checked)
		assert.Equal(t, bodies[i], task.Body)
	}

	comments, err := repo.PlanComments(plan.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestInsertTaskOrdering(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	for _, body := range []string{"a", "b", "c"} {
		_, err := repo.AddTask(plan.ID, body)
		require.NoError(t, err)
	}

	// In front, in the middle, at the end.
	_, err = repo.InsertTask(plan.ID, 0, "start")
	require.NoError(t, err)
	_, err = repo.InsertTask(plan.ID, 2, "mid")
	require.NoError(t, err)
	_, err = repo.InsertTask(plan.ID, 5, "end")
	require.NoError(t, err)

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(tasks))
	for _, task := range tasks {
		got = append(got, task.Body)
	}
	assert.Equal(t, []string{"start", "a", "mid", "b", "c", "end"}, got)

	_, err = repo.InsertTask(plan.ID, 100, "off")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.InsertTask(plan.ID, -1, "off")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertTaskAfterDelete(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)

	var ids []string
	for _, body := range []string{"a", "b", "c", "d"} {
		task, err := repo.AddTask(plan.ID, body)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	// Deleting "b" leaves a position gap; inserts must still land by
	// presentation index, not raw position.
	require.NoError(t, repo.DeleteTask(ids[1]))

	_, err = repo.InsertTask(plan.ID, 1, "x")
	require.NoError(t, err)

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	got := make([]string, 0, len(tasks))
	for _, task := range tasks {
		got = append(got, task.Body)
	}
	assert.Equal(t, []string{"a", "x", "c", "d"}, got)
}

func TestPlanTasksTiedPositions(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)

	// Two appends racing to the same position must still come back in one
	// fixed order on every read.
	for _, row := range []struct{ id, body string }{
		{"a-first", "Зарядка"},
		{"b-second", "Завтрак"},
	} {
		_, err := repo.db.Exec(`
			INSERT INTO tasks (id, plan_id, position, body)
			VALUES ($1, $2, 1, $3)`, row.id, plan.ID, row.body)
		require.NoError(t, err)
	}

	first, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a-first", first[0].ID)

	second, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestToggleTask(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)

	require.NoError(t, repo.ToggleTask(task.ID))
	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.True(t, tasks[0].Checked)

	require.NoError(t, repo.ToggleTask(task.ID))
	tasks, err = repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.False(t, tasks[0].Checked)

	assert.ErrorIs(t, repo.ToggleTask("missing"), ErrNotFound)
}

func TestUpdateTaskKeepsCheckedAndComments(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)
	require.NoError(t, repo.ToggleTask(task.ID))
	_, err = repo.AddComment(task.ID, owner.ID, "15 минут")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateTask(task.ID, "Пробежка"))

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Пробежка", tasks[0].Body)
	assert.True(t, tasks[0].Checked)

	comments, err := repo.PlanComments(plan.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "15 минут", comments[0].Body)
	assert.Equal(t, "alice", comments[0].AuthorName)
}

func TestAddCommentMissingTask(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	_, err = repo.AddComment("missing", owner.ID, "текст")
	assert.ErrorIs(t, err, ErrNotFound)

	// A comment aimed at a just-deleted task leaves no orphan row behind.
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteTask(task.ID))

	_, err = repo.AddComment(task.ID, owner.ID, "поздно")
	assert.ErrorIs(t, err, ErrNotFound)

	var orphans int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestLifetimeSums(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)

	completed, hours, err := repo.UserLifetime(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, hours)

	stat, err := repo.CreateStatistic(owner.ID, plan.ID, -500, 5, 3, 0)
	require.NoError(t, err)
	require.NoError(t, repo.SetStudyHours(stat.ID, 2.5))
	_, err = repo.CreateStatistic(owner.ID, plan.ID, -500, 4, 4, 1.5)
	require.NoError(t, err)

	completed, hours, err = repo.UserLifetime(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, completed)
	assert.InDelta(t, 4.0, hours, 1e-9)

	completed, hours, err = repo.GroupLifetime(-500)
	require.NoError(t, err)
	assert.Equal(t, 7, completed)
	assert.InDelta(t, 4.0, hours, 1e-9)

	completed, hours, err = repo.GroupLifetime(-999)
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, hours)
}

func TestCloseDay(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)
	require.NoError(t, repo.ToggleTask(task.ID))
	_, err = repo.AddComment(task.ID, owner.ID, "15 минут")
	require.NoError(t, err)
	require.NoError(t, repo.SetPublished(100, plan.ID))

	stat, err := repo.CloseDay(owner.ID, plan.ID, -500, 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, stat.TotalTasks)
	assert.Equal(t, 1, stat.CompletedTasks)
	assert.Zero(t, stat.StudyHours)

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.False(t, tasks[0].Checked)

	comments, err := repo.PlanComments(plan.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	user, err := repo.GetUserByTelegramID(100)
	require.NoError(t, err)
	assert.Empty(t, user.PublishedPlanID)
}

func TestCloseDayRollsBackTogether(t *testing.T) {
	repo := newTestRepository(t)

	owner, _, err := repo.GetOrCreateUser(100, "alice")
	require.NoError(t, err)
	plan, err := repo.CreatePlan("День", owner.ID)
	require.NoError(t, err)
	task, err := repo.AddTask(plan.ID, "Зарядка")
	require.NoError(t, err)
	require.NoError(t, repo.ToggleTask(task.ID))
	require.NoError(t, repo.SetPublished(100, plan.ID))

	// Make the comment cleanup fail mid-transaction: the statistic insert
	// and the task reset must roll back with it, so a retried close does
	// not double-count.
	_, err = repo.db.Exec(`DROP TABLE comments`)
	require.NoError(t, err)

	_, err = repo.CloseDay(owner.ID, plan.ID, -500, 1, 1, 100)
	require.Error(t, err)

	completed, _, err := repo.UserLifetime(owner.ID)
	require.NoError(t, err)
	assert.Zero(t, completed)

	tasks, err := repo.PlanTasks(plan.ID)
	require.NoError(t, err)
	assert.True(t, tasks[0].Checked)

	user, err := repo.GetUserByTelegramID(100)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, user.PublishedPlanID)
}

func TestSetStudyHoursMissing(t *testing.T) {
	repo := newTestRepository(t)
	assert.ErrorIs(t, repo.SetStudyHours("missing", 2), ErrNotFound)
}
