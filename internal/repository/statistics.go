package repository

import (
	"github.com/google/uuid"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

// CreateStatistic records the outcome of a closed day. Study hours usually
// arrive later and start at zero.
func (r *Repository) CreateStatistic(userID, planID string, groupID int64, totalTasks, completedTasks int, studyHours float64) (*models.Statistic, error) {
	var stat models.Statistic
	err := r.db.QueryRow(`
		INSERT INTO statistics (id, user_id, plan_id, group_id, total_tasks, completed_tasks, study_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, plan_id, group_id, total_tasks, completed_tasks, study_hours, created_at`,
		uuid.NewString(), userID, planID, groupID, totalTasks, completedTasks, studyHours).Scan(
		&stat.ID, &stat.UserID, &stat.PlanID, &stat.GroupID,
		&stat.TotalTasks, &stat.CompletedTasks, &stat.StudyHours, &stat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// CloseDay finalizes a published plan in one transaction: the statistic is
// recorded, the plan's volatile state is reset and the publisher's plan is
// unpublished. Either all three land or none do, so a failed close can be
// retried without double-counting.
func (r *Repository) CloseDay(userID, planID string, groupID int64, totalTasks, completedTasks int, publisherTelegramID int64) (*models.Statistic, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var stat models.Statistic
	err = tx.QueryRow(`
		INSERT INTO statistics (id, user_id, plan_id, group_id, total_tasks, completed_tasks, study_hours)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, user_id, plan_id, group_id, total_tasks, completed_tasks, study_hours, created_at`,
		uuid.NewString(), userID, planID, groupID, totalTasks, completedTasks).Scan(
		&stat.ID, &stat.UserID, &stat.PlanID, &stat.GroupID,
		&stat.TotalTasks, &stat.CompletedTasks, &stat.StudyHours, &stat.CreatedAt)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE tasks SET checked = FALSE WHERE plan_id = $1`, planID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE plan_id = $1)`, planID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`UPDATE users SET published_plan_id = '' WHERE telegram_id = $1`, publisherTelegramID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &stat, nil
}

// SetStudyHours fills in the late-arriving study time for a statistic.
func (r *Repository) SetStudyHours(statisticID string, hours float64) error {
	res, err := r.db.Exec(`UPDATE statistics SET study_hours = $1 WHERE id = $2`, hours, statisticID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// UserLifetime sums completed tasks and study hours across every statistic of
// the user. No rows means zeroes, not an error.
func (r *Repository) UserLifetime(userID string) (completed int, hours float64, err error) {
	err = r.db.QueryRow(`
		SELECT COALESCE(SUM(completed_tasks), 0), COALESCE(SUM(study_hours), 0)
		FROM statistics WHERE user_id = $1`, userID).Scan(&completed, &hours)
	return
}

// GroupLifetime sums completed tasks and study hours across every statistic
// tagged with the group.
func (r *Repository) GroupLifetime(groupID int64) (completed int, hours float64, err error) {
	err = r.db.QueryRow(`
		SELECT COALESCE(SUM(completed_tasks), 0), COALESCE(SUM(study_hours), 0)
		FROM statistics WHERE group_id = $1`, groupID).Scan(&completed, &hours)
	return
}
