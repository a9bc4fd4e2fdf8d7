package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

const planColumns = `id, owner_id, name, created_at`

func scanPlan(row *sql.Row) (*models.Plan, error) {
	var plan models.Plan
	err := row.Scan(&plan.ID, &plan.OwnerID, &plan.Name, &plan.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreatePlan creates a plan. An empty ownerID makes it a base template.
func (r *Repository) CreatePlan(name, ownerID string) (*models.Plan, error) {
	return scanPlan(r.db.QueryRow(`
		INSERT INTO plans (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+planColumns, uuid.NewString(), ownerID, name))
}

func (r *Repository) GetPlan(planID string) (*models.Plan, error) {
	return scanPlan(r.db.QueryRow(`
		SELECT `+planColumns+` FROM plans WHERE id = $1`, planID))
}

// BasePlans returns all ownerless template plans.
func (r *Repository) BasePlans() ([]models.Plan, error) {
	return r.queryPlans(`SELECT `+planColumns+` FROM plans WHERE owner_id = '' ORDER BY created_at`, nil...)
}

// UserPlans returns the personal plans of the given user.
func (r *Repository) UserPlans(ownerID string) ([]models.Plan, error) {
	return r.queryPlans(`SELECT `+planColumns+` FROM plans WHERE owner_id = $1 ORDER BY created_at`, ownerID)
}

func (r *Repository) queryPlans(query string, args ...any) ([]models.Plan, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var plan models.Plan
		if err := rows.Scan(&plan.ID, &plan.OwnerID, &plan.Name, &plan.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// ClonePlan copies a plan and its task bodies into a fresh personal plan for
// the given owner. Checked state and comments are not carried over. Base
// templates are cloned rather than edited in place.
func (r *Repository) ClonePlan(planID, ownerID string) (*models.Plan, error) {
	src, err := r.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	tasks, err := r.PlanTasks(planID)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	clone := &models.Plan{ID: uuid.NewString(), OwnerID: ownerID, Name: src.Name}
	err = tx.QueryRow(`
		INSERT INTO plans (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at`, clone.ID, clone.OwnerID, clone.Name).Scan(&clone.CreatedAt)
	if err != nil {
		return nil, err
	}
	for i, task := range tasks {
		_, err = tx.Exec(`
			INSERT INTO tasks (id, plan_id, position, body)
			VALUES ($1, $2, $3, $4)`, uuid.NewString(), clone.ID, i+1, task.Body)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return clone, nil
}

// DeletePlan removes a personal plan with its tasks and comments and clears
// every current/published pointer that referenced it. Returns false without
// touching anything when the plan is missing or not owned by the user.
func (r *Repository) DeletePlan(ownerID, planID string) (bool, error) {
	plan, err := r.GetPlan(planID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if plan.OwnerID != ownerID {
		return false, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`UPDATE users SET current_plan_id = '' WHERE current_plan_id = $1`,
		`UPDATE users SET published_plan_id = '' WHERE published_plan_id = $1`,
		`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE plan_id = $1)`,
		`DELETE FROM tasks WHERE plan_id = $1`,
		`DELETE FROM plans WHERE id = $1`,
	} {
		if _, err := tx.Exec(stmt, planID); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPlan clears the volatile day state: all tasks unchecked, all comments
// gone. Task rows and their order survive so the plan can be reused tomorrow.
func (r *Repository) ResetPlan(planID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE tasks SET checked = FALSE WHERE plan_id = $1`, planID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE plan_id = $1)`, planID); err != nil {
		return err
	}
	return tx.Commit()
}

const taskColumns = `id, plan_id, position, body, checked, created_at`

// AddTask appends a task to the end of the plan.
func (r *Repository) AddTask(planID, body string) (*models.Task, error) {
	if _, err := r.GetPlan(planID); err != nil {
		return nil, err
	}
	var task models.Task
	err := r.db.QueryRow(`
		INSERT INTO tasks (id, plan_id, position, body)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE plan_id = $2), $3)
		RETURNING `+taskColumns, uuid.NewString(), planID, body).Scan(
		&task.ID, &task.PlanID, &task.Position, &task.Body, &task.Checked, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// InsertTask places a task so that exactly index tasks precede it
// (index 0 inserts at the beginning). Positions of the following tasks are
// shifted, their relative order is untouched.
func (r *Repository) InsertTask(planID string, index int, body string) (*models.Task, error) {
	tasks, err := r.PlanTasks(planID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index > len(tasks) {
		return nil, fmt.Errorf("task index %d: %w", index, ErrNotFound)
	}
	if index == len(tasks) {
		return r.AddTask(planID, body)
	}

	position := tasks[index].Position

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE tasks SET position = position + 1 WHERE plan_id = $1 AND position >= $2`, planID, position); err != nil {
		return nil, err
	}
	var task models.Task
	err = tx.QueryRow(`
		INSERT INTO tasks (id, plan_id, position, body)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns, uuid.NewString(), planID, position, body).Scan(
		&task.ID, &task.PlanID, &task.Position, &task.Body, &task.Checked, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask rewrites the task body. Checked state and comments stay as they
// were.
func (r *Repository) UpdateTask(taskID, body string) error {
	res, err := r.db.Exec(`UPDATE tasks SET body = $1 WHERE id = $2`, body, taskID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

func (r *Repository) DeleteTask(taskID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM comments WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	if err := oneRowAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

// ToggleTask flips the checked flag in a single statement, so concurrent
// group members never overwrite each other's toggles with stale reads.
func (r *Repository) ToggleTask(taskID string) error {
	res, err := r.db.Exec(`UPDATE tasks SET checked = NOT checked WHERE id = $1`, taskID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// PlanTasks returns the plan's tasks in presentation order. Created-at and id
// break position ties, so two appends that raced to the same position still
// come back in one fixed order.
func (r *Repository) PlanTasks(planID string) ([]models.Task, error) {
	rows, err := r.db.Query(`
		SELECT `+taskColumns+` FROM tasks WHERE plan_id = $1 ORDER BY position, created_at, id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.PlanID, &task.Position, &task.Body, &task.Checked, &task.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// AddComment attaches a comment to a task on behalf of the author. The insert
// selects from the task row itself, so a task deleted in between cannot leave
// an orphan comment.
func (r *Repository) AddComment(taskID, authorID, body string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.QueryRow(`
		INSERT INTO comments (id, task_id, author_id, body)
		SELECT $1, id, $2, $3 FROM tasks WHERE id = $4
		RETURNING id, task_id, author_id, body, created_at`,
		uuid.NewString(), authorID, body, taskID).Scan(
		&comment.ID, &comment.TaskID, &comment.AuthorID, &comment.Body, &comment.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// PlanComments returns every comment on the plan's tasks in creation order,
// with author names joined in.
func (r *Repository) PlanComments(planID string) ([]models.Comment, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.task_id, c.author_id, u.name, c.body, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.task_id IN (SELECT id FROM tasks WHERE plan_id = $1)
		ORDER BY c.created_at, c.id`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.TaskID, &comment.AuthorID,
			&comment.AuthorName, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}
