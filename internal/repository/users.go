package repository

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

const userColumns = `id, telegram_id, name, current_plan_id, published_plan_id, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.TelegramID, &user.Name,
		&user.CurrentPlanID, &user.PublishedPlanID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreateUser returns the user with the given Telegram ID, creating it on
// first contact. The second return value reports whether the user is new.
func (r *Repository) GetOrCreateUser(telegramID int64, name string) (*models.User, bool, error) {
	user, err := r.GetUserByTelegramID(telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	user, err = scanUser(r.db.QueryRow(`
		INSERT INTO users (id, telegram_id, name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns, uuid.NewString(), telegramID, name))
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (r *Repository) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(`
		SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

// RenameUser updates the display name.
func (r *Repository) RenameUser(telegramID int64, name string) error {
	res, err := r.db.Exec(`UPDATE users SET name = $1 WHERE telegram_id = $2`, name, telegramID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// SetCurrent points the user's current plan at the given plan. The plan may
// be a base template: no copy is made here, the reference is shared.
func (r *Repository) SetCurrent(telegramID int64, planID string) error {
	if _, err := r.GetPlan(planID); err != nil {
		return err
	}
	res, err := r.db.Exec(`UPDATE users SET current_plan_id = $1 WHERE telegram_id = $2`, planID, telegramID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

// SetPublished marks the plan as shared into a group, or clears the mark when
// planID is empty.
func (r *Repository) SetPublished(telegramID int64, planID string) error {
	if planID != "" {
		if _, err := r.GetPlan(planID); err != nil {
			return err
		}
	}
	res, err := r.db.Exec(`UPDATE users SET published_plan_id = $1 WHERE telegram_id = $2`, planID, telegramID)
	if err != nil {
		return err
	}
	return oneRowAffected(res)
}

func oneRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
