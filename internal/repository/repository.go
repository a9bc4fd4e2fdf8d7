package repository

import (
	"database/sql"
	"errors"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotOwned is returned on a mutation of a plan that does not belong
	// to the acting user.
	ErrNotOwned = errors.New("not owned")
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// schema is shared between the postgres and sqlite backends: text UUID keys,
// $N placeholders and RETURNING work on both drivers.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	telegram_id BIGINT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	current_plan_id TEXT NOT NULL DEFAULT '',
	published_plan_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS plans (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	plan_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	body TEXT NOT NULL,
	checked BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	author_id TEXT NOT NULL,
	body TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS statistics (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	plan_id TEXT NOT NULL,
	group_id BIGINT NOT NULL DEFAULT 0,
	total_tasks INTEGER NOT NULL,
	completed_tasks INTEGER NOT NULL,
	study_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrate creates the tables if they do not exist yet.
func (r *Repository) Migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

// defaultPlans are seeded once so new users have templates to start from.
var defaultPlans = []struct {
	name  string
	tasks []string
}{
	{"Стандартный день", []string{"Зарядка", "Завтрак", "Важные задачи", "Встречи", "Отдых", "Подготовка к следующему дню"}},
	{"Продуктивный день", []string{"Медитация", "Планирование дня", "Сложные задачи", "Обучение", "Анализ дня", "Чтение"}},
	{"Выходной день", []string{"Долгий завтрак", "Прогулка", "Хобби", "Встречи с друзьями", "Кино", "Ранний сон"}},
}

// SeedBasePlans inserts the default base plans unless base plans already exist.
func (r *Repository) SeedBasePlans() error {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM plans WHERE owner_id = ''`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range defaultPlans {
		plan, err := r.CreatePlan(p.name, "")
		if err != nil {
			return err
		}
		for _, body := range p.tasks {
			if _, err := r.AddTask(plan.ID, body); err != nil {
				return err
			}
		}
	}
	return nil
}
