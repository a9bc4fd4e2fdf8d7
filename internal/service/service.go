package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wiki73/P.I.B-bot/internal/models"
	"github.com/wiki73/P.I.B-bot/internal/render"
	"github.com/wiki73/P.I.B-bot/internal/repository"
)

type Service struct {
	repo *repository.Repository
	log  *slog.Logger
}

func NewService(repo *repository.Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// RegisterUser creates or retrieves a user. The boolean reports first contact,
// which triggers the nickname onboarding.
func (s *Service) RegisterUser(telegramID int64, name string) (*models.User, bool, error) {
	return s.repo.GetOrCreateUser(telegramID, name)
}

// Rename updates the display name chosen during onboarding.
func (s *Service) Rename(telegramID int64, name string) error {
	return s.repo.RenameUser(telegramID, name)
}

// PlanView assembles the renderable view of a plan: tasks in order with their
// comments grouped per task.
func (s *Service) PlanView(planID string, date time.Time) (render.View, error) {
	plan, err := s.repo.GetPlan(planID)
	if err != nil {
		return render.View{}, err
	}
	tasks, err := s.repo.PlanTasks(planID)
	if err != nil {
		return render.View{}, err
	}
	comments, err := s.repo.PlanComments(planID)
	if err != nil {
		return render.View{}, err
	}

	byTask := make(map[string][]models.Comment)
	for _, c := range comments {
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}
	return render.Plan(plan, tasks, byTask, date), nil
}

// CreatePlanWithTasks persists a confirmed draft as a personal plan.
func (s *Service) CreatePlanWithTasks(ownerID, name string, tasks []string) (*models.Plan, error) {
	plan, err := s.repo.CreatePlan(name, ownerID)
	if err != nil {
		return nil, err
	}
	for _, body := range tasks {
		if _, err := s.repo.AddTask(plan.ID, body); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// AdoptPlan makes planID the user's working plan for the day. Base templates
// are cloned into a personal copy first, so a template is never edited in
// place; personal plans are used as-is.
func (s *Service) AdoptPlan(user *models.User, planID string) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.Base() {
		plan, err = s.repo.ClonePlan(plan.ID, user.ID)
		if err != nil {
			return nil, err
		}
		s.log.Info("base plan cloned", "source", planID, "clone", plan.ID, "user", user.TelegramID)
	}
	if err := s.repo.SetCurrent(user.TelegramID, plan.ID); err != nil {
		return nil, err
	}
	return plan, nil
}

// PublishedPlanOf returns the plan a user has shared into a group.
func (s *Service) PublishedPlanOf(telegramID int64) (*models.Plan, error) {
	user, err := s.repo.GetUserByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user.PublishedPlanID == "" {
		return nil, fmt.Errorf("no published plan: %w", repository.ErrNotFound)
	}
	return s.repo.GetPlan(user.PublishedPlanID)
}

// CloseDay finalizes a published plan: counts checked tasks into a Statistic,
// resets the plan's volatile state and unpublishes it so the same plan can be
// shared again tomorrow. The store applies the three writes in a single
// transaction, so a failed close leaves no statistic behind and the retry
// cannot double-count. Study hours start at zero and arrive later.
func (s *Service) CloseDay(actor *models.User, publisherID int64, planID string, groupID int64) (*models.Statistic, error) {
	tasks, err := s.repo.PlanTasks(planID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, task := range tasks {
		if task.Checked {
			completed++
		}
	}

	stat, err := s.repo.CloseDay(actor.ID, planID, groupID, len(tasks), completed, publisherID)
	if err != nil {
		return nil, err
	}

	s.log.Info("day closed", "plan", planID, "group", groupID,
		"total", len(tasks), "completed", completed)
	return stat, nil
}

// SetStudyHours records the single late study-time update for a statistic.
func (s *Service) SetStudyHours(statisticID string, hours float64) error {
	return s.repo.SetStudyHours(statisticID, hours)
}

// LifetimeForUser sums the user's statistics across all time.
func (s *Service) LifetimeForUser(userID string) (completed int, hours float64, err error) {
	return s.repo.UserLifetime(userID)
}

// LifetimeForGroup sums a group's statistics across all time.
func (s *Service) LifetimeForGroup(groupID int64) (completed int, hours float64, err error) {
	return s.repo.GroupLifetime(groupID)
}

// Public methods to access the repository.

func (s *Service) GetPlan(planID string) (*models.Plan, error) {
	return s.repo.GetPlan(planID)
}

func (s *Service) BasePlans() ([]models.Plan, error) {
	return s.repo.BasePlans()
}

func (s *Service) UserPlans(ownerID string) ([]models.Plan, error) {
	return s.repo.UserPlans(ownerID)
}

func (s *Service) PlanTasks(planID string) ([]models.Task, error) {
	return s.repo.PlanTasks(planID)
}

func (s *Service) AddTask(planID, body string) (*models.Task, error) {
	return s.repo.AddTask(planID, body)
}

func (s *Service) InsertTask(planID string, index int, body string) (*models.Task, error) {
	return s.repo.InsertTask(planID, index, body)
}

func (s *Service) UpdateTask(taskID, body string) error {
	return s.repo.UpdateTask(taskID, body)
}

func (s *Service) DeleteTask(taskID string) error {
	return s.repo.DeleteTask(taskID)
}

func (s *Service) ToggleTask(taskID string) error {
	return s.repo.ToggleTask(taskID)
}

func (s *Service) AddComment(taskID, authorID, body string) (*models.Comment, error) {
	return s.repo.AddComment(taskID, authorID, body)
}

func (s *Service) SetCurrent(telegramID int64, planID string) error {
	return s.repo.SetCurrent(telegramID, planID)
}

func (s *Service) SetPublished(telegramID int64, planID string) error {
	return s.repo.SetPublished(telegramID, planID)
}

func (s *Service) DeletePlan(ownerID, planID string) (bool, error) {
	return s.repo.DeletePlan(ownerID, planID)
}
