package dialog

import "sync"

// Step names the user's position in a conversation flow. The idle state is
// the zero value: a session whose step is empty is discarded.
type Step string

const (
	StepIdle Step = ""

	// Onboarding
	StepAwaitingNickname Step = "awaiting_nickname"

	// Private plan creation
	StepAwaitingTitle        Step = "awaiting_title"
	StepAwaitingTasks        Step = "awaiting_tasks"
	StepAwaitingConfirmation Step = "awaiting_confirmation"

	// Day-start flow
	StepChoosingPlanSource    Step = "choosing_plan_source"
	StepSelectingExistingPlan Step = "selecting_existing_plan"
	StepCreatingNewPlan       Step = "creating_new_plan"
	StepAwaitingPlanTasks     Step = "awaiting_plan_tasks"
	StepEditingPlan           Step = "editing_plan"
	StepAwaitingTaskPosition  Step = "awaiting_task_position"
	StepAwaitingNewTaskText   Step = "awaiting_new_task_text"
	StepAwaitingTaskEdit      Step = "awaiting_task_edit"
	StepPublishingPlan        Step = "publishing_plan"

	// Published-plan management
	StepManagingPlan     Step = "managing_plan"
	StepMarkingTasks     Step = "marking_tasks"
	StepTaskComments     Step = "task_comments"
	StepAddingComment    Step = "adding_comment"
	StepEditingTask      Step = "editing_task"
	StepAddingTask       Step = "adding_task"
	StepWaitingStudyTime Step = "waiting_for_study_time"
)

// Session is the per-user conversation state plus the small bag of
// in-progress data the current flow needs.
type Session struct {
	Step      Step
	GroupID   int64    // group the day-start flow is bound to
	Title     string   // draft plan title
	Tasks     []string // draft task bodies, creation flow only
	PlanID    string   // live plan being edited or managed
	TaskIndex int      // task addressed by the pending sub-action
	InsertPos int      // chosen position for a new task
	Publisher int64    // Telegram ID of the user who published the managed plan
	StatID    string   // statistic awaiting its study-hours update
}

type userSession struct {
	mu sync.Mutex
	Session
}

// sessions keys conversation state by user identity. Never process-global:
// two users in the same group each carry their own state.
type sessions struct {
	mu sync.Mutex
	m  map[int64]*userSession
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]*userSession)}
}

// get returns the session for a user, creating an idle one if needed. The
// caller must hold the returned session's lock for the whole event: that is
// what serializes one user's events.
func (s *sessions) get(userID int64) *userSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	us, ok := s.m[userID]
	if !ok {
		us = &userSession{}
		s.m[userID] = us
	}
	return us
}
