// Package dialog is the conversation state machine: it tracks each user's
// position in a flow, applies one inbound event at a time and answers with
// rendering instructions for the transport layer.
package dialog

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/wiki73/P.I.B-bot/internal/models"
	"github.com/wiki73/P.I.B-bot/internal/render"
	"github.com/wiki73/P.I.B-bot/internal/repository"
	"github.com/wiki73/P.I.B-bot/internal/service"
)

const (
	msgError    = "Произошла ошибка. Попробуйте позже."
	msgNotFound = "План или задача не найдены."
)

type Engine struct {
	svc      *service.Service
	log      *slog.Logger
	sessions *sessions
	now      func() time.Time
}

func NewEngine(svc *service.Service, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		svc:      svc,
		log:      log,
		sessions: newSessions(),
		now:      time.Now,
	}
}

// HandleEvent processes one user action. Events of the same user are
// serialized on the session lock; different users proceed concurrently.
// On any unexpected failure the session keeps its prior state and the user
// gets a generic notice.
func (e *Engine) HandleEvent(ev Event) []Reply {
	us := e.sessions.get(ev.UserID)
	us.mu.Lock()
	defer us.mu.Unlock()

	user, created, err := e.svc.RegisterUser(ev.UserID, ev.Name)
	if err != nil {
		e.log.Error("register user", "user", ev.UserID, "err", err)
		return e.fail(ev)
	}

	sess := &us.Session

	switch ev.Action.Kind {
	case KindCommand:
		// A command arriving mid-flow cancels the sub-flow instead of
		// being consumed as input.
		e.cancelTextFlow(sess)
		return e.handleCommand(ev, user, created, sess)
	case KindText:
		return e.handleText(ev, user, sess)
	default:
		return e.handleButton(ev, user, sess)
	}
}

// Session returns a copy of the user's current conversation state.
func (e *Engine) Session(userID int64) Session {
	us := e.sessions.get(userID)
	us.mu.Lock()
	defer us.mu.Unlock()
	return us.Session
}

// cancelTextFlow returns a text-expecting step to its safe parent state.
func (e *Engine) cancelTextFlow(sess *Session) {
	switch sess.Step {
	case StepAwaitingTaskEdit, StepAwaitingNewTaskText:
		sess.Step = StepEditingPlan
	case StepAddingComment, StepEditingTask, StepAddingTask:
		sess.Step = StepManagingPlan
	case StepAwaitingNickname, StepAwaitingTitle, StepAwaitingTasks,
		StepAwaitingConfirmation, StepCreatingNewPlan, StepAwaitingPlanTasks,
		StepWaitingStudyTime:
		*sess = Session{}
	}
}

func (e *Engine) handleCommand(ev Event, user *models.User, created bool, sess *Session) []Reply {
	switch ev.Action.Command {
	case "start":
		return e.handleStart(ev, user, created, sess)

	case "help":
		if ev.Group {
			return e.reply(ev, "Групповые команды:\n/new_day - Начать день\n/static - Статистика")
		}
		return []Reply{{ChatID: ev.ChatID, Text: "Личные команды:\n" +
			"/start - Начало работы\n" +
			"/help - Показать это сообщение\n" +
			"/info - О планировании\n" +
			"/create_plan - Создать новый план\n" +
			"/view_plans - Посмотреть планы",
			Keyboard: Keyboard{Kind: KbMainMenu}}}

	case "info":
		return e.reply(ev, "Планирование помогает:\n\n"+
			"1. Избежать суеты в течение дня\n"+
			"2. Освободить время для отдыха\n"+
			"3. Развивать дисциплину\n\n"+
			"Попробуйте создать свой первый план!")

	case "create_plan":
		if ev.Group {
			return e.reply(ev, "Эта команда доступна только в личном чате с ботом.")
		}
		*sess = Session{Step: StepAwaitingTitle}
		return e.reply(ev, "📝 Давайте создадим новый план.\nВведите название для вашего плана:")

	case "view_plans":
		if ev.Group {
			return e.reply(ev, "Эта команда доступна только в личном чате с ботом.")
		}
		return []Reply{{ChatID: ev.ChatID, Text: "📁 Какие планы показать?",
			Keyboard: Keyboard{Kind: KbPlanTypes}}}

	case "new_day":
		if !ev.Group {
			return e.reply(ev, "Эта команда работает в группе: позовите бота в общий чат.")
		}
		return []Reply{{ChatID: ev.ChatID,
			Text:     "🌅 Начинаем новый день!\nСоставьте свой план и поделитесь им с группой:",
			Keyboard: Keyboard{Kind: KbNewDay, GroupID: ev.ChatID}}}

	case "static":
		return e.handleStatistics(ev, user)

	case "cancel":
		*sess = Session{}
		return e.reply(ev, "❌ Действие отменено.")

	default:
		return e.reply(ev, "Неизвестная команда. Посмотрите /help")
	}
}

func (e *Engine) handleStart(ev Event, user *models.User, created bool, sess *Session) []Reply {
	// A deep link like "newday_<groupID>" binds the day-start flow to the
	// group the invitation was posted in.
	if gid, ok := parseNewDayPayload(ev.Action.Text); ok {
		*sess = Session{Step: StepChoosingPlanSource, GroupID: gid}
		return []Reply{{ChatID: ev.ChatID, Text: "🌅 Как составим план на сегодня?",
			Keyboard: Keyboard{Kind: KbPlanSource, HasCurrent: user.CurrentPlanID != ""}}}
	}

	if created {
		*sess = Session{Step: StepAwaitingNickname}
		return e.reply(ev, "👋 Привет! Я помогу вам планировать день.\nКак к вам обращаться?")
	}
	return e.welcome(ev, user.Name)
}

func (e *Engine) handleStatistics(ev Event, user *models.User) []Reply {
	if ev.Group {
		completed, hours, err := e.svc.LifetimeForGroup(ev.ChatID)
		if err != nil {
			e.log.Error("group statistics", "group", ev.ChatID, "err", err)
			return e.fail(ev)
		}
		if completed == 0 && hours == 0 {
			return e.reply(ev, "📊 В этой группе пока нет статистики!")
		}
		return e.reply(ev, render.GroupStats(completed, hours, e.now()))
	}

	completed, hours, err := e.svc.LifetimeForUser(user.ID)
	if err != nil {
		e.log.Error("user statistics", "user", ev.UserID, "err", err)
		return e.fail(ev)
	}
	if completed == 0 && hours == 0 {
		return e.reply(ev, "📊 У вас пока нет статистики!")
	}
	return e.reply(ev, render.UserStats(completed, hours, e.now()))
}

func parseNewDayPayload(payload string) (int64, bool) {
	rest, ok := strings.CutPrefix(payload, "newday_")
	if !ok {
		return 0, false
	}
	gid, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return gid, true
}

// splitTasks parses free text into task bodies: one per line, trimmed,
// blank lines dropped.
func splitTasks(text string) []string {
	var tasks []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tasks = append(tasks, line)
		}
	}
	return tasks
}

func (e *Engine) reply(ev Event, text string) []Reply {
	return []Reply{{ChatID: ev.ChatID, Text: text}}
}

func (e *Engine) edit(ev Event, text string, kb Keyboard) []Reply {
	return []Reply{{ChatID: ev.ChatID, Edit: true, Text: text, Keyboard: kb}}
}

// fail answers with a generic notice and leaves the session untouched.
func (e *Engine) fail(ev Event) []Reply {
	return []Reply{{ChatID: ev.ChatID, Text: msgError}}
}

func (e *Engine) welcome(ev Event, name string) []Reply {
	return []Reply{{ChatID: ev.ChatID,
		Text: "👋 С возвращением, " + name + "!\n\n" +
			"📋 Команды:\n" +
			"/create_plan - Создать новый план\n" +
			"/view_plans - Посмотреть планы\n" +
			"/help - Помощь",
		Keyboard: Keyboard{Kind: KbMainMenu}}}
}

// planView renders the live plan with today's date.
func (e *Engine) planView(planID string) (string, error) {
	view, err := e.svc.PlanView(planID, e.now())
	if err != nil {
		return "", err
	}
	return view.Text(), nil
}

// taskButtons builds keyboard rows for the plan's tasks.
func (e *Engine) taskButtons(planID string, truncate int) ([]TaskButton, error) {
	tasks, err := e.svc.PlanTasks(planID)
	if err != nil {
		return nil, err
	}
	buttons := make([]TaskButton, 0, len(tasks))
	for i, task := range tasks {
		label := task.Body
		if truncate > 0 && len([]rune(label)) > truncate {
			label = string([]rune(label)[:truncate]) + "..."
		}
		buttons = append(buttons, TaskButton{Index: i, Label: label, Checked: task.Checked})
	}
	return buttons, nil
}

// taskAt resolves an index-addressed task against the plan's current order.
func (e *Engine) taskAt(planID string, index int) (*models.Task, error) {
	tasks, err := e.svc.PlanTasks(planID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(tasks) {
		return nil, repository.ErrNotFound
	}
	return &tasks[index], nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
