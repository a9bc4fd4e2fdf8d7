package dialog

import (
	"strings"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

// handleText routes free text by the user's current step. Steps that expect
// no text answer with a menu hint and stay where they are.
func (e *Engine) handleText(ev Event, user *models.User, sess *Session) []Reply {
	switch sess.Step {
	case StepAwaitingNickname:
		return e.textNickname(ev, sess)
	case StepAwaitingTitle:
		return e.textTitle(ev, sess)
	case StepAwaitingTasks:
		return e.textTasks(ev, sess)
	case StepAwaitingConfirmation:
		return e.textConfirmation(ev, user, sess)
	case StepCreatingNewPlan:
		return e.textNewPlanTitle(ev, sess)
	case StepAwaitingPlanTasks:
		return e.textNewPlanTasks(ev, user, sess)
	case StepAwaitingTaskEdit:
		return e.textTaskEdit(ev, sess)
	case StepAwaitingNewTaskText:
		return e.textNewTask(ev, sess)
	case StepAddingComment:
		return e.textComment(ev, user, sess)
	case StepEditingTask:
		return e.textManagedTaskEdit(ev, sess)
	case StepAddingTask:
		return e.textManagedNewTask(ev, sess)
	case StepWaitingStudyTime:
		return e.textStudyTime(ev, sess)
	default:
		return e.reply(ev, "Используйте кнопки меню или команды: /help")
	}
}

func (e *Engine) textNickname(ev Event, sess *Session) []Reply {
	name := strings.TrimSpace(ev.Action.Text)
	if name == "" {
		return e.reply(ev, "Имя не может быть пустым. Как к вам обращаться?")
	}
	if err := e.svc.Rename(ev.UserID, name); err != nil {
		e.log.Error("rename user", "user", ev.UserID, "err", err)
		return e.fail(ev)
	}
	*sess = Session{}
	return e.welcome(ev, name)
}

func (e *Engine) textTitle(ev Event, sess *Session) []Reply {
	title := strings.TrimSpace(ev.Action.Text)
	if title == "" {
		return e.reply(ev, "Название не может быть пустым. Введите название плана:")
	}
	sess.Title = title
	sess.Step = StepAwaitingTasks
	return e.reply(ev, "✏️ Теперь введите задачи для плана (каждая задача с новой строки):\n\n"+
		"Пример:\n1. Зарядка\n2. Завтрак\n3. Работа над проектом")
}

func (e *Engine) textTasks(ev Event, sess *Session) []Reply {
	tasks := splitTasks(ev.Action.Text)
	if len(tasks) == 0 {
		return e.reply(ev, "Список задач пуст. Введите задачи, каждую с новой строки:")
	}
	sess.Tasks = tasks
	sess.Step = StepAwaitingConfirmation

	preview := "📋 " + sess.Title + "\n\n" + strings.Join(tasks, "\n") + "\n\nВсё верно? (да/нет)"
	return e.reply(ev, preview)
}

func (e *Engine) textConfirmation(ev Event, user *models.User, sess *Session) []Reply {
	switch strings.ToLower(strings.TrimSpace(ev.Action.Text)) {
	case "да", "yes":
		plan, err := e.svc.CreatePlanWithTasks(user.ID, sess.Title, sess.Tasks)
		if err != nil {
			e.log.Error("save plan", "user", ev.UserID, "err", err)
			return e.fail(ev)
		}
		*sess = Session{}
		return e.reply(ev, "✅ План «"+plan.Name+"» успешно сохранён!\n"+
			"Теперь вы можете использовать его в своём расписании.")
	case "нет", "no":
		*sess = Session{}
		return e.reply(ev, "Создание плана отменено.\nЕсли хотите начать заново, введите /create_plan")
	default:
		// Anything else re-prompts without touching the draft.
		return e.reply(ev, "Пожалуйста, ответьте «да» или «нет»")
	}
}
