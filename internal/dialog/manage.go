package dialog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wiki73/P.I.B-bot/internal/models"
	"github.com/wiki73/P.I.B-bot/internal/render"
)

// openManagement enters the shared-plan management flow. Any group member may
// manage the published plan; each member carries their own conversation
// state while the plan itself is shared.
func (e *Engine) openManagement(ev Event, sess *Session) []Reply {
	plan, err := e.svc.PublishedPlanOf(ev.Action.UserRef)
	if isNotFound(err) {
		return e.edit(ev, "План уже не опубликован.", Keyboard{Kind: KbNone})
	}
	if err != nil {
		e.log.Error("published plan", "publisher", ev.Action.UserRef, "err", err)
		return e.fail(ev)
	}
	*sess = Session{
		Step:      StepManagingPlan,
		PlanID:    plan.ID,
		GroupID:   ev.ChatID,
		Publisher: ev.Action.UserRef,
	}
	return e.showManagement(ev, sess)
}

func (e *Engine) showManagement(ev Event, sess *Session) []Reply {
	text, err := e.planView(sess.PlanID)
	if isNotFound(err) {
		*sess = Session{}
		return e.edit(ev, "План уже не опубликован.", Keyboard{Kind: KbNone})
	}
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, text, Keyboard{Kind: KbManage})
}

func (e *Engine) backToManagement(ev Event, sess *Session) []Reply {
	if !sess.managing() {
		return e.reply(ev, msgNotFound)
	}
	sess.Step = StepManagingPlan
	return e.showManagement(ev, sess)
}

func (e *Engine) openMarking(ev Event, sess *Session) []Reply {
	if sess.Step != StepManagingPlan {
		return e.reply(ev, msgNotFound)
	}
	buttons, err := e.taskButtons(sess.PlanID, 0)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepMarkingTasks
	return e.edit(ev, "✅ Отметьте выполненные пункты:", Keyboard{
		Kind: KbMarkTasks, Tasks: buttons, Back: "manage",
	})
}

// toggleTask flips one task's checked flag and refreshes the marking
// keyboard. The flip is a single store statement, so two members toggling
// different tasks never lose each other's updates.
func (e *Engine) toggleTask(ev Event, sess *Session) []Reply {
	if sess.Step != StepMarkingTasks {
		return e.reply(ev, msgNotFound)
	}
	task, err := e.taskAt(sess.PlanID, ev.Action.Index)
	if isNotFound(err) {
		return e.reply(ev, msgNotFound)
	}
	if err != nil {
		e.log.Error("task lookup", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	if err := e.svc.ToggleTask(task.ID); err != nil {
		if isNotFound(err) {
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("toggle task", "task", task.ID, "err", err)
		return e.fail(ev)
	}

	buttons, err := e.taskButtons(sess.PlanID, 0)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, "✅ Отметьте выполненные пункты:", Keyboard{
		Kind: KbMarkTasks, Tasks: buttons, Back: "manage",
	})
}

func (e *Engine) openComments(ev Event, sess *Session) []Reply {
	if sess.Step != StepManagingPlan {
		return e.reply(ev, msgNotFound)
	}
	buttons, err := e.taskButtons(sess.PlanID, 20)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepTaskComments
	return e.edit(ev, "💬 К какой задаче добавить комментарий?", Keyboard{
		Kind: KbCommentTasks, Tasks: buttons, Back: "manage",
	})
}

func (e *Engine) startComment(ev Event, sess *Session) []Reply {
	if sess.Step != StepTaskComments {
		return e.reply(ev, msgNotFound)
	}
	sess.TaskIndex = ev.Action.Index
	sess.Step = StepAddingComment
	return e.reply(ev, fmt.Sprintf("Введите комментарий к пункту %d:", ev.Action.Index+1))
}

func (e *Engine) textComment(ev Event, user *models.User, sess *Session) []Reply {
	body := strings.TrimSpace(ev.Action.Text)
	if body == "" {
		return e.reply(ev, "Комментарий не может быть пустым. Введите текст:")
	}
	task, err := e.taskAt(sess.PlanID, sess.TaskIndex)
	if isNotFound(err) {
		sess.Step = StepManagingPlan
		return e.reply(ev, msgNotFound)
	}
	if err != nil {
		e.log.Error("task lookup", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	if _, err := e.svc.AddComment(task.ID, user.ID, body); err != nil {
		if isNotFound(err) {
			sess.Step = StepManagingPlan
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("add comment", "task", task.ID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepManagingPlan
	return e.managementMessage(ev, sess)
}

func (e *Engine) manageEditTasks(ev Event, sess *Session) []Reply {
	buttons, err := e.taskButtons(sess.PlanID, 0)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepManagingPlan
	return e.edit(ev, "✏️ Выберите задачу для изменения:", Keyboard{
		Kind: KbTaskList, Tasks: buttons, Back: "manage",
	})
}

func (e *Engine) manageEditTask(ev Event, sess *Session) []Reply {
	sess.TaskIndex = ev.Action.Index
	sess.Step = StepEditingTask
	return e.reply(ev, "Введите новый текст задачи:")
}

func (e *Engine) textManagedTaskEdit(ev Event, sess *Session) []Reply {
	body := strings.TrimSpace(ev.Action.Text)
	if body == "" {
		return e.reply(ev, "Текст задачи не может быть пустым. Введите новый текст:")
	}
	task, err := e.taskAt(sess.PlanID, sess.TaskIndex)
	if isNotFound(err) {
		sess.Step = StepManagingPlan
		return e.reply(ev, msgNotFound)
	}
	if err != nil {
		e.log.Error("task lookup", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	if err := e.svc.UpdateTask(task.ID, body); err != nil {
		e.log.Error("update task", "task", task.ID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepManagingPlan
	return e.managementMessage(ev, sess)
}

// manageAddTask appends to the end of the shared plan; unlike the editor
// flow there is no position prompt.
func (e *Engine) manageAddTask(ev Event, sess *Session) []Reply {
	sess.Step = StepAddingTask
	return e.reply(ev, "Введите текст нового пункта:")
}

func (e *Engine) textManagedNewTask(ev Event, sess *Session) []Reply {
	body := strings.TrimSpace(ev.Action.Text)
	if body == "" {
		return e.reply(ev, "Текст пункта не может быть пустым. Введите текст:")
	}
	if _, err := e.svc.AddTask(sess.PlanID, body); err != nil {
		if isNotFound(err) {
			sess.Step = StepManagingPlan
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("add task", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepManagingPlan
	return e.managementMessage(ev, sess)
}

// managementMessage re-renders the managed plan as a new message (used after
// text input, where there is nothing to edit in place).
func (e *Engine) managementMessage(ev Event, sess *Session) []Reply {
	text, err := e.planView(sess.PlanID)
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return []Reply{{ChatID: ev.ChatID, Text: text, Keyboard: Keyboard{Kind: KbManage}}}
}

// finishDay closes the published plan: checked tasks are counted into a
// Statistic, the plan's volatile state is reset for tomorrow, and the actor
// is asked for their study time.
func (e *Engine) finishDay(ev Event, user *models.User, sess *Session) []Reply {
	if sess.Step != StepManagingPlan {
		return e.reply(ev, msgNotFound)
	}
	stat, err := e.svc.CloseDay(user, sess.Publisher, sess.PlanID, sess.GroupID)
	if isNotFound(err) {
		*sess = Session{}
		return e.edit(ev, msgNotFound, Keyboard{Kind: KbNone})
	}
	if err != nil {
		e.log.Error("close day", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}

	groupID := sess.GroupID
	*sess = Session{Step: StepWaitingStudyTime, StatID: stat.ID, GroupID: groupID}
	return []Reply{
		{ChatID: ev.ChatID, Edit: true,
			Text: "🌙 День завершён!\n\n" + render.Progress(stat.TotalTasks, stat.CompletedTasks)},
		{ChatID: ev.ChatID,
			Text: "📚 Сколько часов вы сегодня занимались? (от 0 до 24)"},
	}
}

// textStudyTime validates the late study-hours input. Anything outside
// [0, 24] or non-numeric re-prompts without leaving the step.
func (e *Engine) textStudyTime(ev Event, sess *Session) []Reply {
	raw := strings.ReplaceAll(strings.TrimSpace(ev.Action.Text), ",", ".")
	hours, err := strconv.ParseFloat(raw, 64)
	// ParseFloat accepts "NaN", which clears both range comparisons.
	if err != nil || math.IsNaN(hours) || hours < 0 || hours > 24 {
		return e.reply(ev, "Введите число часов от 0 до 24:")
	}
	if err := e.svc.SetStudyHours(sess.StatID, hours); err != nil {
		if isNotFound(err) {
			*sess = Session{}
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("set study hours", "statistic", sess.StatID, "err", err)
		return e.fail(ev)
	}
	*sess = Session{}
	return e.reply(ev, fmt.Sprintf("Спасибо! Записано %.1f ч. Хорошего вечера! 🌙", hours))
}

// closeManagement collapses the management view back to the plain
// announcement with its single manage button.
func (e *Engine) closeManagement(ev Event, sess *Session) []Reply {
	planID, publisher := sess.PlanID, sess.Publisher
	*sess = Session{}
	if planID == "" {
		return e.edit(ev, "Управление закрыто.", Keyboard{Kind: KbNone})
	}
	text, err := e.planView(planID)
	if err != nil {
		return e.edit(ev, "Управление закрыто.", Keyboard{Kind: KbNone})
	}
	return e.edit(ev, text, Keyboard{Kind: KbManageButton, Publisher: publisher})
}
