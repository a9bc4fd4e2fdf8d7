package dialog

import (
	"strings"

	"github.com/wiki73/P.I.B-bot/internal/models"
	"github.com/wiki73/P.I.B-bot/internal/render"
)

// handleButton routes inline-button actions. Task-editor actions are shared
// between the day-start flow and published-plan management; the session step
// decides which flow owns them.
func (e *Engine) handleButton(ev Event, user *models.User, sess *Session) []Reply {
	managing := sess.managing()

	switch ev.Action.Kind {
	case KindViewPlans:
		return e.listPlans(ev, user, ev.Action.PlanType)
	case KindPickPlan:
		return e.pickPlan(ev, user, sess)
	case KindUsePlan:
		return e.usePlan(ev, user)
	case KindDeletePlan:
		return e.deletePlan(ev, user)

	case KindSourceCurrent:
		return e.sourceCurrent(ev, user, sess)
	case KindSourceExisting:
		if sess.Step != StepChoosingPlanSource {
			return e.reply(ev, msgNotFound)
		}
		sess.Step = StepSelectingExistingPlan
		return e.edit(ev, "📋 Какой план использовать?", Keyboard{Kind: KbPlanTypes})
	case KindSourceCreate:
		// Inside the day-start flow this is the create-from-scratch
		// branch; from the main menu it starts the private creation flow.
		if sess.Step == StepChoosingPlanSource {
			sess.Step = StepCreatingNewPlan
			return e.edit(ev, "📝 Введите название для нового плана:", Keyboard{Kind: KbNone})
		}
		*sess = Session{Step: StepAwaitingTitle}
		return e.edit(ev, "📝 Давайте создадим новый план.\nВведите название для вашего плана:", Keyboard{Kind: KbNone})

	case KindViewCurrent:
		return e.viewCurrent(ev, user)

	case KindEditTasks:
		if managing {
			return e.manageEditTasks(ev, sess)
		}
		return e.openTaskEditor(ev, sess)
	case KindEditTask:
		if managing {
			return e.manageEditTask(ev, sess)
		}
		return e.startTaskEdit(ev, sess)
	case KindAddTask:
		if managing {
			return e.manageAddTask(ev, sess)
		}
		return e.chooseTaskPosition(ev, sess)
	case KindAddAt:
		return e.positionChosen(ev, sess)
	case KindFinishPlan:
		return e.finishEditing(ev, sess)
	case KindPublish:
		return e.publish(ev, user, sess)

	case KindManage:
		return e.openManagement(ev, sess)
	case KindMark:
		return e.openMarking(ev, sess)
	case KindToggleTask:
		return e.toggleTask(ev, sess)
	case KindComments:
		return e.openComments(ev, sess)
	case KindCommentTask:
		return e.startComment(ev, sess)
	case KindFinishDay:
		return e.finishDay(ev, user, sess)
	case KindCloseManage:
		return e.closeManagement(ev, sess)

	case KindBack:
		return e.back(ev, user, sess)
	case KindCancel:
		return e.cancel(ev, sess)
	}
	return e.reply(ev, "Используйте кнопки меню или команды: /help")
}

func (s *Session) managing() bool {
	switch s.Step {
	case StepManagingPlan, StepMarkingTasks, StepTaskComments,
		StepAddingComment, StepEditingTask, StepAddingTask:
		return true
	}
	return false
}

// listPlans shows base templates or the user's own plans. In the day-start
// flow the same list doubles as the source selector.
func (e *Engine) listPlans(ev Event, user *models.User, planType string) []Reply {
	var (
		plans []models.Plan
		err   error
	)
	if planType == "base" {
		plans, err = e.svc.BasePlans()
	} else {
		plans, err = e.svc.UserPlans(user.ID)
	}
	if err != nil {
		e.log.Error("list plans", "type", planType, "err", err)
		return e.fail(ev)
	}
	if len(plans) == 0 {
		return e.edit(ev, "У вас пока нет сохранённых планов.", Keyboard{Kind: KbBack, Back: "main"})
	}

	buttons := make([]PlanButton, 0, len(plans))
	for _, plan := range plans {
		buttons = append(buttons, PlanButton{ID: plan.ID, Name: plan.Name, Type: planType})
	}
	return e.edit(ev, "📁 Ваши планы:", Keyboard{
		Kind: KbPlanList, PlanType: planType, Plans: buttons, Back: "plan_types",
	})
}

// pickPlan opens a plan from a list. Inside the day-start flow picking a plan
// adopts it as today's working plan (base templates are cloned, never edited
// in place); outside the flow it just shows the plan with its actions.
func (e *Engine) pickPlan(ev Event, user *models.User, sess *Session) []Reply {
	if sess.Step == StepSelectingExistingPlan {
		plan, err := e.svc.AdoptPlan(user, ev.Action.PlanID)
		if isNotFound(err) {
			return e.edit(ev, msgNotFound, Keyboard{Kind: KbBack, Back: "main"})
		}
		if err != nil {
			e.log.Error("adopt plan", "plan", ev.Action.PlanID, "err", err)
			return e.fail(ev)
		}
		sess.PlanID = plan.ID
		sess.Step = StepEditingPlan
		return e.showEditor(ev, sess)
	}

	text, err := e.planView(ev.Action.PlanID)
	if isNotFound(err) {
		return e.edit(ev, msgNotFound, Keyboard{Kind: KbBack, Back: "main"})
	}
	if err != nil {
		e.log.Error("plan view", "plan", ev.Action.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, text, Keyboard{
		Kind: KbPlanActions, PlanType: ev.Action.PlanType, PlanID: ev.Action.PlanID,
	})
}

// viewCurrent shows the user's current plan from the main menu.
func (e *Engine) viewCurrent(ev Event, user *models.User) []Reply {
	if user.CurrentPlanID == "" {
		return e.edit(ev, "У вас нет текущего плана. Выберите один из сохранённых.",
			Keyboard{Kind: KbBack, Back: "main"})
	}
	text, err := e.planView(user.CurrentPlanID)
	if isNotFound(err) {
		return e.edit(ev, msgNotFound, Keyboard{Kind: KbBack, Back: "main"})
	}
	if err != nil {
		e.log.Error("plan view", "plan", user.CurrentPlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, text, Keyboard{Kind: KbBack, Back: "main"})
}

func (e *Engine) usePlan(ev Event, user *models.User) []Reply {
	err := e.svc.SetCurrent(user.TelegramID, ev.Action.PlanID)
	if isNotFound(err) {
		return e.edit(ev, msgNotFound, Keyboard{Kind: KbBack, Back: "main"})
	}
	if err != nil {
		e.log.Error("set current plan", "plan", ev.Action.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, "📌 План выбран текущим.", Keyboard{Kind: KbBack, Back: "main"})
}

func (e *Engine) deletePlan(ev Event, user *models.User) []Reply {
	ok, err := e.svc.DeletePlan(user.ID, ev.Action.PlanID)
	if err != nil {
		e.log.Error("delete plan", "plan", ev.Action.PlanID, "err", err)
		return e.fail(ev)
	}
	if !ok {
		return e.edit(ev, "План не найден или не принадлежит вам.", Keyboard{Kind: KbBack, Back: "main"})
	}
	return e.edit(ev, "🗑 План удалён.", Keyboard{Kind: KbBack, Back: "main"})
}

func (e *Engine) sourceCurrent(ev Event, user *models.User, sess *Session) []Reply {
	if sess.Step != StepChoosingPlanSource {
		return e.reply(ev, msgNotFound)
	}
	if user.CurrentPlanID == "" {
		return e.edit(ev, "У вас нет текущего плана. Выберите другой вариант:",
			Keyboard{Kind: KbPlanSource})
	}
	plan, err := e.svc.AdoptPlan(user, user.CurrentPlanID)
	if isNotFound(err) {
		return e.edit(ev, msgNotFound, Keyboard{Kind: KbPlanSource})
	}
	if err != nil {
		e.log.Error("adopt current plan", "user", ev.UserID, "err", err)
		return e.fail(ev)
	}
	sess.PlanID = plan.ID
	sess.Step = StepEditingPlan
	return e.showEditor(ev, sess)
}

// textNewPlanTitle and textNewPlanTasks are the create-from-scratch branch of
// the day-start flow. The plan is persisted when the task list arrives, so
// entering editing_plan always edits a live personal plan.
func (e *Engine) textNewPlanTitle(ev Event, sess *Session) []Reply {
	title := strings.TrimSpace(ev.Action.Text)
	if title == "" {
		return e.reply(ev, "Название не может быть пустым. Введите название плана:")
	}
	sess.Title = title
	sess.Step = StepAwaitingPlanTasks
	return e.reply(ev, "✏️ Введите задачи для плана (каждая задача с новой строки):")
}

func (e *Engine) textNewPlanTasks(ev Event, user *models.User, sess *Session) []Reply {
	tasks := splitTasks(ev.Action.Text)
	if len(tasks) == 0 {
		return e.reply(ev, "Список задач пуст. Введите задачи, каждую с новой строки:")
	}
	plan, err := e.svc.CreatePlanWithTasks(user.ID, sess.Title, tasks)
	if err != nil {
		e.log.Error("create plan", "user", ev.UserID, "err", err)
		return e.fail(ev)
	}
	if err := e.svc.SetCurrent(user.TelegramID, plan.ID); err != nil {
		e.log.Error("set current plan", "plan", plan.ID, "err", err)
		return e.fail(ev)
	}
	sess.PlanID = plan.ID
	sess.Step = StepEditingPlan
	return e.showEditor(ev, sess)
}

// showEditor renders the working plan with the editor controls.
func (e *Engine) showEditor(ev Event, sess *Session) []Reply {
	text, err := e.planView(sess.PlanID)
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, text, Keyboard{Kind: KbPlanEditor})
}

func (e *Engine) openTaskEditor(ev Event, sess *Session) []Reply {
	if sess.Step != StepEditingPlan {
		return e.reply(ev, msgNotFound)
	}
	buttons, err := e.taskButtons(sess.PlanID, 0)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return e.edit(ev, "✏️ Выберите задачу для изменения:", Keyboard{
		Kind: KbTaskList, Tasks: buttons, Back: "main",
	})
}

func (e *Engine) startTaskEdit(ev Event, sess *Session) []Reply {
	if sess.Step != StepEditingPlan {
		return e.reply(ev, msgNotFound)
	}
	sess.TaskIndex = ev.Action.Index
	sess.Step = StepAwaitingTaskEdit
	return e.reply(ev, "Введите новый текст задачи:")
}

func (e *Engine) textTaskEdit(ev Event, sess *Session) []Reply {
	body := strings.TrimSpace(ev.Action.Text)
	if body == "" {
		return e.reply(ev, "Текст задачи не может быть пустым. Введите новый текст:")
	}
	task, err := e.taskAt(sess.PlanID, sess.TaskIndex)
	if isNotFound(err) {
		sess.Step = StepEditingPlan
		return e.reply(ev, msgNotFound)
	}
	if err != nil {
		e.log.Error("task lookup", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	// The body is replaced; checked state and comments stay.
	if err := e.svc.UpdateTask(task.ID, body); err != nil {
		e.log.Error("update task", "task", task.ID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepEditingPlan
	return e.showEditorMessage(ev, sess)
}

func (e *Engine) chooseTaskPosition(ev Event, sess *Session) []Reply {
	if sess.Step != StepEditingPlan {
		return e.reply(ev, msgNotFound)
	}
	buttons, err := e.taskButtons(sess.PlanID, 0)
	if err != nil {
		e.log.Error("plan tasks", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepAwaitingTaskPosition
	return e.edit(ev, "Куда добавить новый пункт?", Keyboard{
		Kind: KbTaskPositions, Tasks: buttons, Back: "edit",
	})
}

func (e *Engine) positionChosen(ev Event, sess *Session) []Reply {
	if sess.Step != StepAwaitingTaskPosition {
		return e.reply(ev, msgNotFound)
	}
	sess.InsertPos = ev.Action.Index
	sess.Step = StepAwaitingNewTaskText
	return e.reply(ev, "Введите текст нового пункта:")
}

func (e *Engine) textNewTask(ev Event, sess *Session) []Reply {
	body := strings.TrimSpace(ev.Action.Text)
	if body == "" {
		return e.reply(ev, "Текст пункта не может быть пустым. Введите текст:")
	}
	if _, err := e.svc.InsertTask(sess.PlanID, sess.InsertPos, body); err != nil {
		if isNotFound(err) {
			sess.Step = StepEditingPlan
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("insert task", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepEditingPlan
	return e.showEditorMessage(ev, sess)
}

// showEditorMessage is showEditor for replies to typed text, where there is
// no message to edit in place.
func (e *Engine) showEditorMessage(ev Event, sess *Session) []Reply {
	text, err := e.planView(sess.PlanID)
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	return []Reply{{ChatID: ev.ChatID, Text: text, Keyboard: Keyboard{Kind: KbPlanEditor}}}
}

// finishEditing closes the editor: with a bound group the plan goes to the
// publish confirmation, otherwise it is already saved and the flow ends.
func (e *Engine) finishEditing(ev Event, sess *Session) []Reply {
	if sess.Step != StepEditingPlan {
		return e.reply(ev, msgNotFound)
	}
	if sess.GroupID == 0 {
		*sess = Session{}
		return e.edit(ev, "✅ План сохранён.", Keyboard{Kind: KbNone})
	}
	text, err := e.planView(sess.PlanID)
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	sess.Step = StepPublishingPlan
	return e.edit(ev, text+"\n\nОпубликовать план в группу?", Keyboard{Kind: KbPublishConfirm})
}

// publish shares the plan into the bound group: the group gets the
// announcement with the management control, the private chat a confirmation.
func (e *Engine) publish(ev Event, user *models.User, sess *Session) []Reply {
	if sess.Step != StepPublishingPlan {
		return e.reply(ev, msgNotFound)
	}
	if err := e.svc.SetPublished(user.TelegramID, sess.PlanID); err != nil {
		if isNotFound(err) {
			return e.reply(ev, msgNotFound)
		}
		e.log.Error("publish plan", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}
	view, err := e.svc.PlanView(sess.PlanID, e.now())
	if err != nil {
		e.log.Error("plan view", "plan", sess.PlanID, "err", err)
		return e.fail(ev)
	}

	groupID := sess.GroupID
	publisher := user.TelegramID
	*sess = Session{}
	return []Reply{
		{ChatID: ev.ChatID, Edit: true, Text: "✅ План опубликован в группу!"},
		{ChatID: groupID, Text: render.Announcement(view, user.Name),
			Keyboard: Keyboard{Kind: KbManageButton, Publisher: publisher}},
	}
}

func (e *Engine) back(ev Event, user *models.User, sess *Session) []Reply {
	switch ev.Action.Target {
	case "manage":
		return e.backToManagement(ev, sess)
	case "edit":
		if sess.Step == StepAwaitingTaskPosition {
			sess.Step = StepEditingPlan
		}
		return e.openTaskEditor(ev, sess)
	case "plan_types":
		return e.edit(ev, "📁 Какие планы показать?", Keyboard{Kind: KbPlanTypes})
	default:
		if sess.Step == StepEditingPlan {
			return e.showEditor(ev, sess)
		}
		return e.edit(ev, "📋 Главное меню", Keyboard{Kind: KbMainMenu})
	}
}

func (e *Engine) cancel(ev Event, sess *Session) []Reply {
	// The cancel button on a group invitation just closes it; everything
	// else aborts the user's active flow.
	if ev.Group {
		return e.edit(ev, "❌ День отменён.", Keyboard{Kind: KbNone})
	}
	*sess = Session{}
	return e.edit(ev, "❌ Действие отменено.", Keyboard{Kind: KbMainMenu})
}
