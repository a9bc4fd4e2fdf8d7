package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wiki73/P.I.B-bot/internal/dialog"
)

func backData(target string) string {
	switch target {
	case "manage":
		return "back_to_manage"
	case "plan_types":
		return "back_to_plan_types"
	case "edit":
		return "back_to_edit"
	default:
		return "back_to_main"
	}
}

func backRow(target string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад", backData(target)),
	)
}

// markup builds the Telegram inline keyboard for a reply. Nil means the
// message goes out without buttons.
func (h *BotHandler) markup(kb dialog.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch kb.Kind {
	case dialog.KbNone:
		return nil

	case dialog.KbMainMenu:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📚 Базовые планы", "view_base_plans"),
				tgbotapi.NewInlineKeyboardButtonData("📝 Мои планы", "view_user_plans"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📌 Текущий план", "current_plan"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✨ Создать план", "create_plan"),
			),
		)

	case dialog.KbBack:
		rows = append(rows, backRow(kb.Back))

	case dialog.KbPlanTypes:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📚 Базовые планы", "view_base_plans"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📝 Мои планы", "view_user_plans"),
			),
			backRow("main"),
		)

	case dialog.KbPlanList:
		for _, plan := range kb.Plans {
			data := fmt.Sprintf("pick_plan:%s:%s", plan.Type, plan.ID)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(plan.Name, data),
			))
		}
		rows = append(rows, backRow(kb.Back))

	case dialog.KbPlanActions:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📌 Сделать текущим",
				fmt.Sprintf("use_plan:%s:%s", kb.PlanType, kb.PlanID)),
		))
		if kb.PlanType == "user" {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить план",
					"delete_plan:"+kb.PlanID),
			))
		}
		rows = append(rows, backRow("plan_types"))

	case dialog.KbPlanSource:
		if kb.HasCurrent {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📌 Использовать текущий план", "use_current_plan"),
			))
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📋 Выбрать существующий план", "use_existing_plan"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✨ Создать новый план", "create_plan"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel_plan_creation"),
			),
		)

	case dialog.KbPlanEditor:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать задачи", "edit_tasks"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Завершить", "finish_plan"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel_plan_creation"),
			),
		)

	case dialog.KbTaskList:
		for _, task := range kb.Tasks {
			label := fmt.Sprintf("✏️ %d. %s", task.Index+1, task.Label)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("edit_task_%d", task.Index)),
			))
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("➕ Добавить пункт", "add_new_task"),
			),
			backRow(kb.Back),
		)

	case dialog.KbTaskPositions:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬆️ В начало", "add_at_0"),
		))
		for _, task := range kb.Tasks {
			label := fmt.Sprintf("После пункта %d", task.Index+1)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("add_at_%d", task.Index+1)),
			))
		}
		rows = append(rows, backRow("edit"))

	case dialog.KbPublishConfirm:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Опубликовать", "publish_plan"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel_plan_creation"),
			),
		)

	case dialog.KbNewDay:
		link := fmt.Sprintf("https://t.me/%s?start=newday_%d", h.bot.Self.UserName, kb.GroupID)
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("📝 Составить план дня", link),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "cancel_new_day"),
			),
		)

	case dialog.KbManageButton:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Управление планом",
				fmt.Sprintf("manage_plan:%d", kb.Publisher)),
		))

	case dialog.KbManage:
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Отметить задачи", "mark_tasks"),
				tgbotapi.NewInlineKeyboardButtonData("💬 Комментарии", "task_comments"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать задачи", "edit_tasks"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🌙 Завершить день", "finish_day"),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔽 Свернуть", "close_management"),
			),
		)

	case dialog.KbMarkTasks:
		for _, task := range kb.Tasks {
			mark := "🟩"
			if task.Checked {
				mark = "✅"
			}
			label := fmt.Sprintf("%s %d. %s", mark, task.Index+1, task.Label)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("task_action:%d", task.Index)),
			))
		}
		rows = append(rows, backRow("manage"))

	case dialog.KbCommentTasks:
		for _, task := range kb.Tasks {
			label := fmt.Sprintf("%d. %s", task.Index+1, task.Label)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("comment_task_%d", task.Index)),
			))
		}
		rows = append(rows, backRow("manage"))
	}

	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
