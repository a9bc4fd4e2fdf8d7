package handlers

import (
	"strconv"
	"strings"

	"github.com/wiki73/P.I.B-bot/internal/dialog"
)

// decodeCallback parses a callback data string into a dialog action. The
// second result is false for data the bot never produced, e.g. from stale
// keyboards of an older version.
func decodeCallback(data string) (dialog.Action, bool) {
	switch data {
	case "back_to_main":
		return dialog.Action{Kind: dialog.KindBack, Target: "main"}, true
	case "back_to_manage":
		return dialog.Action{Kind: dialog.KindBack, Target: "manage"}, true
	case "back_to_plan_types":
		return dialog.Action{Kind: dialog.KindBack, Target: "plan_types"}, true
	case "back_to_edit":
		return dialog.Action{Kind: dialog.KindBack, Target: "edit"}, true
	case "view_base_plans":
		return dialog.Action{Kind: dialog.KindViewPlans, PlanType: "base"}, true
	case "view_user_plans":
		return dialog.Action{Kind: dialog.KindViewPlans, PlanType: "user"}, true
	case "current_plan":
		return dialog.Action{Kind: dialog.KindViewCurrent}, true
	case "create_plan":
		return dialog.Action{Kind: dialog.KindSourceCreate}, true
	case "use_current_plan":
		return dialog.Action{Kind: dialog.KindSourceCurrent}, true
	case "use_existing_plan":
		return dialog.Action{Kind: dialog.KindSourceExisting}, true
	case "cancel_plan_creation", "cancel_new_day":
		return dialog.Action{Kind: dialog.KindCancel}, true
	case "edit_tasks":
		return dialog.Action{Kind: dialog.KindEditTasks}, true
	case "add_new_task":
		return dialog.Action{Kind: dialog.KindAddTask}, true
	case "finish_plan":
		return dialog.Action{Kind: dialog.KindFinishPlan}, true
	case "publish_plan":
		return dialog.Action{Kind: dialog.KindPublish}, true
	case "mark_tasks":
		return dialog.Action{Kind: dialog.KindMark}, true
	case "task_comments":
		return dialog.Action{Kind: dialog.KindComments}, true
	case "finish_day":
		return dialog.Action{Kind: dialog.KindFinishDay}, true
	case "close_management":
		return dialog.Action{Kind: dialog.KindCloseManage}, true
	}

	if rest, ok := strings.CutPrefix(data, "pick_plan:"); ok {
		planType, planID, ok := splitPlanRef(rest)
		if !ok {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindPickPlan, PlanType: planType, PlanID: planID}, true
	}
	if rest, ok := strings.CutPrefix(data, "use_plan:"); ok {
		planType, planID, ok := splitPlanRef(rest)
		if !ok {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindUsePlan, PlanType: planType, PlanID: planID}, true
	}
	if planID, ok := strings.CutPrefix(data, "delete_plan:"); ok {
		return dialog.Action{Kind: dialog.KindDeletePlan, PlanID: planID}, true
	}
	if rest, ok := strings.CutPrefix(data, "manage_plan:"); ok {
		userID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindManage, UserRef: userID}, true
	}
	if rest, ok := strings.CutPrefix(data, "edit_task_"); ok {
		index, err := strconv.Atoi(rest)
		if err != nil {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindEditTask, Index: index}, true
	}
	if rest, ok := strings.CutPrefix(data, "add_at_"); ok {
		index, err := strconv.Atoi(rest)
		if err != nil {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindAddAt, Index: index}, true
	}
	if rest, ok := strings.CutPrefix(data, "task_action:"); ok {
		index, err := strconv.Atoi(rest)
		if err != nil {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindToggleTask, Index: index}, true
	}
	if rest, ok := strings.CutPrefix(data, "comment_task_"); ok {
		index, err := strconv.Atoi(rest)
		if err != nil {
			return dialog.Action{}, false
		}
		return dialog.Action{Kind: dialog.KindCommentTask, Index: index}, true
	}

	return dialog.Action{}, false
}

func splitPlanRef(rest string) (planType, planID string, ok bool) {
	planType, planID, found := strings.Cut(rest, ":")
	if !found || planID == "" {
		return "", "", false
	}
	if planType != "base" && planType != "user" {
		return "", "", false
	}
	return planType, planID, true
}
