package dialog

// Kind is the closed set of things a user can do: send text, issue a
// command, or press one of the inline buttons. Callback strings are decoded
// into an Action exactly once, at the transport boundary.
type Kind int

const (
	KindText Kind = iota
	KindCommand

	// Plan browsing
	KindViewPlans   // list base or personal plans
	KindViewCurrent // show the current plan
	KindPickPlan    // open a plan from a list
	KindUsePlan     // make the plan current
	KindDeletePlan

	// Day-start flow
	KindSourceCurrent  // reuse the current plan
	KindSourceExisting // pick a stored plan
	KindSourceCreate   // create a plan from scratch

	// Plan editing
	KindEditTasks  // open the task editor
	KindEditTask   // rewrite one task
	KindAddTask    // start adding a task
	KindAddAt      // position chosen for the new task
	KindFinishPlan // done editing

	KindPublish

	// Published-plan management
	KindManage
	KindMark
	KindToggleTask
	KindComments
	KindCommentTask
	KindFinishDay
	KindCloseManage

	KindBack
	KindCancel
)

// Action is one inbound user action with its typed payload.
type Action struct {
	Kind     Kind
	Text     string // free text, or the command payload for KindCommand
	Command  string // command name without the slash
	PlanType string // "base" or "user"
	PlanID   string
	Index    int    // task index for task-addressed actions
	UserRef  int64  // publisher's Telegram ID for KindManage
	Target   string // back target for KindBack: "main", "manage", "edit"
}

// Event is an inbound action together with where it came from.
type Event struct {
	UserID int64
	Name   string // platform display name, used on first contact
	ChatID int64
	Group  bool // the event originated in a group chat
	Action Action
}

// KeyboardKind selects which inline keyboard the transport should attach.
type KeyboardKind int

const (
	KbNone KeyboardKind = iota
	KbMainMenu
	KbBack
	KbPlanTypes   // base plans / personal plans
	KbPlanList    // one button per plan
	KbPlanActions // make current / delete / back
	KbPlanSource  // current / existing / new / cancel
	KbPlanEditor  // edit tasks / finish / cancel
	KbTaskList    // one edit button per task + add + back
	KbTaskPositions
	KbPublishConfirm
	KbNewDay       // deep-link invitation into the group
	KbManageButton // the announcement's single manage button
	KbManage
	KbMarkTasks
	KbCommentTasks
)

// PlanButton is one plan row in a list keyboard.
type PlanButton struct {
	ID   string
	Name string
	Type string
}

// TaskButton is one task row in a task keyboard.
type TaskButton struct {
	Index   int
	Label   string
	Checked bool
}

// Keyboard describes an inline keyboard without committing to a transport.
type Keyboard struct {
	Kind       KeyboardKind
	PlanType   string
	PlanID     string
	Plans      []PlanButton
	Tasks      []TaskButton
	Publisher  int64
	GroupID    int64
	HasCurrent bool
	Back       string // back target: "main", "manage", "plan_types", "edit"
}

// Reply is one outbound rendering instruction. Edit asks the transport to
// update the message the action came from instead of sending a new one.
type Reply struct {
	ChatID   int64
	Edit     bool
	Text     string
	Keyboard Keyboard
}
