// Package render builds textual plan views. Every function here is pure:
// the same plan state always produces the same text.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

// View is a rendered plan: a dated header and one line per task.
type View struct {
	Header string
	Body   string
}

// Text joins the header and the body into a single message.
func (v View) Text() string {
	if v.Body == "" {
		return v.Header
	}
	return v.Header + "\n\n" + v.Body
}

// Plan renders the plan with its tasks and comments. Comments are keyed by
// task ID and rendered after the task body in creation order. A plan with no
// tasks yields an empty body.
func Plan(plan *models.Plan, tasks []models.Task, comments map[string][]models.Comment, date time.Time) View {
	view := View{
		Header: fmt.Sprintf("📋 %s — %s", plan.Name, date.Format("02.01.2006")),
	}

	var lines []string
	for i, task := range tasks {
		marker := "🟩"
		if task.Checked {
			marker = "✅"
		}
		line := fmt.Sprintf("%s %d. %s", marker, i+1, task.Body)
		for _, comment := range comments[task.ID] {
			line += fmt.Sprintf("\n   💬 %s: %s", comment.AuthorName, comment.Body)
		}
		lines = append(lines, line)
	}
	view.Body = strings.Join(lines, "\n")
	return view
}

// Announcement is the group variant of a view: it credits the user who
// published the plan.
func Announcement(v View, publisher string) string {
	return fmt.Sprintf("📢 %s опубликовал(а) свой план на день!\n\n%s", publisher, v.Text())
}

// Progress renders a day-close summary with a completion bar.
func Progress(total, completed int) string {
	const barLength = 10

	percent := 0
	if total > 0 {
		percent = completed * 100 / total
	}
	filled := percent * barLength / 100

	bar := strings.Repeat("🟩", filled) + strings.Repeat("⬜", barLength-filled)
	return fmt.Sprintf("✅ Выполнено задач: %d из %d\n%s %d%%", completed, total, bar, percent)
}

// UserStats renders lifetime totals for a single user.
func UserStats(completed int, hours float64, date time.Time) string {
	return fmt.Sprintf("📊 Ваша статистика на %s:\n\n✅ Всего выполнено задач: %d\n📚 Общее время обучения: %.1f ч.",
		date.Format("02.01.2006"), completed, hours)
}

// GroupStats renders lifetime totals for a group.
func GroupStats(completed int, hours float64, date time.Time) string {
	return fmt.Sprintf("📊 Статистика группы на %s:\n\n✅ Всего выполнено задач: %d\n📚 Общее время обучения: %.1f ч.",
		date.Format("02.01.2006"), completed, hours)
}
