package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wiki73/P.I.B-bot/internal/models"
)

var testDate = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func TestPlanEmpty(t *testing.T) {
	plan := &models.Plan{ID: "p1", Name: "Пустой"}
	view := Plan(plan, nil, nil, testDate)

	assert.Equal(t, "📋 Пустой — 14.03.2025", view.Header)
	assert.Empty(t, view.Body)
	assert.Equal(t, view.Header, view.Text())
}

func TestPlanTasksAndComments(t *testing.T) {
	plan := &models.Plan{ID: "p1", Name: "День"}
	tasks := []models.Task{
		{ID: "t1", Body: "Зарядка", Checked: true},
		{ID: "t2", Body: "Завтрак"},
	}
	comments := map[string][]models.Comment{
		"t1": {{AuthorName: "Алиса", Body: "15 минут"}},
	}

	view := Plan(plan, tasks, comments, testDate)
	want := "✅ 1. Зарядка\n   💬 Алиса: 15 минут\n🟩 2. Завтрак"
	assert.Equal(t, want, view.Body)
	assert.Equal(t, view.Header+"\n\n"+view.Body, view.Text())
}

func TestPlanDeterministic(t *testing.T) {
	plan := &models.Plan{ID: "p1", Name: "День"}
	tasks := []models.Task{{ID: "t1", Body: "Зарядка"}}

	first := Plan(plan, tasks, nil, testDate)
	second := Plan(plan, tasks, nil, testDate)
	assert.Equal(t, first, second)
}

func TestAnnouncement(t *testing.T) {
	plan := &models.Plan{ID: "p1", Name: "День"}
	view := Plan(plan, nil, nil, testDate)

	got := Announcement(view, "Алиса")
	assert.Contains(t, got, "Алиса опубликовал(а)")
	assert.Contains(t, got, view.Header)
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name             string
		total, completed int
		want             string
	}{
		{"all done", 4, 4, "✅ Выполнено задач: 4 из 4\n🟩🟩🟩🟩🟩🟩🟩🟩🟩🟩 100%"},
		{"half", 4, 2, "✅ Выполнено задач: 2 из 4\n🟩🟩🟩🟩🟩⬜⬜⬜⬜⬜ 50%"},
		{"none", 4, 0, "✅ Выполнено задач: 0 из 4\n⬜⬜⬜⬜⬜⬜⬜⬜⬜⬜ 0%"},
		{"empty plan", 0, 0, "✅ Выполнено задач: 0 из 0\n⬜⬜⬜⬜⬜⬜⬜⬜⬜⬜ 0%"},
		{"third", 3, 1, "✅ Выполнено задач: 1 из 3\n🟩🟩🟩⬜⬜⬜⬜⬜⬜⬜ 33%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.total, tt.completed))
		})
	}
}

func TestStats(t *testing.T) {
	got := UserStats(7, 4, testDate)
	assert.Contains(t, got, "14.03.2025")
	assert.Contains(t, got, "задач: 7")
	assert.Contains(t, got, "4.0 ч.")

	got = GroupStats(12, 2.5, testDate)
	assert.Contains(t, got, "Статистика группы")
	assert.Contains(t, got, "задач: 12")
	assert.Contains(t, got, "2.5 ч.")
}
