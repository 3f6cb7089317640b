package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/task"
)

func sample() []*task.Task {
	return []*task.Task{
		{ID: "1", Status: task.StatusToDo, Priority: task.PriorityHigh, Category: "Bug", Type: "UI", Assignee: "alice"},
		{ID: "2", Status: task.StatusToDo, Priority: task.PriorityCritical, Category: "Bug", Type: "API", Assignee: "bob"},
		{ID: "3", Status: task.StatusCompleted, Priority: task.PriorityLow, Category: "Feature", Type: "UI", Assignee: "alice"},
		{ID: "4", Status: task.StatusInProgress, Priority: task.PriorityLow, Category: "Feature", Type: "UI"},
		{ID: "5", Status: task.StatusToDo, Priority: task.PriorityMedium, Category: "Docs", Assignee: "alice"},
	}
}

func TestSummarize(t *testing.T) {
	s := stats.Summarize(sample())

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.ToDo)
	assert.Equal(t, 2, s.HighPriority)
	assert.Equal(t, []stats.Count{
		{Value: "low", N: 2},
		{Value: "critical", N: 1},
		{Value: "high", N: 1},
		{Value: "medium", N: 1},
	}, s.ByPriority)
	assert.Equal(t, []stats.Count{
		{Value: "Bug", N: 2},
		{Value: "Feature", N: 2},
		{Value: "Docs", N: 1},
	}, s.ByCategory)
	assert.Equal(t, []stats.Count{
		{Value: "UI", N: 3},
		{Value: stats.Unset, N: 1},
		{Value: "API", N: 1},
	}, s.ByType)
	assert.Equal(t, []stats.Count{
		{Value: "alice", N: 3},
		{Value: stats.Unset, N: 1},
		{Value: "bob", N: 1},
	}, s.ByAssignee)
}

func TestSummarizeEmpty(t *testing.T) {
	s := stats.Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.ByStatus)
}

func TestForAssignee(t *testing.T) {
	s := stats.ForAssignee(sample(), "alice")
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.ToDo)
	assert.Equal(t, 1, s.HighPriority)
	assert.Equal(t, []stats.Count{
		{Value: "todo", N: 2},
		{Value: "completed", N: 1},
	}, s.ByStatus)

	assert.Zero(t, stats.ForAssignee(sample(), "nobody").Total)
}
