// Package stats summarises a backlog snapshot: how tasks are distributed over
// priority, category, type and status, and the open-work counts shown next to
// the task list.
package stats

import (
	"sort"

	"github.com/abatilo/triage/internal/task"
)

// Count is one bucket of a distribution.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// Summary describes a set of tasks.
type Summary struct {
	Total        int     `json:"total"`
	ToDo         int     `json:"todo"`
	HighPriority int     `json:"high_priority"`
	ByPriority   []Count `json:"by_priority"`
	ByCategory   []Count `json:"by_category"`
	ByType       []Count `json:"by_type"`
	ByStatus     []Count `json:"by_status"`
	ByAssignee   []Count `json:"by_assignee"`
}

// Unset labels the bucket of tasks with an empty field.
const Unset = "(none)"

// Summarize counts tasks. HighPriority counts high and critical tasks.
func Summarize(tasks []*task.Task) Summary {
	s := Summary{Total: len(tasks)}

	priority := map[string]int{}
	category := map[string]int{}
	taskType := map[string]int{}
	status := map[string]int{}
	assignee := map[string]int{}

	for _, t := range tasks {
		if t.Status == task.StatusToDo {
			s.ToDo++
		}
		if t.Priority == task.PriorityHigh || t.Priority == task.PriorityCritical {
			s.HighPriority++
		}
		priority[label(string(t.Priority))]++
		category[label(t.Category)]++
		taskType[label(t.Type)]++
		status[label(string(t.Status))]++
		assignee[label(t.Assignee)]++
	}

	s.ByPriority = sorted(priority)
	s.ByCategory = sorted(category)
	s.ByType = sorted(taskType)
	s.ByStatus = sorted(status)
	s.ByAssignee = sorted(assignee)
	return s
}

// ForAssignee summarises only the tasks assigned to name.
func ForAssignee(tasks []*task.Task, name string) Summary {
	var mine []*task.Task
	for _, t := range tasks {
		if t.Assignee == name {
			mine = append(mine, t)
		}
	}
	return Summarize(mine)
}

func label(v string) string {
	if v == "" {
		return Unset
	}
	return v
}

// sorted orders buckets by count descending, then value.
func sorted(m map[string]int) []Count {
	counts := make([]Count, 0, len(m))
	for v, n := range m {
		counts = append(counts, Count{Value: v, N: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Value < counts[j].Value
	})
	return counts
}
