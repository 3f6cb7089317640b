package assign

import "github.com/abatilo/triage/internal/task"

// Experts returns the roster members who completed work of the same category
// and type, falling back to the category alone when nobody matches both.
// The result follows roster order. ok is false when there is no expertise
// signal, either because nobody qualified or because nobody who qualified is
// on the roster.
func Experts(tasks []*task.Task, category, taskType string, roster []string) (experts []string, ok bool) {
	found := completedBy(tasks, func(t *task.Task) bool {
		return t.Category == category && t.Type == taskType
	})
	if len(found) == 0 {
		found = completedBy(tasks, func(t *task.Task) bool {
			return t.Category == category
		})
	}
	if len(found) == 0 {
		return nil, false
	}

	for _, name := range roster {
		if found[name] {
			experts = append(experts, name)
		}
	}
	return experts, len(experts) > 0
}

// completedBy collects the distinct non-empty assignees of completed tasks
// accepted by match.
func completedBy(tasks []*task.Task, match func(*task.Task) bool) map[string]bool {
	found := make(map[string]bool)
	for _, t := range tasks {
		if t.Status != task.StatusCompleted || t.Assignee == "" || !match(t) {
			continue
		}
		found[t.Assignee] = true
	}
	return found
}
