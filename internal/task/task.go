package task

import (
	"math"
	"strings"
	"time"
)

// Status represents where a task is in its lifecycle.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Priority represents the importance level of a task.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PriorityOrder returns the sort order for a priority (lower = higher priority).
func PriorityOrder(p Priority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Task represents one backlog item.
type Task struct {
	ID             string
	Title          string
	Description    string
	Category       string
	Type           string
	Status         Status
	Priority       Priority
	CreatedAt      time.Time
	DueDate        time.Time
	CompletedAt    *time.Time
	EstimatedHours float64
	Assignee       string
}

const hoursPerDay = 24

// ExpectedDays is the number of whole days between creation and the due date.
// It may be zero or negative.
func (t *Task) ExpectedDays() int {
	return int(math.Floor(t.DueDate.Sub(t.CreatedAt).Hours() / hoursPerDay))
}

// HoursPerDay spreads the estimate over the expected days. ok is false when
// the span is not positive and the rate is undefined.
func (t *Task) HoursPerDay() (rate float64, ok bool) {
	days := t.ExpectedDays()
	if days <= 0 {
		return 0, false
	}
	return t.EstimatedHours / float64(days), true
}

// IsAssignable reports whether the task still counts as open work.
func (t *Task) IsAssignable() bool {
	return t.Status == StatusToDo
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus accepts the canonical spellings as well as the labels used by
// older CSV exports ("To Do", "In Progress", "Completed").
func ParseStatus(s string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "todo", "to_do":
		return StatusToDo, true
	case "in_progress", "inprogress":
		return StatusInProgress, true
	case "completed", "complete", "done":
		return StatusCompleted, true
	default:
		return "", false
	}
}

// IsValidPriority checks if a priority string is valid.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority is case-insensitive.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, IsValidPriority(p)
}
