package output

import (
	"encoding/json"
	"time"

	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/task"
)

// JSONFormatter formats output as JSON.
type JSONFormatter struct{}

// marshalJSON marshals a value to indented JSON with a trailing newline.
func marshalJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data) + "\n"
}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// TaskJSON is the JSON representation of a task, shared with the HTTP API.
type TaskJSON struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Category       string  `json:"category"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	CreatedAt      string  `json:"created_at"`
	DueDate        string  `json:"due_date"`
	ExpectedDays   int     `json:"expected_days"`
	CompletedAt    *string `json:"completed_at,omitempty"`
	EstimatedHours float64 `json:"estimated_hours"`
	Assignee       string  `json:"assignee"`
}

// NewTaskJSON converts t.
func NewTaskJSON(t *task.Task) TaskJSON {
	tj := TaskJSON{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Category:       t.Category,
		Type:           t.Type,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		DueDate:        t.DueDate.Format(time.RFC3339),
		ExpectedDays:   t.ExpectedDays(),
		EstimatedHours: t.EstimatedHours,
		Assignee:       t.Assignee,
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		tj.CompletedAt = &s
	}
	return tj
}

// NewTaskListJSON converts tasks, never returning nil.
func NewTaskListJSON(tasks []*task.Task) []TaskJSON {
	jsonTasks := make([]TaskJSON, len(tasks))
	for i, t := range tasks {
		jsonTasks[i] = NewTaskJSON(t)
	}
	return jsonTasks
}

// FormatTask formats a single task as JSON.
func (f *JSONFormatter) FormatTask(t *task.Task) string {
	return marshalJSON(NewTaskJSON(t))
}

// FormatTaskList formats a list of tasks as JSON.
func (f *JSONFormatter) FormatTaskList(tasks []*task.Task) string {
	return marshalJSON(NewTaskListJSON(tasks))
}

// FormatRecommendation formats the recommendation with its trace.
func (f *JSONFormatter) FormatRecommendation(rec *assign.Recommendation) string {
	return marshalJSON(rec)
}

// FormatStats formats a summary as JSON.
func (f *JSONFormatter) FormatStats(s stats.Summary) string {
	return marshalJSON(s)
}

// errorJSON is the JSON representation of an error.
type errorJSON struct {
	Error string `json:"error"`
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(err error) string {
	return marshalJSON(errorJSON{Error: err.Error()})
}

// messageJSON is the JSON representation of a message.
type messageJSON struct {
	Message string `json:"message"`
}

// FormatMessage formats a simple message as JSON.
func (f *JSONFormatter) FormatMessage(msg string) string {
	return marshalJSON(messageJSON{Message: msg})
}
