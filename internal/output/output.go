package output

import (
	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/task"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatTask(t *task.Task) string
	FormatTaskList(tasks []*task.Task) string
	FormatRecommendation(rec *assign.Recommendation) string
	FormatStats(s stats.Summary) string
	FormatError(err error) string
	FormatMessage(msg string) string
}
