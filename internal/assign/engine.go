// Package assign recommends an assignee for a task from the current backlog.
//
// Every call works on the snapshot it is handed: workloads and expertise are
// derived from the tasks slice on each call and never cached, and nothing is
// written back. Persisting the chosen assignee is up to the caller.
package assign

import (
	"context"
	"log/slog"
	"slices"

	"github.com/oklog/ulid/v2"

	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/task"
)

// Engine answers "who should get this task?".
type Engine struct {
	capacity float64
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCapacity sets the daily-hour ceiling. Non-positive values are ignored.
func WithCapacity(hours float64) Option {
	return func(e *Engine) {
		if hours > 0 {
			e.capacity = hours
		}
	}
}

// WithLogger sets the logger used for recommendation trace events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine with DefaultCapacity and the default logger.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{capacity: DefaultCapacity, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capacity returns the configured daily-hour ceiling.
func (e *Engine) Capacity() float64 {
	return e.capacity
}

// Recommendation is a decision together with the signals behind it.
type Recommendation struct {
	TraceID           string          `json:"trace_id"`
	TaskID            string          `json:"task_id"`
	Category          string          `json:"category"`
	Type              string          `json:"type"`
	Assignee          string          `json:"assignee"`
	Reason            Reason          `json:"reason"`
	Roster            []string        `json:"roster"`
	Experts           []string        `json:"experts"`
	ExpertiseSignal   bool            `json:"expertise_signal"`
	TargetHoursPerDay float64         `json:"target_hours_per_day"`
	Capacity          float64         `json:"capacity"`
	Loads             map[string]Load `json:"loads"`
}

// Recommend returns the recommended assignee for targetID, or Unassigned when
// the roster is empty once blank names are removed. The result is always a
// roster member or Unassigned.
func (e *Engine) Recommend(tasks []*task.Task, category, taskType, targetID string, roster []string) (string, error) {
	rec, err := e.Explain(context.Background(), tasks, category, taskType, targetID, roster)
	if err != nil {
		return "", err
	}
	return rec.Assignee, nil
}

// Explain is Recommend with the full trace.
func (e *Engine) Explain(
	ctx context.Context,
	tasks []*task.Task,
	category, taskType, targetID string,
	roster []string,
) (*Recommendation, error) {
	rec := &Recommendation{
		TraceID:  ulid.Make().String(),
		TaskID:   targetID,
		Category: category,
		Type:     taskType,
		Roster:   NormalizeRoster(roster),
		Capacity: e.capacity,
	}

	if len(rec.Roster) == 0 {
		rec.Assignee, rec.Reason = Unassigned, ReasonUnassigned
		e.trace(ctx, rec)
		return rec, nil
	}

	target := findTask(tasks, targetID)
	if target == nil {
		return nil, triageerrors.MissingTargetTaskError{ID: targetID}
	}
	// A target due on or before its creation day has no defined rate and
	// adds nothing to anyone's daily load.
	rec.TargetHoursPerDay, _ = target.HoursPerDay()

	rec.Loads = Workloads(tasks, rec.Roster)
	rec.Experts, rec.ExpertiseSignal = Experts(tasks, category, taskType, rec.Roster)

	decision := Rank(RankInput{
		Roster:            rec.Roster,
		Experts:           rec.Experts,
		Loads:             rec.Loads,
		TargetHoursPerDay: rec.TargetHoursPerDay,
		Capacity:          e.capacity,
	})
	rec.Assignee, rec.Reason = decision.Assignee, decision.Reason

	e.trace(ctx, rec)
	return rec, nil
}

func (e *Engine) trace(ctx context.Context, rec *Recommendation) {
	if !e.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	e.logger.DebugContext(ctx, "recommendation trace",
		"trace_id", rec.TraceID,
		"task_id", rec.TaskID,
		"category", rec.Category,
		"type", rec.Type,
		"roster", rec.Roster,
		"experts", rec.Experts,
		"expertise_signal", rec.ExpertiseSignal,
		"target_hours_per_day", rec.TargetHoursPerDay,
		"capacity", rec.Capacity,
		"loads", rec.Loads,
		"assignee", rec.Assignee,
		"reason", string(rec.Reason),
	)
}

func findTask(tasks []*task.Task, id string) *task.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// NormalizeRoster drops blank names and repeated names, keeping first
// occurrences in order.
func NormalizeRoster(roster []string) []string {
	out := make([]string, 0, len(roster))
	seen := make(map[string]bool, len(roster))
	for _, name := range roster {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// RosterFromTasks lists every distinct non-empty assignee in tasks, sorted.
func RosterFromTasks(tasks []*task.Task) []string {
	seen := make(map[string]bool)
	var roster []string
	for _, t := range tasks {
		if t.Assignee != "" && !seen[t.Assignee] {
			seen[t.Assignee] = true
			roster = append(roster, t.Assignee)
		}
	}
	slices.Sort(roster)
	return roster
}
