// Package backlog is the application layer shared by the CLI and the HTTP API.
// It owns the task store, the prediction models and the assignment engine,
// and serializes every mutation behind an in-process mutex plus the store's
// writer lease.
package backlog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abatilo/triage/internal/assign"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/lock"
	"github.com/abatilo/triage/internal/metrics"
	"github.com/abatilo/triage/internal/predict"
	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/storage"
	"github.com/abatilo/triage/internal/task"
)

// DefaultLeaseTTL bounds how long a crashed writer can block others.
const DefaultLeaseTTL = 30 * time.Second

// Service runs backlog operations against one store.
type Service struct {
	mu       sync.Mutex
	store    *storage.Store
	models   *predict.Models
	engine   *assign.Engine
	metrics  *metrics.Metrics
	logger   *slog.Logger
	owner    string
	leaseTTL time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records operations on m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger for mutation events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLeaseTTL sets how long the writer lease is held per mutation.
func WithLeaseTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.leaseTTL = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. Every Service gets its own writer identity.
func New(store *storage.Store, models *predict.Models, engine *assign.Engine, opts ...Option) *Service {
	s := &Service{
		store:    store,
		models:   models,
		engine:   engine,
		logger:   slog.Default(),
		owner:    ulid.Make().String(),
		leaseTTL: DefaultLeaseTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// Location describes where the store lives.
func (s *Service) Location() string {
	return s.store.Location()
}

// Owner is the writer identity used for the lease.
func (s *Service) Owner() string {
	return s.owner
}

// write runs fn under the mutex and the writer lease.
func (s *Service) write(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := lock.WithLease(ctx, s.store.Backend(), s.owner, s.leaseTTL, func() error {
		return fn(ctx)
	})
	var locked triageerrors.WriterLockedError
	if errors.As(err, &locked) {
		s.metrics.LeaseConflicts.Inc()
	}
	return err
}

func (s *Service) observe(operation string, start time.Time, err error) {
	s.metrics.ObserveOperation(operation, start, err)
}

// Init creates the store.
func (s *Service) Init(ctx context.Context, force bool) (err error) {
	defer func(start time.Time) { s.observe("init", start, err) }(time.Now())
	return s.write(ctx, func(ctx context.Context) error {
		return s.store.Init(ctx, force)
	})
}

// Draft is the user input for a new task.
type Draft struct {
	Title       string
	Description string
	// DueDate defaults to today when zero.
	DueDate time.Time
	// EstimatedHours is the user's own guess; zero means none.
	EstimatedHours float64
}

// Create predicts the missing fields of d and appends the task.
func (s *Service) Create(ctx context.Context, d Draft) (t *task.Task, err error) {
	defer func(start time.Time) { s.observe("create", start, err) }(time.Now())

	if d.Title == "" && d.Description == "" {
		return nil, triageerrors.MissingContentError{}
	}

	now := s.now().UTC()
	today := dateOf(now)
	due := today
	if !d.DueDate.IsZero() {
		due = dateOf(d.DueDate)
	}
	if due.Before(today) {
		return nil, triageerrors.InvalidDueDateError{Due: due, Created: today}
	}

	category, taskType := s.models.Classifier.Classify(d.Title + ". " + d.Description)
	t = &task.Task{
		Title:          d.Title,
		Description:    d.Description,
		Category:       category,
		Type:           taskType,
		Status:         task.StatusToDo,
		CreatedAt:      today,
		DueDate:        due,
		EstimatedHours: s.models.Hours.Estimate(category, taskType, d.EstimatedHours),
	}
	// A task due today is not overdue yet.
	t.Priority = s.models.Priority.Predict(t, today)

	s.metrics.Predictions.WithLabelValues("category", category).Inc()
	s.metrics.Predictions.WithLabelValues("type", taskType).Inc()
	s.metrics.Predictions.WithLabelValues("priority", string(t.Priority)).Inc()

	if err = s.write(ctx, func(ctx context.Context) error {
		return s.store.Append(ctx, t)
	}); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task created",
		"id", t.ID,
		"category", t.Category,
		"type", t.Type,
		"priority", t.Priority,
		"estimated_hours", t.EstimatedHours,
	)
	return t, nil
}

// List returns the tasks matching filter.
func (s *Service) List(ctx context.Context, filter storage.Filter) (tasks []*task.Task, err error) {
	defer func(start time.Time) { s.observe("list", start, err) }(time.Now())
	return s.store.List(ctx, filter)
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, id string) (t *task.Task, err error) {
	defer func(start time.Time) { s.observe("get", start, err) }(time.Now())
	return s.store.Load(ctx, id)
}

// Edit lists the fields to change; nil fields stay as they are.
type Edit struct {
	DueDate  *time.Time
	Status   *task.Status
	Assignee *string
}

// Edit applies e to the task.
func (s *Service) Edit(ctx context.Context, id string, e Edit) (t *task.Task, err error) {
	defer func(start time.Time) { s.observe("edit", start, err) }(time.Now())

	if e.Status != nil && !task.IsValidStatus(*e.Status) {
		return nil, triageerrors.InvalidStatusError{Current: string(*e.Status)}
	}

	err = s.write(ctx, func(ctx context.Context) error {
		var updateErr error
		t, updateErr = s.store.Update(ctx, id, func(t *task.Task) error {
			if e.DueDate != nil {
				due := dateOf(*e.DueDate)
				if due.Before(dateOf(t.CreatedAt)) {
					return triageerrors.InvalidDueDateError{Due: due, Created: t.CreatedAt}
				}
				t.DueDate = due
			}
			if e.Status != nil {
				s.setStatus(t, *e.Status)
			}
			if e.Assignee != nil {
				t.Assignee = *e.Assignee
				if t.Assignee == assign.Unassigned {
					t.Assignee = ""
				}
			}
			return nil
		})
		return updateErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task edited", "id", id, "status", t.Status, "assignee", t.Assignee)
	return t, nil
}

func (s *Service) setStatus(t *task.Task, status task.Status) {
	switch {
	case status == task.StatusCompleted && t.CompletedAt == nil:
		completed := s.now().UTC()
		t.CompletedAt = &completed
	case status != task.StatusCompleted:
		t.CompletedAt = nil
	}
	t.Status = status
}

// Complete marks an open task as completed.
func (s *Service) Complete(ctx context.Context, id string) (t *task.Task, err error) {
	defer func(start time.Time) { s.observe("complete", start, err) }(time.Now())

	err = s.write(ctx, func(ctx context.Context) error {
		var updateErr error
		t, updateErr = s.store.Update(ctx, id, func(t *task.Task) error {
			if t.Status == task.StatusCompleted {
				return triageerrors.InvalidStatusError{
					ID:       id,
					Current:  string(t.Status),
					Expected: string(task.StatusToDo),
				}
			}
			s.setStatus(t, task.StatusCompleted)
			return nil
		})
		return updateErr
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task completed", "id", id)
	return t, nil
}

// Suggest recommends an assignee for the task. An empty roster means every
// assignee seen in the store.
func (s *Service) Suggest(ctx context.Context, id string, roster []string) (rec *assign.Recommendation, err error) {
	defer func(start time.Time) { s.observe("suggest", start, err) }(time.Now())
	return s.suggest(ctx, id, roster)
}

func (s *Service) suggest(ctx context.Context, id string, roster []string) (*assign.Recommendation, error) {
	tasks, err := s.store.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var target *task.Task
	for _, t := range tasks {
		if t.ID == id {
			target = t
			break
		}
	}
	if target == nil {
		return nil, triageerrors.TaskNotFoundError{ID: id}
	}

	if len(roster) == 0 {
		roster = assign.RosterFromTasks(tasks)
	}
	rec, err := s.engine.Explain(ctx, tasks, target.Category, target.Type, id, roster)
	if err != nil {
		return nil, err
	}

	s.metrics.Recommendations.WithLabelValues(string(rec.Reason)).Inc()
	s.metrics.RosterSize.Observe(float64(len(rec.Roster)))
	return rec, nil
}

// Assign sets the assignee explicitly. An empty name unassigns the task.
func (s *Service) Assign(ctx context.Context, id, assignee string) (t *task.Task, err error) {
	defer func(start time.Time) { s.observe("assign", start, err) }(time.Now())

	err = s.write(ctx, func(ctx context.Context) error {
		var assignErr error
		t, assignErr = s.assign(ctx, id, assignee)
		return assignErr
	})
	return t, err
}

func (s *Service) assign(ctx context.Context, id, assignee string) (*task.Task, error) {
	if assignee == assign.Unassigned {
		assignee = ""
	}
	t, err := s.store.Update(ctx, id, func(t *task.Task) error {
		t.Assignee = assignee
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "task assigned", "id", id, "assignee", assignee)
	return t, nil
}

// AssignSuggested recommends an assignee and persists the choice in one
// write. An Unassigned recommendation leaves the task without an assignee.
func (s *Service) AssignSuggested(ctx context.Context, id string, roster []string) (rec *assign.Recommendation, t *task.Task, err error) {
	defer func(start time.Time) { s.observe("assign_suggested", start, err) }(time.Now())

	err = s.write(ctx, func(ctx context.Context) error {
		var innerErr error
		if rec, innerErr = s.suggest(ctx, id, roster); innerErr != nil {
			return innerErr
		}
		t, innerErr = s.assign(ctx, id, rec.Assignee)
		return innerErr
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, t, nil
}

// Stats summarises the backlog, or one assignee's share of it.
func (s *Service) Stats(ctx context.Context, assignee string) (summary stats.Summary, err error) {
	defer func(start time.Time) { s.observe("stats", start, err) }(time.Now())

	tasks, err := s.store.Scan(ctx)
	if err != nil {
		return stats.Summary{}, err
	}

	all := stats.Summarize(tasks)
	s.metrics.TasksByStatus.Reset()
	for _, c := range all.ByStatus {
		s.metrics.TasksByStatus.WithLabelValues(c.Value).Set(float64(c.N))
	}

	if assignee != "" {
		return stats.ForAssignee(tasks, assignee), nil
	}
	return all, nil
}

// Import loads tasks from a CSV export.
func (s *Service) Import(ctx context.Context, r io.Reader) (result storage.ImportResult, err error) {
	defer func(start time.Time) { s.observe("import", start, err) }(time.Now())

	err = s.write(ctx, func(ctx context.Context) error {
		var importErr error
		result, importErr = s.store.ImportCSV(ctx, r)
		return importErr
	})
	if err != nil {
		return result, err
	}

	s.logger.InfoContext(ctx, "tasks imported", "created", result.Created, "replaced", result.Replaced)
	return result, nil
}

// Export writes every task as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) (err error) {
	defer func(start time.Time) { s.observe("export", start, err) }(time.Now())
	return s.store.ExportCSV(ctx, w)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
