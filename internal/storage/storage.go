package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/abatilo/triage/internal/blob"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/task"
)

const (
	tasksPrefix = "tasks"
	fileExt     = ".md"
	markerFile  = "triage.yaml"
)

// Store is the durable task collection. Records are never deleted; the store
// supports append, full scan and field-level update by ID.
type Store struct {
	backend  blob.Backend
	location string
}

// NewStore creates a Store on top of a blob backend. location is only used
// for display.
func NewStore(backend blob.Backend, location string) *Store {
	return &Store{backend: backend, location: location}
}

// Location describes where the store lives.
func (s *Store) Location() string {
	return s.location
}

// Backend exposes the underlying blob backend (used for the writer lease).
func (s *Store) Backend() blob.Backend {
	return s.backend
}

// IsInitialized checks if the store marker exists.
func (s *Store) IsInitialized(ctx context.Context) (bool, error) {
	return s.backend.Exists(ctx, markerFile)
}

// Init writes the store marker.
func (s *Store) Init(ctx context.Context, force bool) error {
	initialized, err := s.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if initialized && !force {
		return triageerrors.AlreadyInitializedError{}
	}
	marker := fmt.Sprintf("version: 1\ninitialized_at: %s\n", time.Now().UTC().Format(time.RFC3339))
	return s.backend.Write(ctx, markerFile, []byte(marker))
}

func (s *Store) ensureInitialized(ctx context.Context) error {
	initialized, err := s.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return triageerrors.NotInitializedError{}
	}
	return nil
}

func taskPath(id string) string {
	return path.Join(tasksPrefix, id+fileExt)
}

// Exists checks if a task with the given ID exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	return s.backend.Exists(ctx, taskPath(id))
}

// Save writes a task, replacing any previous version.
func (s *Store) Save(ctx context.Context, t *task.Task) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}
	content, err := SerializeMarkdown(t)
	if err != nil {
		return err
	}
	return s.backend.Write(ctx, taskPath(t.ID), content)
}

// Load reads a single task.
func (s *Store) Load(ctx context.Context, id string) (*task.Task, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if !task.ValidID(id) {
		return nil, triageerrors.TaskNotFoundError{ID: id}
	}
	return s.load(ctx, taskPath(id), id)
}

func (s *Store) load(ctx context.Context, p, id string) (*task.Task, error) {
	content, err := s.backend.Read(ctx, p)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, triageerrors.TaskNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	t, err := ParseMarkdown(content)
	if err != nil {
		return nil, triageerrors.InvalidRecordError{Source: p, Reason: err.Error()}
	}
	return t, nil
}

// Append stores a new task. An empty ID is generated; an explicit ID must
// not already be taken.
func (s *Store) Append(ctx context.Context, t *task.Task) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	if t.ID == "" {
		existingIDs, err := s.AllIDs(ctx)
		if err != nil {
			return err
		}
		t.ID = task.GenerateID(t.Title, t.CreatedAt, func(id string) bool {
			return existingIDs[id]
		})
	} else {
		if !task.ValidID(t.ID) {
			return triageerrors.InvalidRecordError{Source: "task " + t.ID, Reason: "invalid id"}
		}
		exists, err := s.Exists(ctx, t.ID)
		if err != nil {
			return err
		}
		if exists {
			return triageerrors.AlreadyExistsError{ID: t.ID}
		}
	}

	return s.Save(ctx, t)
}

// Update loads a task, applies fn and saves the result. The ID cannot be
// changed by fn.
func (s *Store) Update(ctx context.Context, id string, fn func(*task.Task) error) (*task.Task, error) {
	t, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = fn(t); err != nil {
		return nil, err
	}
	t.ID = id
	if err = s.Save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// AllIDs returns all task IDs (for ID generation collision checking).
func (s *Store) AllIDs(ctx context.Context) (map[string]bool, error) {
	paths, err := s.backend.List(ctx, tasksPrefix)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(paths))
	for _, p := range paths {
		if id, ok := idFromPath(p); ok {
			ids[id] = true
		}
	}
	return ids, nil
}

func idFromPath(p string) (string, bool) {
	name := path.Base(p)
	if !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	return strings.TrimSuffix(name, fileExt), true
}

type loaded struct {
	task *task.Task
	err  error
}

// Scan returns every task ordered by creation time, then ID. Records are
// read concurrently; malformed records are skipped.
func (s *Store) Scan(ctx context.Context) ([]*task.Task, error) {
	if err := s.ensureInitialized(ctx); err != nil {
		return nil, err
	}

	paths, err := s.backend.List(ctx, tasksPrefix)
	if err != nil {
		return nil, err
	}
	paths = filterTaskPaths(paths)

	results := iter.Map(paths, func(p *string) loaded {
		id, _ := idFromPath(*p)
		t, err := s.load(ctx, *p, id)
		return loaded{task: t, err: err}
	})

	tasks := make([]*task.Task, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		tasks = append(tasks, r.task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func filterTaskPaths(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if _, ok := idFromPath(p); ok {
			out = append(out, p)
		}
	}
	return out
}

// List returns the tasks matching filter, highest priority first, then oldest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*task.Task, error) {
	all, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var tasks []*task.Task
	for _, t := range all {
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		pi := task.PriorityOrder(tasks[i].Priority)
		pj := task.PriorityOrder(tasks[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	Status   task.Status
	Category string
	Type     string
	Priority task.Priority
	Assignee string
	// Search is a case-insensitive substring match over title and description.
	Search string
}

// Matches returns true if the task passes every set criterion.
func (f Filter) Matches(t *task.Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}
