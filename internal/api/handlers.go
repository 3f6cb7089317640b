package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/backlog"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/output"
	"github.com/abatilo/triage/internal/storage"
	"github.com/abatilo/triage/internal/task"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		notFound      triageerrors.TaskNotFoundError
		missingTarget triageerrors.MissingTargetTaskError
		exists        triageerrors.AlreadyExistsError
		initialized   triageerrors.AlreadyInitializedError
		locked        triageerrors.WriterLockedError
		notInit       triageerrors.NotInitializedError
		badStatus     triageerrors.InvalidStatusError
		badPriority   triageerrors.InvalidPriorityError
		badDue        triageerrors.InvalidDueDateError
		noContent     triageerrors.MissingContentError
		badRecord     triageerrors.InvalidRecordError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &missingTarget):
		return http.StatusNotFound
	case errors.As(err, &exists), errors.As(err, &initialized), errors.As(err, &locked):
		return http.StatusConflict
	case errors.As(err, &badStatus), errors.As(err, &badPriority), errors.As(err, &badDue),
		errors.As(err, &noContent), errors.As(err, &badRecord):
		return http.StatusBadRequest
	case errors.As(err, &notInit):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.opts.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.Filter{
		Category: q.Get("category"),
		Type:     q.Get("type"),
		Assignee: q.Get("assignee"),
		Search:   q.Get("search"),
	}
	if v := q.Get("status"); v != "" {
		status, ok := task.ParseStatus(v)
		if !ok {
			s.fail(w, r, triageerrors.InvalidStatusError{Current: v})
			return
		}
		filter.Status = status
	}
	if v := q.Get("priority"); v != "" {
		priority, ok := task.ParsePriority(v)
		if !ok {
			s.fail(w, r, triageerrors.InvalidPriorityError{Value: v})
			return
		}
		filter.Priority = priority
	}

	tasks, err := s.svc.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTaskListJSON(tasks))
}

type createRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	DueDate        string  `json:"due_date"`
	EstimatedHours float64 `json:"estimated_hours"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	draft := backlog.Draft{
		Title:          req.Title,
		Description:    req.Description,
		EstimatedHours: req.EstimatedHours,
	}
	if req.DueDate != "" {
		due, err := parseDate(req.DueDate)
		if err != nil {
			badRequest(w, "due_date must be YYYY-MM-DD")
			return
		}
		draft.DueDate = due
	}

	t, err := s.svc.Create(r.Context(), draft)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, output.NewTaskJSON(t))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTaskJSON(t))
}

type editRequest struct {
	DueDate  *string `json:"due_date"`
	Status   *string `json:"status"`
	Assignee *string `json:"assignee"`
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	var edit backlog.Edit
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			badRequest(w, "due_date must be YYYY-MM-DD")
			return
		}
		edit.DueDate = &due
	}
	if req.Status != nil {
		status, ok := task.ParseStatus(*req.Status)
		if !ok {
			s.fail(w, r, triageerrors.InvalidStatusError{Current: *req.Status})
			return
		}
		edit.Status = &status
	}
	edit.Assignee = req.Assignee

	t, err := s.svc.Edit(r.Context(), chi.URLParam(r, "id"), edit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTaskJSON(t))
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output.NewTaskJSON(t))
}

func (s *Server) suggest(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Suggest(r.Context(), chi.URLParam(r, "id"), r.URL.Query()["candidate"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type assignRequest struct {
	Assignee string `json:"assignee"`
	// Suggest asks the engine to pick from Candidates.
	Suggest    bool     `json:"suggest"`
	Candidates []string `json:"candidates"`
}

type assignResponse struct {
	Task           output.TaskJSON        `json:"task"`
	Recommendation *assign.Recommendation `json:"recommendation,omitempty"`
}

func (s *Server) assignTask(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	id := chi.URLParam(r, "id")

	if !req.Suggest {
		t, err := s.svc.Assign(r.Context(), id, req.Assignee)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, assignResponse{Task: output.NewTaskJSON(t)})
		return
	}

	rec, t, err := s.svc.AssignSuggested(r.Context(), id, req.Candidates)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{Task: output.NewTaskJSON(t), Recommendation: rec})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Stats(r.Context(), r.URL.Query().Get("assignee"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
