//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	"fmt"
	"time"
)

// NotInitializedError indicates the task store has not been created yet.
type NotInitializedError struct{}

func (e NotInitializedError) Error() string {
	return "triage not initialized: run 'triage init' first"
}

// AlreadyInitializedError indicates the task store already exists.
type AlreadyInitializedError struct{}

func (e AlreadyInitializedError) Error() string {
	return "triage already initialized"
}

// TaskNotFoundError indicates the task ID doesn't match any record.
type TaskNotFoundError struct {
	ID string
}

func (e TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// AlreadyExistsError indicates an ID collision.
type AlreadyExistsError struct {
	ID string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("task already exists: %s", e.ID)
}

// MissingTargetTaskError is returned by the assignment engine when the task
// to recommend for is not part of the snapshot it was given.
type MissingTargetTaskError struct {
	ID string
}

func (e MissingTargetTaskError) Error() string {
	return fmt.Sprintf("cannot recommend an assignee: task %s is not in the store", e.ID)
}

// InvalidStatusError indicates an unknown status value, or a task in the
// wrong status for the operation when Expected is set.
type InvalidStatusError struct {
	ID       string
	Current  string
	Expected string
}

func (e InvalidStatusError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("invalid status: %s (valid: todo, in_progress, completed)", e.Current)
	}
	return fmt.Sprintf("task %s has status '%s', expected '%s'", e.ID, e.Current, e.Expected)
}

// InvalidPriorityError indicates an invalid priority value.
type InvalidPriorityError struct {
	Value string
}

func (e InvalidPriorityError) Error() string {
	return fmt.Sprintf("invalid priority: %s (valid: critical, high, medium, low)", e.Value)
}

// InvalidDueDateError indicates a due date before the creation day.
type InvalidDueDateError struct {
	Due     time.Time
	Created time.Time
}

func (e InvalidDueDateError) Error() string {
	return fmt.Sprintf("due date %s is before %s", e.Due.Format(time.DateOnly), e.Created.Format(time.DateOnly))
}

// MissingContentError indicates a task was submitted without title and description.
type MissingContentError struct{}

func (e MissingContentError) Error() string {
	return "a title or a description is required"
}

// NotInRepoError indicates the command was run outside a git repository.
type NotInRepoError struct{}

func (e NotInRepoError) Error() string {
	return "not in a git repository"
}

// WriterLockedError indicates another process holds the write lease.
type WriterLockedError struct {
	Holder string
	Since  time.Time
}

func (e WriterLockedError) Error() string {
	return fmt.Sprintf("task store is locked by writer %s since %s", e.Holder, e.Since.Format(time.RFC3339))
}

// InvalidRecordError indicates a stored or imported record could not be decoded.
type InvalidRecordError struct {
	Source string
	Reason string
}

func (e InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.Source, e.Reason)
}
