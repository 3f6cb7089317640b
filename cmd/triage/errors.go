package main

import "fmt"

// InvalidDateError indicates a date flag that is not YYYY-MM-DD.
type InvalidDateError struct {
	Value string
}

func (e InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", e.Value)
}

// MissingAssigneeError indicates assign was called with neither a name nor --suggest.
type MissingAssigneeError struct {
	ID string
}

func (e MissingAssigneeError) Error() string {
	return fmt.Sprintf("assign %s: give a name or use --suggest", e.ID)
}

// MissingSecretError indicates a command that needs the API secret ran without one.
type MissingSecretError struct{}

func (e MissingSecretError) Error() string {
	return "TRIAGE_API_SECRET is not set"
}
