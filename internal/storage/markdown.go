package storage

import (
	"bytes"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abatilo/triage/internal/task"
)

const frontmatterDelimiter = "---"

// taskFrontmatter is the YAML-serializable portion of a task.
type taskFrontmatter struct {
	ID             string        `yaml:"id"`
	Title          string        `yaml:"title"`
	Status         task.Status   `yaml:"status"`
	Priority       task.Priority `yaml:"priority,omitempty"`
	Category       string        `yaml:"category,omitempty"`
	Type           string        `yaml:"type,omitempty"`
	Assignee       string        `yaml:"assignee,omitempty"`
	EstimatedHours float64       `yaml:"estimated_hours"`
	CreatedAt      string        `yaml:"created_at"`
	DueDate        string        `yaml:"due_date"`
	CompletedAt    *string       `yaml:"completed_at,omitempty"`
}

// ParseMarkdown parses a markdown file with YAML frontmatter into a Task.
func ParseMarkdown(content []byte) (*task.Task, error) {
	lines := strings.Split(string(content), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return nil, &parseError{"missing YAML frontmatter"}
	}

	var frontmatterEnd int
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterDelimiter {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == 0 {
		return nil, &parseError{"unclosed YAML frontmatter"}
	}

	var fm taskFrontmatter
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:frontmatterEnd], "\n")), &fm); err != nil {
		return nil, &parseError{"invalid YAML: " + err.Error()}
	}

	createdAt, err := parseTime(fm.CreatedAt)
	if err != nil {
		return nil, &parseError{"invalid created_at: " + err.Error()}
	}
	dueDate, err := parseTime(fm.DueDate)
	if err != nil {
		return nil, &parseError{"invalid due_date: " + err.Error()}
	}

	var completedAt *time.Time
	if fm.CompletedAt != nil {
		t, err := parseTime(*fm.CompletedAt)
		if err != nil {
			return nil, &parseError{"invalid completed_at: " + err.Error()}
		}
		completedAt = &t
	}

	var description string
	if frontmatterEnd+1 < len(lines) {
		description = strings.TrimSpace(strings.Join(lines[frontmatterEnd+1:], "\n"))
	}

	return &task.Task{
		ID:             fm.ID,
		Title:          fm.Title,
		Description:    description,
		Category:       fm.Category,
		Type:           fm.Type,
		Status:         fm.Status,
		Priority:       fm.Priority,
		CreatedAt:      createdAt,
		DueDate:        dueDate,
		CompletedAt:    completedAt,
		EstimatedHours: fm.EstimatedHours,
		Assignee:       fm.Assignee,
	}, nil
}

// SerializeMarkdown converts a Task to markdown with YAML frontmatter.
func SerializeMarkdown(t *task.Task) ([]byte, error) {
	fm := taskFrontmatter{
		ID:             t.ID,
		Title:          t.Title,
		Status:         t.Status,
		Priority:       t.Priority,
		Category:       t.Category,
		Type:           t.Type,
		Assignee:       t.Assignee,
		EstimatedHours: t.EstimatedHours,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		DueDate:        t.DueDate.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		fm.CompletedAt = &s
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.WriteString(frontmatterDelimiter + "\n")

	if t.Description != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Description)
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

type parseError struct {
	msg string
}

func (e *parseError) Error() string {
	return e.msg
}

// parseTime accepts RFC3339 as written by SerializeMarkdown plus the plain
// date and datetime layouts found in spreadsheet exports.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		time.DateTime,
		time.DateOnly,
	}
	s = strings.TrimSpace(s)
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &parseError{"unrecognized time format " + s}
}
