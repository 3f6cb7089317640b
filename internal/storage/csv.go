package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/task"
)

// CSVColumns is the column order of the spreadsheet export.
var CSVColumns = []string{
	"task_id", "title", "created_at", "due_date", "status", "description",
	"category", "type", "priority", "estimated_hours", "assignee",
}

// ReadCSV decodes tasks from a CSV export. Columns are matched by header name
// and may appear in any order; task_id and title are required.
func ReadCSV(r io.Reader) ([]*task.Task, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, triageerrors.InvalidRecordError{Source: "csv header", Reason: err.Error()}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"task_id", "title"} {
		if _, ok := index[required]; !ok {
			return nil, triageerrors.InvalidRecordError{Source: "csv header", Reason: "missing column " + required}
		}
	}

	var tasks []*task.Task
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, triageerrors.InvalidRecordError{Source: fmt.Sprintf("csv line %d", line), Reason: err.Error()}
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			v := strings.TrimSpace(record[i])
			if strings.EqualFold(v, "nan") {
				return ""
			}
			return v
		}

		t, err := taskFromCSV(field)
		if err != nil {
			return nil, triageerrors.InvalidRecordError{Source: fmt.Sprintf("csv line %d", line), Reason: err.Error()}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func taskFromCSV(field func(string) string) (*task.Task, error) {
	t := &task.Task{
		ID:          field("task_id"),
		Title:       field("title"),
		Description: field("description"),
		Category:    field("category"),
		Type:        field("type"),
		Assignee:    field("assignee"),
		Status:      task.StatusToDo,
	}
	if t.ID == "" {
		return nil, &parseError{"empty task_id"}
	}
	// Spreadsheet tools sometimes write integer IDs as floats.
	t.ID = strings.TrimSuffix(t.ID, ".0")
	if !task.ValidID(t.ID) {
		return nil, &parseError{fmt.Sprintf("invalid task_id %q", t.ID)}
	}

	var err error
	if v := field("created_at"); v != "" {
		if t.CreatedAt, err = parseTime(v); err != nil {
			return nil, err
		}
	}
	if v := field("due_date"); v != "" {
		if t.DueDate, err = parseTime(v); err != nil {
			return nil, err
		}
	}
	if v := field("status"); v != "" {
		status, ok := task.ParseStatus(v)
		if !ok {
			return nil, triageerrors.InvalidStatusError{Current: v}
		}
		t.Status = status
	}
	if v := field("priority"); v != "" {
		priority, ok := task.ParsePriority(v)
		if !ok {
			return nil, triageerrors.InvalidPriorityError{Value: v}
		}
		t.Priority = priority
	}
	if v := field("estimated_hours"); v != "" {
		if t.EstimatedHours, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, &parseError{"invalid estimated_hours " + v}
		}
		if t.EstimatedHours < 0 {
			return nil, &parseError{"negative estimated_hours " + v}
		}
	}
	return t, nil
}

// WriteCSV encodes tasks in CSVColumns order.
func WriteCSV(w io.Writer, tasks []*task.Task) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVColumns); err != nil {
		return err
	}
	for _, t := range tasks {
		record := []string{
			t.ID,
			t.Title,
			t.CreatedAt.Format(time.RFC3339),
			t.DueDate.Format(time.RFC3339),
			string(t.Status),
			t.Description,
			t.Category,
			t.Type,
			string(t.Priority),
			strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64),
			t.Assignee,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created  int
	Replaced int
}

// ImportCSV stores every task from r. Tasks whose ID already exists replace
// the stored version.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult
	if err := s.ensureInitialized(ctx); err != nil {
		return result, err
	}

	tasks, err := ReadCSV(r)
	if err != nil {
		return result, err
	}

	for _, t := range tasks {
		exists, err := s.Exists(ctx, t.ID)
		if err != nil {
			return result, err
		}
		if err = s.Save(ctx, t); err != nil {
			return result, err
		}
		if exists {
			result.Replaced++
		} else {
			result.Created++
		}
	}
	return result, nil
}

// ExportCSV writes every task in scan order.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	tasks, err := s.Scan(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, tasks)
}
