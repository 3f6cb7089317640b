//nolint:testpackage // Tests require internal access for thorough testing
package output

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/task"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleTask() *task.Task {
	created := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return &task.Task{
		ID:             "k3f9",
		Title:          "Login button crashes",
		Description:    "Safari only.",
		Category:       "Bug",
		Type:           "UI",
		Status:         task.StatusToDo,
		Priority:       task.PriorityHigh,
		CreatedAt:      created,
		DueDate:        created.AddDate(0, 0, 3),
		EstimatedHours: 3.6,
		Assignee:       "dave",
	}
}

func sampleRecommendation() *assign.Recommendation {
	return &assign.Recommendation{
		TaskID:            "k3f9",
		Category:          "Bug",
		Type:              "UI",
		Assignee:          "dave",
		Reason:            assign.ReasonWorkload,
		Roster:            []string{"carol", "dave"},
		Experts:           []string{"carol"},
		ExpertiseSignal:   true,
		TargetHoursPerDay: 1,
		Capacity:          10,
		Loads: map[string]assign.Load{
			"carol": {OpenTasks: 1, MeanHoursPerDay: 10, Samples: 1},
			"dave":  {OpenTasks: 1, MeanHoursPerDay: 0.1, Samples: 1},
		},
	}
}

func TestHumanFormatTask(t *testing.T) {
	got := NewHumanFormatter().FormatTask(sampleTask())

	for _, want := range []string{
		"[k3f9] Login button crashes\n",
		"  Priority:  high\n",
		"  Category:  Bug\n",
		"  Estimate:  3.6h\n",
		"  Assignee:  dave\n",
		"  Due:       2025-06-05 (3 days)\n",
		"\nSafari only.\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatTask() missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Completed:") {
		t.Errorf("FormatTask() shows completion for an open task:\n%s", got)
	}
}

func TestHumanFormatTaskList(t *testing.T) {
	f := NewHumanFormatter()

	if got := f.FormatTaskList(nil); got != "No tasks found.\n" {
		t.Errorf("FormatTaskList(nil) = %q", got)
	}

	unassigned := sampleTask()
	unassigned.Assignee = ""
	unassigned.Category = ""
	unassigned.Status = task.StatusCompleted

	got := f.FormatTaskList([]*task.Task{sampleTask(), unassigned})
	want := "[ ] P1 [k3f9] Login button crashes (Bug/UI, 3.6h, due 2025-06-05) @dave\n" +
		"[X] P1 [k3f9] Login button crashes (-/UI, 3.6h, due 2025-06-05)\n"
	if got != want {
		t.Errorf("FormatTaskList() =\n%s\nwant\n%s", got, want)
	}
}

func TestHumanFormatRecommendation(t *testing.T) {
	got := NewHumanFormatter().FormatRecommendation(sampleRecommendation())

	for _, want := range []string{
		"Suggested assignee for k3f9: dave (workload)\n",
		"  Experts:   carol\n",
		"  carol  open 1   mean  10.00 h/day  projected  11.00 over capacity\n",
		"* dave   open 1   mean   0.10 h/day  projected   1.10\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatRecommendation() missing %q in:\n%s", want, got)
		}
	}

	empty := NewHumanFormatter().FormatRecommendation(&assign.Recommendation{
		TaskID: "k3f9", Assignee: assign.Unassigned, Reason: assign.ReasonUnassigned,
	})
	if !strings.Contains(empty, "No candidates") {
		t.Errorf("FormatRecommendation(unassigned) = %q", empty)
	}
}

func TestHumanFormatStats(t *testing.T) {
	got := NewHumanFormatter().FormatStats(stats.Summarize([]*task.Task{sampleTask()}))

	for _, want := range []string{
		"Tasks: 1  To Do: 1  High priority: 1\n",
		"\nStatus\n  todo  1\n",
		"\nAssignee\n  dave  1\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("FormatStats() missing %q in:\n%s", want, got)
		}
	}
}

func TestHumanFormatError(t *testing.T) {
	if got := NewHumanFormatter().FormatError(errors.New("boom")); got != "Error: boom\n" {
		t.Errorf("FormatError() = %q", got)
	}
}

func TestJSONFormatTask(t *testing.T) {
	var got TaskJSON
	if err := json.Unmarshal([]byte(NewJSONFormatter().FormatTask(sampleTask())), &got); err != nil {
		t.Fatalf("FormatTask() is not JSON: %v", err)
	}

	if got.ID != "k3f9" || got.Category != "Bug" || got.Assignee != "dave" {
		t.Errorf("FormatTask() = %+v", got)
	}
	if got.DueDate != "2025-06-05T00:00:00Z" || got.ExpectedDays != 3 {
		t.Errorf("due = %s, expected_days = %d", got.DueDate, got.ExpectedDays)
	}
	if got.CompletedAt != nil {
		t.Errorf("completed_at = %v, want nil", *got.CompletedAt)
	}
}

func TestJSONFormatTaskListEmpty(t *testing.T) {
	if got := NewJSONFormatter().FormatTaskList(nil); got != "[]\n" {
		t.Errorf("FormatTaskList(nil) = %q, want []", got)
	}
}

func TestJSONFormatRecommendation(t *testing.T) {
	out := NewJSONFormatter().FormatRecommendation(sampleRecommendation())

	var got struct {
		Assignee string                 `json:"assignee"`
		Reason   string                 `json:"reason"`
		Loads    map[string]assign.Load `json:"loads"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("FormatRecommendation() is not JSON: %v", err)
	}
	if got.Assignee != "dave" || got.Reason != "workload" {
		t.Errorf("FormatRecommendation() = %+v", got)
	}
	if got.Loads["carol"].OpenTasks != 1 {
		t.Errorf("carol load = %+v", got.Loads["carol"])
	}
}

func TestJSONFormatErrorAndMessage(t *testing.T) {
	f := NewJSONFormatter()
	if got := f.FormatError(errors.New("boom")); got != "{\n  \"error\": \"boom\"\n}\n" {
		t.Errorf("FormatError() = %q", got)
	}
	if got := f.FormatMessage("ok"); got != "{\n  \"message\": \"ok\"\n}\n" {
		t.Errorf("FormatMessage() = %q", got)
	}
}
