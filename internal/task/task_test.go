//nolint:testpackage // Tests require internal access for thorough testing
package task

import (
	"testing"
	"time"
)

func TestIsValidStatus(t *testing.T) {
	tests := []struct {
		status Status
		valid  bool
	}{
		{StatusToDo, true},
		{StatusInProgress, true},
		{StatusCompleted, true},
		{Status("To Do"), false},
		{Status(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := IsValidStatus(tt.status); got != tt.valid {
				t.Errorf("IsValidStatus(%q) = %v, want %v", tt.status, got, tt.valid)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"todo", StatusToDo, true},
		{"To Do", StatusToDo, true},
		{"in progress", StatusInProgress, true},
		{"In-Progress", StatusInProgress, true},
		{"Completed", StatusCompleted, true},
		{"done", StatusCompleted, true},
		{"archived", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsValidPriority(t *testing.T) {
	tests := []struct {
		priority Priority
		valid    bool
	}{
		{PriorityCritical, true},
		{PriorityHigh, true},
		{PriorityMedium, true},
		{PriorityLow, true},
		{Priority("urgent"), false},
		{Priority(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			if got := IsValidPriority(tt.priority); got != tt.valid {
				t.Errorf("IsValidPriority(%q) = %v, want %v", tt.priority, got, tt.valid)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	if p, ok := ParsePriority(" High "); !ok || p != PriorityHigh {
		t.Errorf("ParsePriority(\" High \") = (%q, %v), want (high, true)", p, ok)
	}
	if _, ok := ParsePriority("P0"); ok {
		t.Error("ParsePriority(\"P0\") should be invalid")
	}
}

func TestPriorityOrder(t *testing.T) {
	if PriorityOrder(PriorityCritical) >= PriorityOrder(PriorityHigh) {
		t.Error("Critical should have lower order than High")
	}
	if PriorityOrder(PriorityHigh) >= PriorityOrder(PriorityMedium) {
		t.Error("High should have lower order than Medium")
	}
	if PriorityOrder(PriorityMedium) >= PriorityOrder(PriorityLow) {
		t.Error("Medium should have lower order than Low")
	}
}

func TestHoursPerDay(t *testing.T) {
	created := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		due      time.Time
		hours    float64
		wantDays int
		wantRate float64
		wantOK   bool
	}{
		{"four day span", created.AddDate(0, 0, 4), 8, 4, 2, true},
		{"same day", created, 5, 0, 0, false},
		{"partial day floors to zero", created.Add(20 * time.Hour), 5, 0, 0, false},
		{"due before created", created.AddDate(0, 0, -2), 5, -2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &Task{CreatedAt: created, DueDate: tt.due, EstimatedHours: tt.hours}
			if got := tk.ExpectedDays(); got != tt.wantDays {
				t.Errorf("ExpectedDays() = %d, want %d", got, tt.wantDays)
			}
			rate, ok := tk.HoursPerDay()
			if rate != tt.wantRate || ok != tt.wantOK {
				t.Errorf("HoursPerDay() = (%v, %v), want (%v, %v)", rate, ok, tt.wantRate, tt.wantOK)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	now := time.Now()

	id := GenerateID("Test task", now, func(_ string) bool { return false })
	if len(id) != minIDLength {
		t.Errorf("ID length = %d, want %d (%s)", len(id), minIDLength, id)
	}

	// A taken prefix forces a longer ID.
	taken := map[string]bool{}
	calls := 0
	existsFn := func(candidate string) bool {
		calls++
		if calls == 1 {
			taken[candidate] = true
			return true
		}
		return taken[candidate]
	}
	grown := GenerateID("Test", now, existsFn)
	if len(grown) != minIDLength+1 {
		t.Errorf("ID length after collision = %d, want %d", len(grown), minIDLength+1)
	}
}

func TestValidID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"abc123", true},
		{"7", true},
		{"TASK_01-b", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{"../x", false},
		{`a\b`, false},
		{"a.md", false},
		{"a b", false},
	}

	for _, tt := range tests {
		if got := ValidID(tt.id); got != tt.valid {
			t.Errorf("ValidID(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}
