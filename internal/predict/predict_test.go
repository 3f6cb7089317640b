package predict_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abatilo/triage/internal/predict"
	"github.com/abatilo/triage/internal/task"
)

func defaultModels(t *testing.T) *predict.Models {
	t.Helper()
	m, err := predict.Default()
	require.NoError(t, err)
	return m
}

func TestLoad(t *testing.T) {
	m, err := predict.Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Version())

	_, err = predict.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "model.yaml")
	bundle := `
version: 7
categories:
  default: Other
  labels:
    - name: Chore
      keywords: [tidy]
types:
  default: Misc
  labels:
    - name: Misc
      keywords: []
hours:
  default: 2
priority:
  default: medium
`
	require.NoError(t, os.WriteFile(path, []byte(bundle), 0o600))
	m, err = predict.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Version())

	category, taskType := m.Classifier.Classify("Tidy the garage")
	assert.Equal(t, "Chore", category)
	assert.Equal(t, "Misc", taskType)
	assert.Equal(t, task.PriorityMedium, m.Priority.Predict(&task.Task{}, time.Time{}))
}

func TestParseRejectsInvalidBundles(t *testing.T) {
	tests := []struct {
		name   string
		bundle string
	}{
		{"not yaml", "categories: [unterminated"},
		{"no labels", "categories: {default: X}\ntypes: {default: Y, labels: [{name: Y}]}\nhours: {default: 1}\npriority: {default: low}"},
		{"no default label", "categories: {labels: [{name: X}]}\ntypes: {default: Y, labels: [{name: Y}]}\nhours: {default: 1}\npriority: {default: low}"},
		{"no default hours", "categories: {default: X, labels: [{name: X}]}\ntypes: {default: Y, labels: [{name: Y}]}\npriority: {default: low}"},
		{"bad default priority", "categories: {default: X, labels: [{name: X}]}\ntypes: {default: Y, labels: [{name: Y}]}\nhours: {default: 1}\npriority: {default: urgent}"},
		{"bad rule priority", "categories: {default: X, labels: [{name: X}]}\ntypes: {default: Y, labels: [{name: Y}]}\nhours: {default: 1}\npriority: {default: low, rules: [{priority: P0}]}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := predict.Parse([]byte(tt.bundle))
			assert.Error(t, err)
		})
	}
}

func TestTokens(t *testing.T) {
	m := defaultModels(t)

	assert.Equal(t, []string{"fix", "bug", "v"}, m.Classifier.Tokens("Fix 2 bugs!!! in v1.2"))
	assert.Equal(t, []string{"crash", "page"}, m.Classifier.Tokens("CRASHES, Pages"))
	assert.Equal(t, []string{"css", "class"}, m.Classifier.Tokens("the CSS class"))
	assert.Empty(t, m.Classifier.Tokens("the and of 42"))
}

func TestClassify(t *testing.T) {
	m := defaultModels(t)

	tests := []struct {
		text         string
		wantCategory string
		wantType     string
	}{
		{"Login button crashes on Safari", "Bug", "UI"},
		{"Write README guide for the API", "Documentation", "Backend"},
		{"Optimize slow SQL query on orders table", "Improvement", "Database"},
		{"Add flaky test retries to the CI pipeline", "Feature", "DevOps"},
		{"", "Feature", "Backend"},
		{"lorem ipsum dolor", "Feature", "Backend"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			category, taskType := m.Classifier.Classify(tt.text)
			assert.Equal(t, tt.wantCategory, category)
			assert.Equal(t, tt.wantType, taskType)
		})
	}
}

func TestEstimate(t *testing.T) {
	m := defaultModels(t)

	tests := []struct {
		name     string
		category string
		taskType string
		user     float64
		want     float64
	}{
		{"model only", "Bug", "UI", 0, 3.6},
		{"blended with user estimate", "Bug", "UI", 5, 4.3},
		{"negative user estimate ignored", "Bug", "UI", -3, 3.6},
		{"unknown labels use defaults", "Chore", "Misc", 0, 6},
		{"type factor applied", "Feature", "Database", 0, 12},
		{"blend rounds to one decimal", "Documentation", "Testing", 1, 1.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Hours.Estimate(tt.category, tt.taskType, tt.user), 1e-9)
		})
	}
}

func TestEstimateMinimum(t *testing.T) {
	bundle := `
categories: {default: X, labels: [{name: X}]}
types: {default: Y, labels: [{name: Y}]}
hours: {default: 1, minimum: 0.5, category: {X: 1}, type_factor: {Y: 0.1}}
priority: {default: low}
`
	m, err := predict.Parse([]byte(bundle))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.Hours.Estimate("X", "Y", 0), 1e-9)
}

func TestPredictPriority(t *testing.T) {
	m := defaultModels(t)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		created time.Time
		due     time.Time
		hours   float64
		want    task.Priority
	}{
		{"relaxed", now, now.AddDate(0, 0, 10), 5, task.PriorityLow},
		{"steady", now, now.AddDate(0, 0, 10), 20, task.PriorityMedium},
		{"busy", now, now.AddDate(0, 0, 10), 45, task.PriorityHigh},
		{"full days", now, now.AddDate(0, 0, 10), 80, task.PriorityCritical},
		{"overdue", now.AddDate(0, 0, -2), now.AddDate(0, 0, -1), 1, task.PriorityCritical},
		{"same day counts as one day", now, now.Add(3 * time.Hour), 9, task.PriorityCritical},
		{"due tomorrow", now, now.AddDate(0, 0, 1), 1, task.PriorityHigh},
		{"due this week", now, now.AddDate(0, 0, 3), 1, task.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := &task.Task{CreatedAt: tt.created, DueDate: tt.due, EstimatedHours: tt.hours}
			assert.Equal(t, tt.want, m.Priority.Predict(tk, now))
		})
	}
}

func TestFeaturesOf(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	f := predict.FeaturesOf(&task.Task{CreatedAt: now, DueDate: now, EstimatedHours: 6}, now)
	assert.Equal(t, predict.Features{ExpectedDays: 0, HoursPerDay: 6, Overdue: false}, f)

	f = predict.FeaturesOf(&task.Task{CreatedAt: now, DueDate: now.AddDate(0, 0, 4), EstimatedHours: 6}, now.AddDate(0, 0, 5))
	assert.Equal(t, predict.Features{ExpectedDays: 4, HoursPerDay: 1.5, Overdue: true}, f)
}
