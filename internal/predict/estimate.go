package predict

import (
	"math"
	"time"

	"github.com/abatilo/triage/internal/task"
)

// HoursEstimator predicts the effort of a task in hours.
type HoursEstimator struct {
	model HoursModel
}

// Model returns the hours a task of this category and type takes according to
// the bundle alone.
func (e *HoursEstimator) Model(category, taskType string) float64 {
	hours, ok := e.model.Category[category]
	if !ok {
		hours = e.model.Default
	}
	if factor, ok := e.model.TypeFactor[taskType]; ok {
		hours *= factor
	}
	return math.Max(hours, e.model.Minimum)
}

// Estimate blends the model with the user's own estimate. A positive user
// estimate is averaged with the model; otherwise the model stands alone.
// Results are rounded to one decimal.
func (e *HoursEstimator) Estimate(category, taskType string, userHours float64) float64 {
	model := e.Model(category, taskType)
	if userHours > 0 {
		return round1((model + userHours) / 2)
	}
	return round1(model)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Features are the inputs of the priority rules.
type Features struct {
	ExpectedDays int
	HoursPerDay  float64
	Overdue      bool
}

// FeaturesOf derives Features from t. A zero-day span counts as one day so
// that same-day tasks still get a rate.
func FeaturesOf(t *task.Task, now time.Time) Features {
	days := t.ExpectedDays()
	divisor := days
	if divisor == 0 {
		divisor = 1
	}
	return Features{
		ExpectedDays: days,
		HoursPerDay:  t.EstimatedHours / float64(divisor),
		Overdue:      t.DueDate.Before(now),
	}
}

// PriorityPredictor assigns a priority from a task's schedule pressure.
type PriorityPredictor struct {
	model PriorityModel
}

// Predict returns the priority of the first matching rule, or the default.
func (p *PriorityPredictor) Predict(t *task.Task, now time.Time) task.Priority {
	f := FeaturesOf(t, now)
	for _, r := range p.model.Rules {
		if r.matches(f) {
			return r.Priority
		}
	}
	return p.model.Default
}

func (r PriorityRule) matches(f Features) bool {
	if r.Overdue != nil && *r.Overdue != f.Overdue {
		return false
	}
	if r.MinHoursPerDay != nil && f.HoursPerDay < *r.MinHoursPerDay {
		return false
	}
	if r.MaxExpectedDays != nil && f.ExpectedDays > *r.MaxExpectedDays {
		return false
	}
	return true
}
