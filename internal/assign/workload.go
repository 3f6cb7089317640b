package assign

import "github.com/abatilo/triage/internal/task"

// Load is the derived workload of one assignee.
type Load struct {
	// OpenTasks counts tasks in status todo assigned to the assignee.
	OpenTasks int `json:"open_tasks"`
	// MeanHoursPerDay averages the daily rate of those tasks. Tasks whose
	// span is zero or negative contribute no sample.
	MeanHoursPerDay float64 `json:"mean_hours_per_day"`
	// Samples is the number of tasks that contributed to the mean.
	Samples int `json:"samples"`
}

// Workloads derives a Load for every assignee with open tasks, plus a zero
// Load for every roster member without any.
func Workloads(tasks []*task.Task, roster []string) map[string]Load {
	type acc struct {
		open    int
		sum     float64
		samples int
	}

	byAssignee := make(map[string]*acc)
	for _, t := range tasks {
		if !t.IsAssignable() || t.Assignee == "" {
			continue
		}
		a := byAssignee[t.Assignee]
		if a == nil {
			a = &acc{}
			byAssignee[t.Assignee] = a
		}
		a.open++
		if rate, ok := t.HoursPerDay(); ok {
			a.sum += rate
			a.samples++
		}
	}

	loads := make(map[string]Load, len(byAssignee)+len(roster))
	for name, a := range byAssignee {
		l := Load{OpenTasks: a.open, Samples: a.samples}
		if a.samples > 0 {
			l.MeanHoursPerDay = a.sum / float64(a.samples)
		}
		loads[name] = l
	}
	for _, name := range roster {
		if _, ok := loads[name]; !ok {
			loads[name] = Load{}
		}
	}
	return loads
}
