package assign

import "math"

// Unassigned is returned when the roster has no usable candidates.
const Unassigned = "Unassigned"

// DefaultCapacity is the daily-hour ceiling used when none is configured.
const DefaultCapacity = 10.0

// Reason explains which rule produced a Decision.
type Reason string

const (
	// ReasonExpert: least-loaded expert under capacity.
	ReasonExpert Reason = "expert"
	// ReasonWorkload: least-loaded roster member under capacity.
	ReasonWorkload Reason = "workload"
	// ReasonFallback: everyone was over capacity; first roster member.
	ReasonFallback Reason = "fallback"
	// ReasonUnassigned: empty roster.
	ReasonUnassigned Reason = "unassigned"
)

// RankInput carries everything the ranker looks at.
type RankInput struct {
	Roster            []string
	Experts           []string
	Loads             map[string]Load
	TargetHoursPerDay float64
	Capacity          float64
}

// Decision is the ranker's single pick.
type Decision struct {
	Assignee string
	Reason   Reason
}

// Rank picks one assignee. Experts are searched first, then the full roster;
// within a pool the candidate with strictly fewer open tasks wins, so ties go
// to whoever comes first. Candidates whose mean daily hours plus the target
// rate reach the capacity are skipped. When nobody fits, the first roster
// member is returned anyway.
func Rank(in RankInput) Decision {
	if len(in.Roster) == 0 {
		return Decision{Assignee: Unassigned, Reason: ReasonUnassigned}
	}

	if len(in.Experts) > 0 {
		if best, ok := leastLoaded(in.Experts, in); ok {
			return Decision{Assignee: best, Reason: ReasonExpert}
		}
	}
	if best, ok := leastLoaded(in.Roster, in); ok {
		return Decision{Assignee: best, Reason: ReasonWorkload}
	}
	return Decision{Assignee: in.Roster[0], Reason: ReasonFallback}
}

// leastLoaded scans pool in order and returns the first candidate with the
// lowest open-task count among those under capacity.
func leastLoaded(pool []string, in RankInput) (string, bool) {
	best := ""
	bestWorkload := math.Inf(1)
	for _, name := range pool {
		load := in.Loads[name]
		if load.MeanHoursPerDay+in.TargetHoursPerDay >= in.Capacity {
			continue
		}
		if workload := float64(load.OpenTasks); workload < bestWorkload {
			best, bestWorkload = name, workload
		}
	}
	return best, !math.IsInf(bestWorkload, 1)
}
