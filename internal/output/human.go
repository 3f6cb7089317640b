package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/stats"
	"github.com/abatilo/triage/internal/task"
)

const dateLayout = "2006-01-02"

// HumanFormatter formats output for human-readable terminal display.
// Colour follows fatih/color's NoColor detection.
type HumanFormatter struct {
	critical *color.Color
	high     *color.Color
	muted    *color.Color
	accent   *color.Color
	warn     *color.Color
	failure  *color.Color
}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{
		critical: color.New(color.FgRed, color.Bold),
		high:     color.New(color.FgYellow),
		muted:    color.New(color.Faint),
		accent:   color.New(color.FgCyan, color.Bold),
		warn:     color.New(color.FgYellow),
		failure:  color.New(color.FgRed),
	}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *task.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s] %s\n", f.accent.Sprint(t.ID), t.Title)
	fmt.Fprintf(&sb, "  Status:    %s\n", t.Status)
	fmt.Fprintf(&sb, "  Priority:  %s\n", f.priorityColor(t.Priority).Sprint(t.Priority))
	fmt.Fprintf(&sb, "  Category:  %s\n", orDash(t.Category))
	fmt.Fprintf(&sb, "  Type:      %s\n", orDash(t.Type))
	fmt.Fprintf(&sb, "  Estimate:  %gh\n", t.EstimatedHours)
	fmt.Fprintf(&sb, "  Assignee:  %s\n", orDash(t.Assignee))
	fmt.Fprintf(&sb, "  Created:   %s\n", t.CreatedAt.Format(dateLayout))
	fmt.Fprintf(&sb, "  Due:       %s (%d days)\n", t.DueDate.Format(dateLayout), t.ExpectedDays())

	if t.CompletedAt != nil {
		fmt.Fprintf(&sb, "  Completed: %s\n", t.CompletedAt.Format("2006-01-02 15:04"))
	}
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTaskList formats a list of tasks for display.
func (f *HumanFormatter) FormatTaskList(tasks []*task.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(f.formatTaskLine(t))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t *task.Task) string {
	statusIcon := f.statusIcon(t.Status)
	priorityMark := f.priorityColor(t.Priority).Sprint(f.priorityMark(t.Priority))
	assignee := ""
	if t.Assignee != "" {
		assignee = " @" + t.Assignee
	}
	details := f.muted.Sprintf("(%s/%s, %gh, due %s)", orDash(t.Category), orDash(t.Type),
		t.EstimatedHours, t.DueDate.Format(dateLayout))
	return fmt.Sprintf("%s %s [%s] %s %s%s\n", statusIcon, priorityMark, t.ID, t.Title, details, assignee)
}

func (f *HumanFormatter) statusIcon(s task.Status) string {
	switch s {
	case task.StatusToDo:
		return "[ ]"
	case task.StatusInProgress:
		return "[*]"
	case task.StatusCompleted:
		return "[X]"
	default:
		return "[?]"
	}
}

func (f *HumanFormatter) priorityMark(p task.Priority) string {
	switch p {
	case task.PriorityCritical:
		return "P0"
	case task.PriorityHigh:
		return "P1"
	case task.PriorityMedium:
		return "P2"
	case task.PriorityLow:
		return "P3"
	default:
		return "P?"
	}
}

func (f *HumanFormatter) priorityColor(p task.Priority) *color.Color {
	switch p {
	case task.PriorityCritical:
		return f.critical
	case task.PriorityHigh:
		return f.high
	default:
		return f.muted
	}
}

// FormatRecommendation shows the pick and the signals behind it.
func (f *HumanFormatter) FormatRecommendation(rec *assign.Recommendation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Suggested assignee for %s: %s (%s)\n", rec.TaskID, f.accent.Sprint(rec.Assignee), rec.Reason)
	if rec.Reason == assign.ReasonUnassigned {
		sb.WriteString("  No candidates to choose from.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "  Task:      %s/%s, %.2f h/day\n", orDash(rec.Category), orDash(rec.Type), rec.TargetHoursPerDay)
	fmt.Fprintf(&sb, "  Capacity:  %.2f h/day\n", rec.Capacity)
	experts := "none"
	if len(rec.Experts) > 0 {
		experts = strings.Join(rec.Experts, ", ")
	}
	fmt.Fprintf(&sb, "  Experts:   %s\n", experts)
	sb.WriteString("\n")

	width := 0
	for _, name := range rec.Roster {
		width = max(width, len(name))
	}
	for _, name := range rec.Roster {
		load := rec.Loads[name]
		projected := load.MeanHoursPerDay + rec.TargetHoursPerDay
		line := fmt.Sprintf("  %-*s  open %-3d mean %6.2f h/day  projected %6.2f", width, name,
			load.OpenTasks, load.MeanHoursPerDay, projected)
		if projected >= rec.Capacity {
			line += " " + f.warn.Sprint("over capacity")
		}
		if name == rec.Assignee {
			line = f.accent.Sprint("*") + line[1:]
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

// FormatStats renders the distributions as aligned columns.
func (f *HumanFormatter) FormatStats(s stats.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Tasks: %d  To Do: %d  High priority: %d\n", s.Total, s.ToDo, s.HighPriority)
	sections := []struct {
		title  string
		counts []stats.Count
	}{
		{"Status", s.ByStatus},
		{"Priority", s.ByPriority},
		{"Category", s.ByCategory},
		{"Type", s.ByType},
		{"Assignee", s.ByAssignee},
	}
	for _, sec := range sections {
		if len(sec.counts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s\n", f.accent.Sprint(sec.title))
		width := 0
		for _, c := range sec.counts {
			width = max(width, len(c.Value))
		}
		for _, c := range sec.counts {
			fmt.Fprintf(&sb, "  %-*s  %d\n", width, c.Value, c.N)
		}
	}
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("%s %s\n", f.failure.Sprint("Error:"), err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

