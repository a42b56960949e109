package timetable

import (
	"fmt"
	"math"
)

// Messages reported for the short-circuit outcomes.
const (
	MessageNoCourses = "no active courses to schedule"
	MessageNoRooms   = "no classrooms available"
)

// Result is the summary returned to callers after a generation run.
type Result struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	ScheduledCount   int                 `json:"scheduled_count"`
	UnscheduledCount int                 `json:"unscheduled_count"`
	SuccessRate      int                 `json:"success_rate"`
	Schedule         []Entry             `json:"schedule"`
	Unscheduled      []UnscheduledCourse `json:"unscheduled"`
	Perfect          bool                `json:"perfect"`
}

// Summarize computes counts, success rate and message for a completed run.
func Summarize(entries []Entry, unscheduled []UnscheduledCourse, totalSessions int) Result {
	if entries == nil {
		entries = []Entry{}
	}
	if unscheduled == nil {
		unscheduled = []UnscheduledCourse{}
	}
	scheduled := len(entries)
	result := Result{
		Success:          scheduled > 0,
		ScheduledCount:   scheduled,
		UnscheduledCount: len(unscheduled),
		SuccessRate:      successRate(scheduled, totalSessions),
		Schedule:         entries,
		Unscheduled:      unscheduled,
		Perfect:          len(unscheduled) == 0,
	}
	if scheduled > 0 {
		result.Message = fmt.Sprintf("%d sessions scheduled successfully", scheduled)
	} else {
		result.Message = "no sessions could be scheduled"
	}
	return result
}

// Report turns a plan into a result, including the short-circuit outcomes.
func Report(plan Plan) Result {
	switch plan.Outcome {
	case OutcomeNoCourses:
		return Result{
			Message:     MessageNoCourses,
			Schedule:    []Entry{},
			Unscheduled: []UnscheduledCourse{},
		}
	case OutcomeNoRooms:
		unscheduled := plan.Unscheduled
		if unscheduled == nil {
			unscheduled = []UnscheduledCourse{}
		}
		return Result{
			Message:          MessageNoRooms,
			UnscheduledCount: len(unscheduled),
			Schedule:         []Entry{},
			Unscheduled:      unscheduled,
		}
	default:
		return Summarize(plan.Entries, plan.Unscheduled, plan.TotalSessions)
	}
}

func successRate(scheduled, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(scheduled) / float64(total) * 100))
}
