package dto

import (
	"time"

	"github.com/noah-isme/campus-timetable-api/internal/timetable"
)

// GenerateScheduleResponse is the generation summary plus run metadata.
type GenerateScheduleResponse struct {
	timetable.Result
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// SchedulerStatus reports how much of the active course load is stored in the timetable.
type SchedulerStatus struct {
	TotalActiveCourses   int `json:"total_active_courses"`
	TotalActiveSessions  int `json:"total_active_sessions"`
	ScheduledSessions    int `json:"scheduled_sessions"`
	CompletionPercentage int `json:"completion_percentage"`
}

// ScheduleQuery filters stored schedule listings.
type ScheduleQuery struct {
	Day         string `form:"day" json:"day"`
	CourseID    int64  `form:"course_id" json:"course_id" validate:"gte=0"`
	ClassroomID int64  `form:"classroom_id" json:"classroom_id" validate:"gte=0"`
}

// DeleteSchedulesByDaysRequest removes stored entries for whole weekdays.
type DeleteSchedulesByDaysRequest struct {
	Days []string `json:"days" validate:"required,min=1,dive,required"`
}

// DeleteSchedulesByDaysResponse reports how many entries were removed.
type DeleteSchedulesByDaysResponse struct {
	Days    []string `json:"days"`
	Deleted int64    `json:"deleted"`
}
