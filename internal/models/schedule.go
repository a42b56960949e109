package models

import "time"

// Schedule is one stored timetable entry.
type Schedule struct {
	ID           int64     `db:"id" json:"id"`
	CourseID     int64     `db:"course_id" json:"course_id"`
	ClassroomID  int64     `db:"classroom_id" json:"classroom_id"`
	Day          string    `db:"day" json:"day"`
	TimeRange    string    `db:"time_range" json:"time_range"`
	SessionType  string    `db:"session_type" json:"session_type"`
	SessionHours int       `db:"session_hours" json:"session_hours"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ScheduleDetail is a stored entry joined with its course, teacher and classroom.
type ScheduleDetail struct {
	ID                int64   `db:"id" json:"id"`
	Day               string  `db:"day" json:"day"`
	TimeRange         string  `db:"time_range" json:"time_range"`
	SessionType       string  `db:"session_type" json:"session_type"`
	SessionHours      int     `db:"session_hours" json:"session_hours"`
	CourseID          int64   `db:"course_id" json:"course_id"`
	CourseCode        string  `db:"course_code" json:"course_code"`
	CourseName        string  `db:"course_name" json:"course_name"`
	CourseTotalHours  int     `db:"course_total_hours" json:"course_total_hours"`
	StudentCount      int     `db:"student_count" json:"student_count"`
	TeacherID         *int64  `db:"teacher_id" json:"teacher_id,omitempty"`
	TeacherName       *string `db:"teacher_name" json:"teacher_name,omitempty"`
	ClassroomID       int64   `db:"classroom_id" json:"classroom_id"`
	ClassroomName     string  `db:"classroom_name" json:"classroom_name"`
	ClassroomType     string  `db:"classroom_type" json:"classroom_type"`
	ClassroomCapacity int     `db:"classroom_capacity" json:"classroom_capacity"`
}

// ScheduleFilter narrows stored schedule listings.
type ScheduleFilter struct {
	Day         string
	CourseID    int64
	ClassroomID int64
}
