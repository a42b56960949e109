package timetable

import (
	"fmt"
	"strings"
)

// Weekday is a teaching day name as stored with schedule entries.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
)

// Weekdays lists the teaching days in scheduling order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekday normalises a day name, returning false when it is not a teaching day.
func ParseWeekday(raw string) (Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	for _, day := range Weekdays {
		if strings.ToLower(string(day)) == key {
			return day, true
		}
	}
	return "", false
}

// TimeBlock is one fixed 90 minute teaching window.
type TimeBlock struct {
	Start string
	End   string
}

// Range renders the block as stored on schedule entries, e.g. "08:00-09:30".
func (b TimeBlock) Range() string {
	return b.Start + "-" + b.End
}

// TimeBlocks lists the daily blocks in order. There is a lunch gap between 12:30 and 13:00.
var TimeBlocks = []TimeBlock{
	{Start: "08:00", End: "09:30"},
	{Start: "09:30", End: "11:00"},
	{Start: "11:00", End: "12:30"},
	{Start: "13:00", End: "14:30"},
	{Start: "14:30", End: "16:00"},
	{Start: "16:00", End: "17:30"},
}

// SessionType classifies a weekly teaching session.
type SessionType string

const (
	SessionLecture SessionType = "lecture"
	SessionLab     SessionType = "lab"
)

// RoomType classifies a physical room.
type RoomType string

const (
	RoomLecture RoomType = "lecture"
	RoomLab     RoomType = "lab"
)

// ParseSessionType accepts canonical names and the legacy "teorik" alias.
func ParseSessionType(raw string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lecture", "teorik", "theory":
		return SessionLecture, nil
	case "lab", "laboratory":
		return SessionLab, nil
	default:
		return "", fmt.Errorf("unknown session type %q", raw)
	}
}

// ParseRoomType accepts canonical names and the legacy "teorik" alias.
func ParseRoomType(raw string) (RoomType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "lecture", "teorik", "theory":
		return RoomLecture, nil
	case "lab", "laboratory":
		return RoomLab, nil
	default:
		return "", fmt.Errorf("unknown room type %q", raw)
	}
}

// FitsRoom reports whether a session of this type may be held in a room of the given type.
// Labs need a lab room; lectures may use any room.
func (t SessionType) FitsRoom(room RoomType) bool {
	switch t {
	case SessionLab:
		return room == RoomLab
	case SessionLecture:
		return room == RoomLecture || room == RoomLab
	default:
		return false
	}
}

// Session is one weekly block a course needs.
type Session struct {
	Type  SessionType `json:"type"`
	Hours int         `json:"hours"`
}

// DepartmentEnrollment is the number of students a department sends to a course.
type DepartmentEnrollment struct {
	Department   string `json:"department"`
	StudentCount int    `json:"student_count"`
}

// Course is an active course with everything the scheduler needs to place it.
type Course struct {
	ID           int64                  `json:"id"`
	Code         string                 `json:"code"`
	Name         string                 `json:"name"`
	TeacherID    *int64                 `json:"teacher_id"`
	Faculty      string                 `json:"faculty"`
	Level        string                 `json:"level"`
	TotalHours   int                    `json:"total_hours"`
	Sessions     []Session              `json:"sessions"`
	Departments  []DepartmentEnrollment `json:"departments"`
	Availability Availability           `json:"-"`
}

// StudentCount sums enrolments across departments.
func (c Course) StudentCount() int {
	total := 0
	for _, dept := range c.Departments {
		total += dept.StudentCount
	}
	return total
}

// Room is a bookable space.
type Room struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity"`
	Type     RoomType `json:"type"`
}

// Entry is one placed session.
type Entry struct {
	CourseID     int64       `json:"course_id"`
	RoomID       int64       `json:"classroom_id"`
	Day          Weekday     `json:"day"`
	TimeRange    string      `json:"time_range"`
	SessionType  SessionType `json:"session_type"`
	SessionHours int         `json:"session_hours"`
}

// Reason codes attached to unscheduled courses.
const (
	ReasonNoClassroom    = "no_classroom"
	ReasonNoSuitableSlot = "no_suitable_slot"
)

// UnscheduledCourse reports a course that could not be fully placed.
type UnscheduledCourse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	TotalHours   int    `json:"total_hours"`
	StudentCount int    `json:"student_count"`
	Reason       string `json:"reason"`
}

func unscheduledFrom(c Course, reason string) UnscheduledCourse {
	return UnscheduledCourse{
		ID:           c.ID,
		Name:         c.Name,
		Code:         c.Code,
		TotalHours:   c.TotalHours,
		StudentCount: c.StudentCount(),
		Reason:       reason,
	}
}
