package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/campus-timetable-api/internal/timetable"
)

// ScheduleRow is one exported timetable line.
type ScheduleRow struct {
	Day          string `csv:"day"`
	TimeRange    string `csv:"time_range"`
	CourseCode   string `csv:"course_code"`
	CourseName   string `csv:"course_name"`
	SessionType  string `csv:"session_type"`
	SessionHours int    `csv:"session_hours"`
	Classroom    string `csv:"classroom"`
	Teacher      string `csv:"teacher"`
	StudentCount int    `csv:"student_count"`
}

// ScheduleRows resolves placed entries against the dataset they were generated from.
func ScheduleRows(entries []timetable.Entry, dataset *Dataset) []ScheduleRow {
	courses := make(map[int64]timetable.Course, len(dataset.Courses))
	for _, c := range dataset.Courses {
		courses[c.ID] = c
	}
	rooms := make(map[int64]timetable.Room, len(dataset.Rooms))
	for _, r := range dataset.Rooms {
		rooms[r.ID] = r
	}

	rows := make([]ScheduleRow, 0, len(entries))
	for _, e := range entries {
		course := courses[e.CourseID]
		row := ScheduleRow{
			Day:          string(e.Day),
			TimeRange:    e.TimeRange,
			CourseCode:   course.Code,
			CourseName:   course.Name,
			SessionType:  string(e.SessionType),
			SessionHours: e.SessionHours,
			Classroom:    rooms[e.RoomID].Name,
			StudentCount: course.StudentCount(),
		}
		if course.TeacherID != nil {
			row.Teacher = strconv.FormatInt(*course.TeacherID, 10)
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteSchedule encodes rows as CSV with a header line.
func WriteSchedule(w io.Writer, rows []ScheduleRow, delim rune) error {
	writer := csv.NewWriter(w)
	if delim != 0 {
		writer.Comma = delim
	}
	return gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer))
}
