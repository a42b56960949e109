// Package csvio reads timetable input from CSV files and writes generated schedules back out.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/campus-timetable-api/internal/timetable"
)

// Input file names expected inside a dataset directory.
const (
	CoursesFile      = "courses.csv"
	SessionsFile     = "sessions.csv"
	EnrollmentsFile  = "enrollments.csv"
	RoomsFile        = "rooms.csv"
	AvailabilityFile = "availability.csv"
)

// CourseRow is one line of courses.csv. teacher_id may be empty; an empty or
// missing is_active column counts as active.
type CourseRow struct {
	ID         int64  `csv:"id"`
	Code       string `csv:"code"`
	Name       string `csv:"name"`
	TeacherID  string `csv:"teacher_id"`
	Faculty    string `csv:"faculty"`
	Level      string `csv:"level"`
	TotalHours int    `csv:"total_hours"`
	IsActive   string `csv:"is_active"`
}

func (r CourseRow) active() (bool, error) {
	raw := strings.TrimSpace(r.IsActive)
	if raw == "" {
		return true, nil
	}
	return strconv.ParseBool(raw)
}

// SessionRow is one line of sessions.csv.
type SessionRow struct {
	CourseID int64  `csv:"course_id"`
	Type     string `csv:"type"`
	Hours    int    `csv:"hours"`
}

// EnrollmentRow is one line of enrollments.csv.
type EnrollmentRow struct {
	CourseID     int64  `csv:"course_id"`
	Department   string `csv:"department"`
	StudentCount int    `csv:"student_count"`
}

// RoomRow is one line of rooms.csv.
type RoomRow struct {
	ID       int64  `csv:"id"`
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
	Type     string `csv:"type"`
}

// AvailabilityRow is one line of availability.csv. free_from holds space separated HH:MM markers.
type AvailabilityRow struct {
	TeacherID int64  `csv:"teacher_id"`
	Day       string `csv:"day"`
	FreeFrom  string `csv:"free_from"`
}

// Dataset is engine input assembled from a directory of CSV files.
type Dataset struct {
	Courses []timetable.Course
	Rooms   []timetable.Room
}

// Loader reads CSV files separated by Delim.
type Loader struct {
	Delim rune
}

// NewLoader returns a loader for the given delimiter. Zero means comma.
func NewLoader(delim rune) *Loader {
	if delim == 0 {
		delim = ','
	}
	return &Loader{Delim: delim}
}

// LoadDir reads a dataset directory. courses, sessions and rooms are required;
// enrollments and availability are optional.
func (l *Loader) LoadDir(dir string) (*Dataset, error) {
	var courses []CourseRow
	if err := l.readFile(filepath.Join(dir, CoursesFile), &courses, true); err != nil {
		return nil, err
	}
	var sessions []SessionRow
	if err := l.readFile(filepath.Join(dir, SessionsFile), &sessions, true); err != nil {
		return nil, err
	}
	var rooms []RoomRow
	if err := l.readFile(filepath.Join(dir, RoomsFile), &rooms, true); err != nil {
		return nil, err
	}
	var enrollments []EnrollmentRow
	if err := l.readFile(filepath.Join(dir, EnrollmentsFile), &enrollments, false); err != nil {
		return nil, err
	}
	var availability []AvailabilityRow
	if err := l.readFile(filepath.Join(dir, AvailabilityFile), &availability, false); err != nil {
		return nil, err
	}
	return Build(courses, sessions, enrollments, rooms, availability)
}

// Read decodes CSV from r into out, a pointer to a slice of row structs.
func (l *Loader) Read(r io.Reader, out interface{}) error {
	reader := csv.NewReader(r)
	reader.Comma = l.Delim
	reader.TrimLeadingSpace = true
	return gocsv.UnmarshalCSV(reader, out)
}

func (l *Loader) readFile(path string, out interface{}, required bool) error {
	f, err := os.Open(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := l.Read(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil
		}
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Build assembles engine courses and rooms from parsed rows.
func Build(courseRows []CourseRow, sessionRows []SessionRow, enrollmentRows []EnrollmentRow, roomRows []RoomRow, availabilityRows []AvailabilityRow) (*Dataset, error) {
	markers := make(map[int64]map[string][]string)
	for _, row := range availabilityRows {
		days, ok := markers[row.TeacherID]
		if !ok {
			days = make(map[string][]string)
			markers[row.TeacherID] = days
		}
		days[row.Day] = append(days[row.Day], strings.Fields(row.FreeFrom)...)
	}

	sessions := make(map[int64][]timetable.Session)
	for i, row := range sessionRows {
		sessionType, err := timetable.ParseSessionType(row.Type)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", SessionsFile, i+2, err)
		}
		sessions[row.CourseID] = append(sessions[row.CourseID], timetable.Session{Type: sessionType, Hours: row.Hours})
	}

	enrollments := make(map[int64][]timetable.DepartmentEnrollment)
	for _, row := range enrollmentRows {
		enrollments[row.CourseID] = append(enrollments[row.CourseID], timetable.DepartmentEnrollment{
			Department:   row.Department,
			StudentCount: row.StudentCount,
		})
	}

	dataset := &Dataset{
		Courses: make([]timetable.Course, 0, len(courseRows)),
		Rooms:   make([]timetable.Room, 0, len(roomRows)),
	}
	for i, row := range courseRows {
		active, err := row.active()
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid is_active %q", CoursesFile, i+2, row.IsActive)
		}
		if !active {
			continue
		}
		course := timetable.Course{
			ID:           row.ID,
			Code:         row.Code,
			Name:         row.Name,
			Faculty:      row.Faculty,
			Level:        row.Level,
			TotalHours:   row.TotalHours,
			Sessions:     sessions[row.ID],
			Departments:  enrollments[row.ID],
			Availability: timetable.Unrestricted(),
		}
		if raw := strings.TrimSpace(row.TeacherID); raw != "" {
			teacherID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: invalid teacher_id %q", CoursesFile, i+2, row.TeacherID)
			}
			course.TeacherID = &teacherID
			if days, ok := markers[teacherID]; ok {
				course.Availability = timetable.NewAvailability(days)
			}
		}
		dataset.Courses = append(dataset.Courses, course)
	}

	for i, row := range roomRows {
		roomType, err := timetable.ParseRoomType(row.Type)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", RoomsFile, i+2, err)
		}
		dataset.Rooms = append(dataset.Rooms, timetable.Room{ID: row.ID, Name: row.Name, Capacity: row.Capacity, Type: roomType})
	}
	return dataset, nil
}
