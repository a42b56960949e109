package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Course represents an active course row joined with its teacher's working hours.
type Course struct {
	ID           int64              `db:"id" json:"id"`
	Code         string             `db:"code" json:"code" validate:"required"`
	Name         string             `db:"name" json:"name" validate:"required"`
	TeacherID    *int64             `db:"teacher_id" json:"teacher_id,omitempty"`
	Faculty      string             `db:"faculty" json:"faculty"`
	Level        string             `db:"level" json:"level"`
	TotalHours   int                `db:"total_hours" json:"total_hours" validate:"gte=0"`
	IsActive     bool               `db:"is_active" json:"is_active"`
	WorkingHours types.NullJSONText `db:"working_hours" json:"-"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}

// CourseSession is one weekly session a course requires.
type CourseSession struct {
	ID       int64  `db:"id" json:"id"`
	CourseID int64  `db:"course_id" json:"course_id"`
	Type     string `db:"type" json:"type" validate:"required"`
	Hours    int    `db:"hours" json:"hours" validate:"gte=1"`
}

// CourseDepartment records how many students a department enrols in a course.
type CourseDepartment struct {
	ID           int64  `db:"id" json:"id"`
	CourseID     int64  `db:"course_id" json:"course_id"`
	Department   string `db:"department" json:"department" validate:"required"`
	StudentCount int    `db:"student_count" json:"student_count" validate:"gte=0"`
}
