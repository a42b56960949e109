package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

// CourseRepository reads the course catalogue used by the timetable generator.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListActive returns active courses with their teacher's working hours, ordered by id.
func (r *CourseRepository) ListActive(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT c.id, c.code, c.name, c.teacher_id, c.faculty, c.level, c.total_hours, c.is_active, t.working_hours, c.created_at
FROM courses c LEFT JOIN teachers t ON t.id = c.teacher_id
WHERE c.is_active = TRUE ORDER BY c.id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list active courses: %w", err)
	}
	return courses, nil
}

// ListSessions returns the sessions of the given courses.
func (r *CourseRepository) ListSessions(ctx context.Context, courseIDs []int64) ([]models.CourseSession, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, course_id, type, hours FROM course_sessions WHERE course_id = ANY($1) ORDER BY course_id ASC, id ASC`
	var sessions []models.CourseSession
	if err := r.db.SelectContext(ctx, &sessions, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list course sessions: %w", err)
	}
	return sessions, nil
}

// ListDepartments returns the department enrolments of the given courses.
func (r *CourseRepository) ListDepartments(ctx context.Context, courseIDs []int64) ([]models.CourseDepartment, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, course_id, department, student_count FROM course_departments WHERE course_id = ANY($1) ORDER BY course_id ASC, id ASC`
	var departments []models.CourseDepartment
	if err := r.db.SelectContext(ctx, &departments, query, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("list course departments: %w", err)
	}
	return departments, nil
}

// CountActive returns the number of active courses and the sessions they require.
func (r *CourseRepository) CountActive(ctx context.Context) (int, int, error) {
	const query = `SELECT COUNT(DISTINCT c.id) AS courses, COUNT(s.id) AS sessions
FROM courses c LEFT JOIN course_sessions s ON s.course_id = c.id
WHERE c.is_active = TRUE`
	var counts struct {
		Courses  int `db:"courses"`
		Sessions int `db:"sessions"`
	}
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return 0, 0, fmt.Errorf("count active courses: %w", err)
	}
	return counts.Courses, counts.Sessions, nil
}
