package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/campus-timetable-api/internal/models"
)

const scheduleDetailColumns = `s.id, s.day, s.time_range, s.session_type, s.session_hours,
c.id AS course_id, c.code AS course_code, c.name AS course_name, c.total_hours AS course_total_hours,
COALESCE((SELECT SUM(d.student_count) FROM course_departments d WHERE d.course_id = c.id), 0) AS student_count,
c.teacher_id, t.name AS teacher_name,
r.id AS classroom_id, r.name AS classroom_name, r.type AS classroom_type, r.capacity AS classroom_capacity`

// ScheduleRepository persists the generated timetable.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ReplaceAll deletes every stored entry and inserts the given ones. Pass a transaction to make it atomic.
func (r *ScheduleRepository) ReplaceAll(ctx context.Context, exec sqlx.ExtContext, schedules []models.Schedule) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM schedules`); err != nil {
		return fmt.Errorf("clear schedules: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO schedules (course_id, classroom_id, day, time_range, session_type, session_hours, created_at)
VALUES (:course_id, :classroom_id, :day, :time_range, :session_type, :session_hours, :created_at)`
	for i := range schedules {
		payload := schedules[i]
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, insert, &payload); err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		schedules[i] = payload
	}
	return nil
}

// List returns stored entries joined with course, teacher and classroom, ordered by weekday then time range.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("s.day = $%d", len(args)+1))
		args = append(args, filter.Day)
	}
	if filter.CourseID > 0 {
		conditions = append(conditions, fmt.Sprintf("s.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.ClassroomID > 0 {
		conditions = append(conditions, fmt.Sprintf("s.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}

	query := "SELECT " + scheduleDetailColumns + `
FROM schedules s
JOIN courses c ON c.id = s.course_id
LEFT JOIN teachers t ON t.id = c.teacher_id
JOIN classrooms r ON r.id = s.classroom_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY array_position(ARRAY['Monday','Tuesday','Wednesday','Thursday','Friday'], s.day) ASC, s.time_range ASC, s.id ASC`

	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return details, nil
}

// Count returns the number of stored entries.
func (r *ScheduleRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM schedules`); err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	return total, nil
}

// DeleteByDays removes stored entries for the given weekdays and returns how many were deleted.
func (r *ScheduleRepository) DeleteByDays(ctx context.Context, days []string) (int64, error) {
	if len(days) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE day = ANY($1)`, pq.Array(days))
	if err != nil {
		return 0, fmt.Errorf("delete schedules by days: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedules by days: %w", err)
	}
	return affected, nil
}
