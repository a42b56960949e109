package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/middleware/requestid"
)

const (
	schedulesCacheNamespace = "schedules"
)

type courseCatalogue interface {
	ListActive(ctx context.Context) ([]models.Course, error)
	ListSessions(ctx context.Context, courseIDs []int64) ([]models.CourseSession, error)
	ListDepartments(ctx context.Context, courseIDs []int64) ([]models.CourseDepartment, error)
	CountActive(ctx context.Context) (int, int, error)
}

type classroomLister interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type scheduleStore interface {
	ReplaceAll(ctx context.Context, exec sqlx.ExtContext, schedules []models.Schedule) error
	Count(ctx context.Context) (int, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationLocker interface {
	TryAcquire(ctx context.Context) (string, bool, error)
	Release(ctx context.Context, token string) error
}

type cacheInvalidator interface {
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// ScheduleGeneratorConfig governs generator behaviour.
type ScheduleGeneratorConfig struct {
	PerBlockAvailability bool
}

// ScheduleGeneratorService runs the timetable engine against the stored catalogue and persists the result.
type ScheduleGeneratorService struct {
	courses   courseCatalogue
	rooms     classroomLister
	schedules scheduleStore
	tx        txProvider
	lock      generationLocker
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ScheduleGeneratorConfig
	now       func() time.Time
}

// NewScheduleGeneratorService wires scheduler dependencies.
func NewScheduleGeneratorService(
	courses courseCatalogue,
	rooms classroomLister,
	schedules scheduleStore,
	tx txProvider,
	lock generationLocker,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleGeneratorConfig,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGeneratorService{
		courses:   courses,
		rooms:     rooms,
		schedules: schedules,
		tx:        tx,
		lock:      lock,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Generate builds a fresh timetable and replaces the stored one.
func (s *ScheduleGeneratorService) Generate(ctx context.Context) (*dto.GenerateScheduleResponse, error) {
	started := s.now()
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID), zap.String("request_id", requestid.FromContext(ctx)))

	if s.lock != nil {
		token, ok, err := s.lock.TryAcquire(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
		}
		if !ok {
			return nil, appErrors.ErrGenerationInProgress
		}
		defer func() {
			if err := s.lock.Release(context.Background(), token); err != nil {
				log.Warn("release generation lock", zap.Error(err))
			}
		}()
	}

	log.Info("timetable generation started")
	result, outcome, err := s.run(ctx, log)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.metrics.ObserveGeneration("failed", nil, elapsed)
		log.Error("timetable generation failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, err
	}
	s.metrics.ObserveGeneration(string(outcome), &result, elapsed)

	log.Info("timetable generation finished",
		zap.String("outcome", string(outcome)),
		zap.Int("scheduled", result.ScheduledCount),
		zap.Int("unscheduled", result.UnscheduledCount),
		zap.Int("success_rate", result.SuccessRate),
		zap.Duration("duration", elapsed),
	)

	return &dto.GenerateScheduleResponse{
		Result:      result,
		RunID:       runID,
		GeneratedAt: started.UTC(),
		DurationMS:  elapsed.Milliseconds(),
	}, nil
}

func (s *ScheduleGeneratorService) run(ctx context.Context, log *zap.Logger) (timetable.Result, timetable.Outcome, error) {
	loadStarted := s.now()
	courses, err := s.loadCourses(ctx, log)
	if err != nil {
		return timetable.Result{}, "", err
	}
	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return timetable.Result{}, "", err
	}
	s.metrics.ObserveDBQuery("load_catalogue", s.now().Sub(loadStarted))
	log.Debug("catalogue loaded",
		zap.Int("courses", len(courses)),
		zap.Int("rooms", len(rooms)),
		zap.Int("restricted_availability", timetable.CountRestricted(courses)),
	)
	if err := timetable.Validate(courses, rooms); err != nil {
		return timetable.Result{}, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	plan := timetable.Generate(courses, rooms, timetable.Options{PerBlockAvailability: s.cfg.PerBlockAvailability})
	result := timetable.Report(plan)
	if plan.Outcome != timetable.OutcomeScheduled {
		return result, plan.Outcome, nil
	}

	persistStarted := s.now()
	if err := s.persist(ctx, plan.Entries); err != nil {
		return timetable.Result{}, "", err
	}
	s.metrics.ObserveDBQuery("replace_schedule", s.now().Sub(persistStarted))
	if s.cache != nil {
		if err := s.cache.InvalidateNamespace(ctx, schedulesCacheNamespace); err != nil {
			log.Warn("invalidate schedules cache", zap.Error(err))
		}
	}
	return result, plan.Outcome, nil
}

func (s *ScheduleGeneratorService) loadCourses(ctx context.Context, log *zap.Logger) ([]timetable.Course, error) {
	rows, err := s.courses.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	sessions, err := s.courses.ListSessions(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course sessions")
	}
	departments, err := s.courses.ListDepartments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course departments")
	}

	for _, row := range rows {
		if err := s.validator.Struct(row); err != nil {
			return nil, invalidRecord("course", row.ID, err)
		}
	}

	sessionsByCourse := make(map[int64][]timetable.Session, len(rows))
	for _, session := range sessions {
		if err := s.validator.Struct(session); err != nil {
			return nil, invalidRecord("course session", session.ID, err)
		}
		sessionType, err := timetable.ParseSessionType(session.Type)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		sessionsByCourse[session.CourseID] = append(sessionsByCourse[session.CourseID], timetable.Session{Type: sessionType, Hours: session.Hours})
	}
	departmentsByCourse := make(map[int64][]timetable.DepartmentEnrollment, len(rows))
	for _, dept := range departments {
		if err := s.validator.Struct(dept); err != nil {
			return nil, invalidRecord("course department", dept.ID, err)
		}
		departmentsByCourse[dept.CourseID] = append(departmentsByCourse[dept.CourseID], timetable.DepartmentEnrollment{
			Department:   dept.Department,
			StudentCount: dept.StudentCount,
		})
	}

	// Teachers usually carry several courses; parse each working-hours blob once.
	availability := make(map[int64]timetable.Availability)
	courses := make([]timetable.Course, 0, len(rows))
	for _, row := range rows {
		course := timetable.Course{
			ID:           row.ID,
			Code:         row.Code,
			Name:         row.Name,
			TeacherID:    row.TeacherID,
			Faculty:      row.Faculty,
			Level:        row.Level,
			TotalHours:   row.TotalHours,
			Sessions:     sessionsByCourse[row.ID],
			Departments:  departmentsByCourse[row.ID],
			Availability: timetable.Unrestricted(),
		}
		if row.TeacherID != nil {
			parsed, ok := availability[*row.TeacherID]
			if !ok {
				parsed, err = timetable.ParseAvailability([]byte(row.WorkingHours.JSONText))
				if err != nil {
					log.Warn("teacher working hours unreadable, treating as unrestricted",
						zap.Int64("teacher_id", *row.TeacherID), zap.Error(err))
				}
				availability[*row.TeacherID] = parsed
			}
			course.Availability = parsed
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func (s *ScheduleGeneratorService) loadRooms(ctx context.Context) ([]timetable.Room, error) {
	rows, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	rooms := make([]timetable.Room, 0, len(rows))
	for _, row := range rows {
		if err := s.validator.Struct(row); err != nil {
			return nil, invalidRecord("classroom", row.ID, err)
		}
		roomType, err := timetable.ParseRoomType(row.Type)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		rooms = append(rooms, timetable.Room{ID: row.ID, Name: row.Name, Capacity: row.Capacity, Type: roomType})
	}
	return rooms, nil
}

func invalidRecord(kind string, id int64, err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s %d", kind, id))
}

func (s *ScheduleGeneratorService) persist(ctx context.Context, entries []timetable.Entry) (err error) {
	records := make([]models.Schedule, 0, len(entries))
	for _, entry := range entries {
		records = append(records, models.Schedule{
			CourseID:     entry.CourseID,
			ClassroomID:  entry.RoomID,
			Day:          string(entry.Day),
			TimeRange:    entry.TimeRange,
			SessionType:  string(entry.SessionType),
			SessionHours: entry.SessionHours,
		})
	}

	if s.tx == nil {
		if err := s.schedules.ReplaceAll(ctx, nil, records); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
		}
		return nil
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.schedules.ReplaceAll(ctx, tx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
	}
	return nil
}

// Status reports how much of the active catalogue the stored timetable covers.
func (s *ScheduleGeneratorService) Status(ctx context.Context) (*dto.SchedulerStatus, error) {
	courses, sessions, err := s.courses.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	scheduled, err := s.schedules.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedules")
	}
	status := &dto.SchedulerStatus{
		TotalActiveCourses:  courses,
		TotalActiveSessions: sessions,
		ScheduledSessions:   scheduled,
	}
	if sessions > 0 {
		status.CompletionPercentage = int(math.Round(float64(scheduled) / float64(sessions) * 100))
	}
	return status, nil
}

