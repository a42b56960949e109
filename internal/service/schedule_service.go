package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type scheduleReader interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
	DeleteByDays(ctx context.Context, days []string) (int64, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Version(ctx context.Context, namespace string) string
	InvalidateNamespace(ctx context.Context, namespace string) error
}

// ScheduleService serves the stored timetable.
type ScheduleService struct {
	repo      scheduleReader
	cache     scheduleCache
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewScheduleService instantiates ScheduleService. cache may be nil.
func NewScheduleService(repo scheduleReader, cache scheduleCache, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, cache: cache, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// List returns stored entries matching the query, ordered by weekday then time range.
// The boolean reports whether the result came from cache.
func (s *ScheduleService) List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleDetail, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule filter")
	}
	filter := models.ScheduleFilter{CourseID: query.CourseID, ClassroomID: query.ClassroomID}
	if query.Day != "" {
		day, ok := timetable.ParseWeekday(query.Day)
		if !ok {
			return nil, false, appErrors.Clone(appErrors.ErrValidation, "day must be a weekday between Monday and Friday")
		}
		filter.Day = string(day)
	}

	var key string
	if s.cache != nil {
		if version := s.cache.Version(ctx, schedulesCacheNamespace); version != "" {
			key = Key(schedulesCacheNamespace, version, "list", filter.Day,
				strconv.FormatInt(filter.CourseID, 10), strconv.FormatInt(filter.ClassroomID, 10))
		}
	}
	if key != "" {
		var cached []models.ScheduleDetail
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if details == nil {
		details = []models.ScheduleDetail{}
	}
	if key != "" {
		_ = s.cache.Set(ctx, key, details, s.cacheTTL)
	}
	return details, false, nil
}

// DeleteByDays removes stored entries on the given weekdays.
func (s *ScheduleService) DeleteByDays(ctx context.Context, req dto.DeleteSchedulesByDaysRequest) (*dto.DeleteSchedulesByDaysResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "days are required")
	}

	seen := make(map[timetable.Weekday]struct{}, len(req.Days))
	days := make([]string, 0, len(req.Days))
	for _, raw := range req.Days {
		day, ok := timetable.ParseWeekday(raw)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown day "+strconv.Quote(raw))
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, string(day))
	}

	deleted, err := s.repo.DeleteByDays(ctx, days)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedules")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateNamespace(ctx, schedulesCacheNamespace); err != nil {
			s.logger.Warn("invalidate schedules cache", zap.Error(err))
		}
	}
	s.logger.Info("schedules deleted", zap.Strings("days", days), zap.Int64("deleted", deleted))
	return &dto.DeleteSchedulesByDaysResponse{Days: days, Deleted: deleted}, nil
}
