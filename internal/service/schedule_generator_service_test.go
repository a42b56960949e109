package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type courseCatalogueStub struct {
	courses     []models.Course
	sessions    []models.CourseSession
	departments []models.CourseDepartment
	err         error
}

func (s *courseCatalogueStub) ListActive(context.Context) ([]models.Course, error) {
	return s.courses, s.err
}

func (s *courseCatalogueStub) ListSessions(_ context.Context, ids []int64) ([]models.CourseSession, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.CourseSession
	for _, session := range s.sessions {
		if wanted[session.CourseID] {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *courseCatalogueStub) ListDepartments(context.Context, []int64) ([]models.CourseDepartment, error) {
	return s.departments, nil
}

func (s *courseCatalogueStub) CountActive(context.Context) (int, int, error) {
	return len(s.courses), len(s.sessions), s.err
}

type classroomListerStub struct {
	rooms []models.Classroom
}

func (s classroomListerStub) List(context.Context) ([]models.Classroom, error) {
	return s.rooms, nil
}

type scheduleStoreStub struct {
	replaced [][]models.Schedule
	execs    []sqlx.ExtContext
	count    int
	err      error
}

func (s *scheduleStoreStub) ReplaceAll(_ context.Context, exec sqlx.ExtContext, schedules []models.Schedule) error {
	if s.err != nil {
		return s.err
	}
	s.replaced = append(s.replaced, schedules)
	s.execs = append(s.execs, exec)
	return nil
}

func (s *scheduleStoreStub) Count(context.Context) (int, error) {
	return s.count, nil
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) InvalidateNamespace(_ context.Context, namespace string) error {
	s.patterns = append(s.patterns, namespace)
	return nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func int64Ptr(v int64) *int64 { return &v }

type generatorFixture struct {
	service *ScheduleGeneratorService
	store   *scheduleStoreStub
	cache   *cacheInvalidatorStub
	mock    sqlmock.Sqlmock
}

func newGeneratorFixture(t *testing.T, catalogue *courseCatalogueStub, rooms []models.Classroom, lock generationLocker) generatorFixture {
	t.Helper()
	tx, mock := newTxProviderMock(t)
	store := &scheduleStoreStub{}
	cache := &cacheInvalidatorStub{}
	svc := NewScheduleGeneratorService(catalogue, classroomListerStub{rooms: rooms}, store, tx, lock, cache, NewMetricsService(), nil, nil, ScheduleGeneratorConfig{})
	return generatorFixture{service: svc, store: store, cache: cache, mock: mock}
}

func sampleCatalogue() *courseCatalogueStub {
	return &courseCatalogueStub{
		courses: []models.Course{
			{ID: 1, Code: "CS101", Name: "Algorithms", TeacherID: int64Ptr(10), TotalHours: 3, IsActive: true},
			{ID: 2, Code: "CS102", Name: "Databases", TeacherID: int64Ptr(11), TotalHours: 3, IsActive: true,
				WorkingHours: types.NullJSONText{JSONText: types.JSONText(`{"Monday":["14:00"]}`), Valid: true}},
		},
		sessions: []models.CourseSession{
			{ID: 1, CourseID: 1, Type: "lecture", Hours: 2},
			{ID: 2, CourseID: 1, Type: "lab", Hours: 1},
			{ID: 3, CourseID: 2, Type: "teorik", Hours: 3},
		},
		departments: []models.CourseDepartment{
			{CourseID: 1, Department: "CS", StudentCount: 40},
			{CourseID: 2, Department: "CS", StudentCount: 30},
		},
	}
}

func sampleRooms() []models.Classroom {
	return []models.Classroom{
		{ID: 100, Name: "A101", Capacity: 60, Type: "lecture"},
		{ID: 200, Name: "LAB1", Capacity: 45, Type: "lab"},
	}
}

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	fx := newGeneratorFixture(t, sampleCatalogue(), sampleRooms(), repository.NewGenerationLock(nil, 0, nil))
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RunID)
	assert.True(t, resp.Success)
	assert.True(t, resp.Perfect)
	assert.Equal(t, 3, resp.ScheduledCount)
	assert.Equal(t, 100, resp.SuccessRate)

	require.Len(t, fx.store.replaced, 1)
	assert.Len(t, fx.store.replaced[0], 3)
	assert.NotNil(t, fx.store.execs[0], "replacement must run inside the transaction")
	assert.Equal(t, []string{schedulesCacheNamespace}, fx.cache.patterns)
	assert.NoError(t, fx.mock.ExpectationsWereMet())

	for _, entry := range resp.Schedule {
		if entry.CourseID == 2 {
			// Monday is skipped: the teacher is not free during the first block.
			assert.Equal(t, timetable.Tuesday, entry.Day)
			assert.Equal(t, "08:00-09:30", entry.TimeRange)
			assert.Equal(t, timetable.SessionLecture, entry.SessionType)
		}
	}
}

func TestScheduleGeneratorServiceGenerateNoCourses(t *testing.T) {
	fx := newGeneratorFixture(t, &courseCatalogueStub{}, sampleRooms(), nil)

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, timetable.MessageNoCourses, resp.Message)
	assert.Empty(t, fx.store.replaced, "short-circuit runs must not touch the stored schedule")
	assert.Empty(t, fx.cache.patterns)
}

func TestScheduleGeneratorServiceGenerateNoRooms(t *testing.T) {
	fx := newGeneratorFixture(t, sampleCatalogue(), nil, nil)

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, timetable.MessageNoRooms, resp.Message)
	assert.Equal(t, 2, resp.UnscheduledCount)
	for _, course := range resp.Unscheduled {
		assert.Equal(t, timetable.ReasonNoClassroom, course.Reason)
	}
	assert.Empty(t, fx.store.replaced)
}

func TestScheduleGeneratorServiceGenerateMalformedAvailabilityFailsOpen(t *testing.T) {
	catalogue := sampleCatalogue()
	catalogue.courses[1].WorkingHours = types.NullJSONText{JSONText: types.JSONText(`{not json`), Valid: true}
	fx := newGeneratorFixture(t, catalogue, sampleRooms(), nil)
	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, resp.ScheduledCount)
}

func TestScheduleGeneratorServiceGenerateRejectsUnknownRoomType(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Gym", Capacity: 100, Type: "sports"}}
	fx := newGeneratorFixture(t, sampleCatalogue(), rooms, nil)

	_, err := fx.service.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateRejectsInvalidCapacity(t *testing.T) {
	rooms := []models.Classroom{{ID: 1, Name: "Closet", Capacity: 0, Type: "lecture"}}
	fx := newGeneratorFixture(t, sampleCatalogue(), rooms, nil)

	_, err := fx.service.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Status, appErrors.FromError(err).Status)
}

func TestScheduleGeneratorServiceGenerateRollsBackOnStoreFailure(t *testing.T) {
	fx := newGeneratorFixture(t, sampleCatalogue(), sampleRooms(), nil)
	fx.store.err = errors.New("insert failed")
	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fx.cache.patterns)
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceGenerateInProgress(t *testing.T) {
	lock := repository.NewGenerationLock(nil, 0, nil)
	token, ok, err := lock.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer lock.Release(context.Background(), token)

	fx := newGeneratorFixture(t, sampleCatalogue(), sampleRooms(), lock)
	_, err = fx.service.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrGenerationInProgress.Status, appErrors.FromError(err).Status)
	assert.Empty(t, fx.store.replaced)
}

func TestScheduleGeneratorServiceGenerateReleasesLock(t *testing.T) {
	lock := repository.NewGenerationLock(nil, 0, nil)
	fx := newGeneratorFixture(t, &courseCatalogueStub{}, sampleRooms(), lock)

	_, err := fx.service.Generate(context.Background())
	require.NoError(t, err)
	_, err = fx.service.Generate(context.Background())
	require.NoError(t, err)
}

func TestScheduleGeneratorServiceStatus(t *testing.T) {
	fx := newGeneratorFixture(t, sampleCatalogue(), sampleRooms(), nil)
	fx.store.count = 2

	status, err := fx.service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalActiveCourses)
	assert.Equal(t, 3, status.TotalActiveSessions)
	assert.Equal(t, 2, status.ScheduledSessions)
	assert.Equal(t, 67, status.CompletionPercentage)
}

func TestScheduleGeneratorServiceStatusWithoutSessions(t *testing.T) {
	fx := newGeneratorFixture(t, &courseCatalogueStub{}, nil, nil)

	status, err := fx.service.Status(context.Background())
	require.NoError(t, err)
	assert.Zero(t, status.CompletionPercentage)
}
