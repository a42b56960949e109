package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/repository"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
	"github.com/noah-isme/campus-timetable-api/pkg/storage"
)

type exportJobStoreStub struct {
	mu      sync.Mutex
	jobs    map[string]*models.ExportJob
	updates []repository.UpdateExportJobParams
}

func newExportJobStoreStub() *exportJobStoreStub {
	return &exportJobStoreStub{jobs: map[string]*models.ExportJob{}}
}

func (s *exportJobStoreStub) Create(_ context.Context, job *models.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == "" {
		job.ID = fmt.Sprintf("export-%d", len(s.jobs)+1)
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *exportJobStoreStub) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("get export job: %w", sql.ErrNoRows)
	}
	copied := *job
	return &copied, nil
}

func (s *exportJobStoreStub) Update(_ context.Context, id string, params repository.UpdateExportJobParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.updates = append(s.updates, params)
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

type scheduleDetailListerStub struct {
	details []models.ScheduleDetail
	filter  models.ScheduleFilter
	err     error
}

func (s *scheduleDetailListerStub) List(_ context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error) {
	s.filter = filter
	return s.details, s.err
}

func sampleDetails() []models.ScheduleDetail {
	teacher := "Dr. Ada"
	return []models.ScheduleDetail{
		{ID: 1, Day: "Monday", TimeRange: "08:00-09:30", SessionType: "lecture", SessionHours: 2, CourseCode: "CS101", CourseName: "Algorithms, Advanced", StudentCount: 40, TeacherName: &teacher, ClassroomName: "A101"},
		{ID: 2, Day: "Tuesday", TimeRange: "13:00-14:30", SessionType: "lab", SessionHours: 1, CourseCode: "CS101", CourseName: "Algorithms, Advanced", StudentCount: 40, ClassroomName: "LAB1"},
	}
}

func newTestExportService(t *testing.T, lister scheduleDetailLister) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(lister, store, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newTestExportService(t, &scheduleDetailListerStub{details: sampleDetails()})

	result, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{Format: models.ExportFormatCSV}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	content := string(body)
	assert.Contains(t, content, "day,time_range,course_code")
	assert.Contains(t, content, `"Algorithms, Advanced"`)
	assert.Contains(t, content, "Dr. Ada")
}

func TestExportServiceGeneratePDFForDay(t *testing.T) {
	lister := &scheduleDetailListerStub{details: sampleDetails()[:1]}
	svc := newTestExportService(t, lister)

	result, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-2", Params: models.ExportJobParams{Format: models.ExportFormatPDF, Day: "Monday"}})
	require.NoError(t, err)
	assert.Equal(t, "Monday", lister.filter.Day)
	assert.Contains(t, result.RelativePath, "timetable_monday_")

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	head := make([]byte, 4)
	_, err = io.ReadFull(file, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestExportServiceGenerateUnsupportedFormat(t *testing.T) {
	svc := newTestExportService(t, &scheduleDetailListerStub{})

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-3", Params: models.ExportJobParams{Format: "xlsx"}})
	assert.Error(t, err)
}

func TestScheduleGridPlacesCells(t *testing.T) {
	grid := scheduleGrid(sampleDetails(), "")

	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}, grid.Columns)
	assert.Len(t, grid.Rows, 6)
	assert.Equal(t, []string{"CS101 (lecture)", "A101"}, grid.Cells["08:00-09:30"]["Monday"])
	assert.Equal(t, []string{"CS101 (lab)", "LAB1"}, grid.Cells["13:00-14:30"]["Tuesday"])
}

func TestExportJobServiceCreateJob(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &dispatcherStub{}
	svc := NewExportJobService(store, queue, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Format: "PDF", Day: "friday"}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	assert.Equal(t, "pdf", resp.Format)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)

	stored, err := store.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Friday", stored.Params.Day)
	assert.Equal(t, "admin-1", stored.CreatedBy)
}

func TestExportJobServiceCreateJobValidation(t *testing.T) {
	svc := NewExportJobService(newExportJobStoreStub(), &dispatcherStub{}, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Format: "xlsx"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.CreateJob(context.Background(), dto.CreateExportRequest{Format: "csv", Day: "Sunday"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobServiceCreateJobQueueFailure(t *testing.T) {
	store := newExportJobStoreStub()
	svc := NewExportJobService(store, &dispatcherStub{err: jobs.ErrQueueFull}, nil, nil, ExportJobServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Format: "csv"}, "admin-1")
	require.Error(t, err)
	require.Len(t, store.updates, 1)
	assert.Equal(t, models.ExportStatusFailed, *store.updates[0].Status)
}

func TestExportJobServiceGetStatusOwnership(t *testing.T) {
	store := newExportJobStoreStub()
	require.NoError(t, store.Create(context.Background(), &models.ExportJob{ID: "job-1", CreatedBy: "admin-1", Status: models.ExportStatusQueued, Params: models.ExportJobParams{Format: models.ExportFormatCSV}}))
	svc := NewExportJobService(store, &dispatcherStub{}, nil, nil, ExportJobServiceConfig{})

	resp, err := svc.GetStatus(context.Background(), "job-1", "someone", models.RoleAdmin)
	require.NoError(t, err)
	assert.Nil(t, resp.DownloadURL)

	_, err = svc.GetStatus(context.Background(), "job-1", "teacher-1", models.RoleTeacher)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)

	_, err = svc.GetStatus(context.Background(), "missing", "admin-1", models.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Status, appErrors.FromError(err).Status)
}

func TestExportWorkerEndToEnd(t *testing.T) {
	store := newExportJobStoreStub()
	queue := &dispatcherStub{}
	exporter := newTestExportService(t, &scheduleDetailListerStub{details: sampleDetails()})
	svc := NewExportJobService(store, queue, exporter, nil, ExportJobServiceConfig{})
	worker := NewExportWorker(store, exporter, NewMetricsService(), 3, nil)

	created, err := svc.CreateJob(context.Background(), dto.CreateExportRequest{Format: "csv"}, "admin-1")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	status, err := svc.GetStatus(context.Background(), created.ID, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusFinished), status.Status)
	require.NotNil(t, status.DownloadURL)

	token := (*status.DownloadURL)[strings.LastIndex(*status.DownloadURL, "/")+1:]
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	_, err = svc.ResolveDownload(context.Background(), "bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)
}

func TestExportWorkerMarksFailedAfterRetries(t *testing.T) {
	store := newExportJobStoreStub()
	require.NoError(t, store.Create(context.Background(), &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, Params: models.ExportJobParams{Format: models.ExportFormatCSV}}))
	exporter := newTestExportService(t, &scheduleDetailListerStub{err: errors.New("db down")})
	worker := NewExportWorker(store, exporter, nil, 2, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	job, _ := store.GetByID(context.Background(), "job-1")
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	job, _ = store.GetByID(context.Background(), "job-1")
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "db down")
}
