package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/csvio"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	"github.com/noah-isme/campus-timetable-api/pkg/export"
	"github.com/noah-isme/campus-timetable-api/pkg/storage"
)

type scheduleDetailLister interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows interface{}) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders the stored timetable and persists the files.
type ExportService struct {
	schedules scheduleDetailLister
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules scheduleDetailLister, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		schedules: schedules,
		storage:   storage,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the timetable described by job and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	details, err := s.schedules.List(ctx, models.ScheduleFilter{Day: job.Params.Day})
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(scheduleRows(details))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(scheduleGrid(details, job.Params.Day))
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	scope := "week"
	if job.Params.Day != "" {
		scope = strings.ToLower(job.Params.Day)
	}
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s_%s.%s", scope, timestamp, shortID(job.ID), job.Params.Format)
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "na"
	}
	return id
}

func scheduleRows(details []models.ScheduleDetail) []csvio.ScheduleRow {
	rows := make([]csvio.ScheduleRow, 0, len(details))
	for _, d := range details {
		teacher := ""
		if d.TeacherName != nil {
			teacher = *d.TeacherName
		}
		rows = append(rows, csvio.ScheduleRow{
			Day:          d.Day,
			TimeRange:    d.TimeRange,
			CourseCode:   d.CourseCode,
			CourseName:   d.CourseName,
			SessionType:  d.SessionType,
			SessionHours: d.SessionHours,
			Classroom:    d.ClassroomName,
			Teacher:      teacher,
			StudentCount: d.StudentCount,
		})
	}
	return rows
}

func scheduleGrid(details []models.ScheduleDetail, day string) export.Grid {
	grid := export.Grid{
		Title:   "Weekly Timetable",
		Caption: fmt.Sprintf("Generated %s, %d sessions", time.Now().UTC().Format("2006-01-02 15:04 MST"), len(details)),
		Cells:   make(map[string]map[string][]string),
	}
	if day != "" {
		grid.Title = "Timetable " + day
		grid.Columns = []string{day}
	} else {
		for _, d := range timetable.Weekdays {
			grid.Columns = append(grid.Columns, string(d))
		}
	}
	for _, block := range timetable.TimeBlocks {
		grid.Rows = append(grid.Rows, block.Range())
	}

	for _, d := range details {
		row, ok := grid.Cells[d.TimeRange]
		if !ok {
			row = make(map[string][]string)
			grid.Cells[d.TimeRange] = row
		}
		row[d.Day] = append(row[d.Day], fmt.Sprintf("%s (%s)", d.CourseCode, d.SessionType), d.ClassroomName)
	}
	return grid
}
