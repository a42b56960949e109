package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type scheduleLister interface {
	List(ctx context.Context, query dto.ScheduleQuery) ([]models.ScheduleDetail, bool, error)
	DeleteByDays(ctx context.Context, req dto.DeleteSchedulesByDaysRequest) (*dto.DeleteSchedulesByDaysResponse, error)
}

// ScheduleHandler serves the stored timetable.
type ScheduleHandler struct {
	service scheduleLister
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List stored schedule entries
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param day query string false "Weekday (Monday-Friday)"
// @Param course_id query int false "Course ID"
// @Param classroom_id query int false "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	details, hit, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	internalmiddleware.SetCacheHit(c, hit)
	pagination := &models.Pagination{Page: 1, PageSize: len(details), TotalCount: len(details)}
	response.JSON(c, http.StatusOK, details, pagination, internalmiddleware.ExtractMeta(c))
}

// DeleteByDays godoc
// @Summary Delete stored entries for whole weekdays
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DeleteSchedulesByDaysRequest true "Days to clear"
// @Success 200 {object} response.Envelope
// @Router /schedules/days/delete [post]
func (h *ScheduleHandler) DeleteByDays(c *gin.Context) {
	var req dto.DeleteSchedulesByDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.DeleteByDays(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
