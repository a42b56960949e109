package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context) (*dto.GenerateScheduleResponse, error)
	Status(ctx context.Context) (*dto.SchedulerStatus, error)
}

// ScheduleGeneratorHandler exposes scheduler endpoints.
type ScheduleGeneratorHandler struct {
	service scheduleGenerator
}

// NewScheduleGeneratorHandler constructs the handler.
func NewScheduleGeneratorHandler(svc *service.ScheduleGeneratorService) *ScheduleGeneratorHandler {
	return &ScheduleGeneratorHandler{service: svc}
}

// Generate godoc
// @Summary Generate the weekly timetable
// @Description Rebuilds the timetable from all active courses and classrooms and replaces the stored schedule. Infeasible runs still return 200 with success=false.
// @Tags Scheduler
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduler/generate [post]
func (h *ScheduleGeneratorHandler) Generate(c *gin.Context) {
	result, err := h.service.Generate(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Timetable coverage
// @Tags Scheduler
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /scheduler/status [get]
func (h *ScheduleGeneratorHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
