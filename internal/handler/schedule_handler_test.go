package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/middleware"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type scheduleListerMock struct {
	details   []models.ScheduleDetail
	hit       bool
	query     dto.ScheduleQuery
	deleteReq dto.DeleteSchedulesByDaysRequest
	err       error
}

func (m *scheduleListerMock) List(_ context.Context, query dto.ScheduleQuery) ([]models.ScheduleDetail, bool, error) {
	m.query = query
	return m.details, m.hit, m.err
}

func (m *scheduleListerMock) DeleteByDays(_ context.Context, req dto.DeleteSchedulesByDaysRequest) (*dto.DeleteSchedulesByDaysResponse, error) {
	m.deleteReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DeleteSchedulesByDaysResponse{Days: req.Days, Deleted: 3}, nil
}

func TestScheduleHandlerListPassesFiltersAndCacheMeta(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleTeacher)
	mock := &scheduleListerMock{hit: true, details: []models.ScheduleDetail{{ID: 1, Day: "Monday", TimeRange: "08:00-09:30"}}}
	h := &ScheduleHandler{service: mock}
	router.GET("/schedules", jwt, h.List)

	w := doRequest(router, http.MethodGet, "/schedules?day=Monday&course_id=4", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ScheduleQuery{Day: "Monday", CourseID: 4}, mock.query)

	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	var details []models.ScheduleDetail
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Len(t, details, 1)
}

func TestScheduleHandlerListRejectsBadQuery(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleTeacher)
	router.GET("/schedules", jwt, (&ScheduleHandler{service: &scheduleListerMock{}}).List)

	w := doRequest(router, http.MethodGet, "/schedules?course_id=abc", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerListServiceError(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleTeacher)
	mock := &scheduleListerMock{err: appErrors.Clone(appErrors.ErrValidation, "day must be a weekday between Monday and Friday")}
	router.GET("/schedules", jwt, (&ScheduleHandler{service: mock}).List)

	w := doRequest(router, http.MethodGet, "/schedules?day=Sunday", token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerDeleteByDays(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleAdmin)
	mock := &scheduleListerMock{}
	router.POST("/schedules/days/delete", jwt, middleware.RequireRoles(models.RoleAdmin), (&ScheduleHandler{service: mock}).DeleteByDays)

	w := doRequest(router, http.MethodPost, "/schedules/days/delete", token, `{"days":["Monday","Friday"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"Monday", "Friday"}, mock.deleteReq.Days)

	var resp dto.DeleteSchedulesByDaysResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &resp))
	assert.Equal(t, int64(3), resp.Deleted)
}

func TestScheduleHandlerDeleteByDaysRejectsMalformedBody(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleAdmin)
	router.POST("/schedules/days/delete", jwt, (&ScheduleHandler{service: &scheduleListerMock{}}).DeleteByDays)

	w := doRequest(router, http.MethodPost, "/schedules/days/delete", token, `{"days":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerDeleteByDaysForbiddenForTeachers(t *testing.T) {
	router, jwt, token := newTestAPI(t, models.RoleTeacher)
	mock := &scheduleListerMock{}
	router.POST("/schedules/days/delete", jwt, middleware.RequireRoles(models.RoleAdmin), (&ScheduleHandler{service: mock}).DeleteByDays)

	w := doRequest(router, http.MethodPost, "/schedules/days/delete", token, `{"days":["Monday"]}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, mock.deleteReq.Days)
}
