package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/haatos/simple-qa/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupScheduleRoutes(g *echo.Group, runService service.RunServicer) {
	h := NewScheduleHandler(runService)

	g.POST("/schedules", h.PostSchedule)
	g.GET("/schedules", h.GetSchedules)
	g.DELETE("/schedules/:schedule_id", h.DeleteSchedule)
}

func NewScheduleHandler(runService service.RunServicer) *ScheduleHandler {
	return &ScheduleHandler{runService}
}

type ScheduleHandler struct {
	runService service.RunServicer
}

func (h *ScheduleHandler) PostSchedule(c echo.Context) error {
	p := new(ScheduleParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid schedule parameters")
	}
	if p.CronExpression == "" {
		return newError(c, nil, http.StatusBadRequest, "cron_expression is required")
	}

	schedule, err := h.runService.CreateSchedule(
		c.Request().Context(), p.ReleaseID, p.Environment, p.CronExpression,
	)
	if err != nil {
		var envErr service.ErrUnknownEnvironment
		if errors.As(err, &envErr) {
			return newError(c, err, http.StatusBadRequest, envErr.Error())
		}
		return newError(c, err, http.StatusInternalServerError, "unable to create schedule")
	}
	return c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) GetSchedules(c echo.Context) error {
	schedules, err := h.runService.ListSchedules(c.Request().Context())
	if err != nil {
		return newError(c, err, http.StatusInternalServerError, "unable to list schedules")
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *ScheduleHandler) DeleteSchedule(c echo.Context) error {
	p := new(ScheduleParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "invalid schedule id")
	}

	if err := h.runService.RemoveSchedule(c.Request().Context(), p.ScheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(c, err, http.StatusNotFound, "schedule not found")
		}
		return newError(c, err, http.StatusInternalServerError, "unable to remove schedule")
	}
	return c.NoContent(http.StatusNoContent)
}
