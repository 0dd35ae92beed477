// Package portal exposes the read-only client surface. Clients only ever see
// their own cases and the appointments and tasks under them; nothing here
// mutates anything.
package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryanpmx/caf-api/internal/handler"
	"github.com/bryanpmx/caf-api/internal/middleware"
	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/service/appointments"
	"github.com/bryanpmx/caf-api/internal/service/cases"
	"github.com/bryanpmx/caf-api/internal/service/tasks"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

type Handler struct {
	cases        *cases.Service
	appointments *appointments.Service
	tasks        *tasks.Service
}

func NewHandler(cases *cases.Service, appointments *appointments.Service, tasks *tasks.Service) *Handler {
	return &Handler{cases: cases, appointments: appointments, tasks: tasks}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/portal")
	{
		group.GET("/cases", h.ListCases)
		group.GET("/appointments", h.ListAppointments)
		group.GET("/tasks", h.ListTasks)
	}
}

func (h *Handler) ListCases(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var filters model.CaseFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	list, err := h.cases.ListOwn(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var filters model.AppointmentFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	list, err := h.appointments.ListOwn(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) ListTasks(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var filters model.TaskFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	list, err := h.tasks.ListOwn(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
