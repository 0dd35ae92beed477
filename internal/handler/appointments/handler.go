package appointments

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/handler"
	"github.com/bryanpmx/caf-api/internal/middleware"
	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/service/appointments"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

type Handler struct {
	service *appointments.Service
}

func NewHandler(service *appointments.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/appointments")
	{
		group.POST("", h.CreateAppointment)
		group.GET("", h.ListAppointments)
		group.GET("/:id", h.GetAppointment)
		group.PATCH("/:id", h.UpdateAppointment)
		group.POST("/:id/cancel", h.CancelAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.CreateAppointment(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	found, err := h.service.GetAppointment(c.Request.Context(), id, appointmentID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdateAppointment(c.Request.Context(), id, appointmentID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	cancelled, err := h.service.CancelAppointment(c.Request.Context(), id, appointmentID, req.Reason)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(cancelled))
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

	list, err := h.service.ListAppointments(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
