package tasks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/handler"
	"github.com/bryanpmx/caf-api/internal/middleware"
	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/service/tasks"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

type Handler struct {
	service *tasks.Service
}

func NewHandler(service *tasks.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/tasks")
	{
		group.POST("", h.CreateTask)
		group.GET("", h.ListTasks)
		group.GET("/:id", h.GetTask)
		group.PATCH("/:id", h.UpdateTask)
		group.DELETE("/:id", h.DeleteTask)
	}
}

func (h *Handler) CreateTask(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var req model.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.CreateTask(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	found, err := h.service.GetTask(c.Request.Context(), id, taskID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	var req model.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdateTask(c.Request.Context(), id, taskID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid task ID"))
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), id, taskID); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
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

	list, err := h.service.ListTasks(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
