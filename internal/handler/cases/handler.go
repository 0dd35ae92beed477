package cases

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bryanpmx/caf-api/internal/handler"
	"github.com/bryanpmx/caf-api/internal/lifecycle"
	"github.com/bryanpmx/caf-api/internal/middleware"
	"github.com/bryanpmx/caf-api/internal/model"
	"github.com/bryanpmx/caf-api/internal/registry"
	"github.com/bryanpmx/caf-api/internal/service/cases"
	"github.com/bryanpmx/caf-api/pkg/apperror"
)

type Handler struct {
	service     *cases.Service
	lifecycle   *lifecycle.Service
	assignments *registry.Registry
}

func NewHandler(service *cases.Service, lifecycle *lifecycle.Service, assignments *registry.Registry) *Handler {
	return &Handler{service: service, lifecycle: lifecycle, assignments: assignments}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/cases")
	{
		group.POST("", h.CreateCase)
		group.GET("", h.ListCases)
		group.GET("/archived", h.ListArchived)
		group.GET("/:id", h.GetCase)
		group.PATCH("/:id", h.UpdateCase)
		group.DELETE("/:id", h.DeleteCase)
		group.PATCH("/:id/stage", h.UpdateStage)
		group.POST("/:id/complete", h.CompleteCase)
		group.POST("/:id/archive", h.ArchiveCase)
		group.POST("/:id/assignments", h.AssignStaff)
		group.GET("/:id/assignments", h.GetAssignments)
	}
}

func (h *Handler) CreateCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	var req model.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.CreateCase(c.Request.Context(), id, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	found, err := h.service.GetCase(c.Request.Context(), id, caseID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) UpdateCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	var req model.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdateCase(c.Request.Context(), id, caseID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
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

	list, err := h.service.ListCases(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

func (h *Handler) ListArchived(c *gin.Context) {
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

	list, err := h.service.ListArchived(c.Request.Context(), id, &filters)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

type updateStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

func (h *Handler) UpdateStage(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.lifecycle.UpdateStage(c.Request.Context(), caseID, req.Stage, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) CompleteCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	completed, err := h.lifecycle.CompleteCase(c.Request.Context(), caseID, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(completed))
}

type deleteCaseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) DeleteCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))

	var req deleteCaseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	if err := h.lifecycle.DeleteCase(c.Request.Context(), caseID, id, force, req.Reason); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ArchiveCase(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	archived, err := h.lifecycle.ArchiveCase(c.Request.Context(), caseID, id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(archived))
}

type assignStaffRequest struct {
	StaffID uuid.UUID `json:"staff_id" binding:"required"`
	Primary bool      `json:"primary"`
}

func (h *Handler) AssignStaff(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	var req assignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.lifecycle.AssignStaff(c.Request.Context(), caseID, req.StaffID, req.Primary, id); err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type assignmentsResponse struct {
	AssignedStaffIDs []uuid.UUID `json:"assigned_staff_ids"`
	IsAssigned       bool        `json:"is_assigned"`
	IsPrimary        bool        `json:"is_primary"`
}

// GetAssignments returns the case's assigned-staff set plus the caller's own
// relationship to the case, for UI permission hints.
func (h *Handler) GetAssignments(c *gin.Context) {
	id, ok := middleware.IdentityFromContext(c)
	if !ok {
		handler.Error(c, apperror.Unauthenticated("not authenticated"))
		return
	}

	caseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid case ID"))
		return
	}

	// Scoping first, so assignments never leak for invisible cases.
	if _, err := h.service.GetCase(c.Request.Context(), id, caseID); err != nil {
		handler.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	staffIDs, err := h.assignments.AssignedStaffIDs(ctx, caseID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	isAssigned, err := h.assignments.IsAssigned(ctx, id.UserID, caseID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	isPrimary, err := h.assignments.IsPrimary(ctx, id.UserID, caseID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(assignmentsResponse{
		AssignedStaffIDs: staffIDs,
		IsAssigned:       isAssigned,
		IsPrimary:        isPrimary,
	}))
}
