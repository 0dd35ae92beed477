package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryanpmx/caf-api/pkg/apperror"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// ConflictResponse carries the counts blocking a non-forced deletion so the
// caller can render a confirmation prompt.
type ConflictResponse struct {
	Status               string `json:"status"`
	Message              string `json:"message"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	ActiveAppointments   int    `json:"active_appointments"`
	PendingTasks         int    `json:"pending_tasks"`
}

// Error writes err as the appropriate HTTP response. Internal errors never
// leak their cause to the client.
func Error(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
		return
	}

	switch appErr.Code {
	case apperror.CodeUnauthenticated:
		c.JSON(http.StatusUnauthorized, NewErrorResponse(appErr.Message))
	case apperror.CodeForbidden:
		c.JSON(http.StatusForbidden, NewErrorResponse(appErr.Message))
	case apperror.CodeNotFound:
		c.JSON(http.StatusNotFound, NewErrorResponse(appErr.Message))
	case apperror.CodeValidation:
		c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(appErr.Message))
	case apperror.CodeConflict:
		c.JSON(http.StatusConflict, ConflictResponse{
			Status:               "error",
			Message:              appErr.Message,
			RequiresConfirmation: true,
			ActiveAppointments:   appErr.ActiveAppointments,
			PendingTasks:         appErr.PendingTasks,
		})
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
	}
}
