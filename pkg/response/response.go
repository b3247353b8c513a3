package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/safe"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeDuplicateResource = "DUPLICATE_RESOURCE"
	ErrCodeWrongState        = "WRONG_STATE"
	ErrCodeDeadline          = "DEADLINE"
	ErrCodeIndexConflict     = "INDEX_CONFLICT"
	ErrCodeNotAWinner        = "NOT_A_WINNER"
	ErrCodeOverflow          = "ARITHMETIC_OVERFLOW"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// Handle processes the error and returns appropriate response
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, "Resource already exists")
	default:
		handleError(c, err)
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	fail(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	fail(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	fail(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	fail(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}

// handleError maps domain failure kinds to their HTTP representation. Every
// kind is surfaced to the caller; nothing is retried or swallowed here.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case errors.Is(err, types.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, types.ErrWrongState):
		fail(c, http.StatusConflict, ErrCodeWrongState, err.Error())
	case errors.Is(err, types.ErrIndexConflict):
		fail(c, http.StatusConflict, ErrCodeIndexConflict, err.Error())
	case errors.Is(err, types.ErrDeadline):
		fail(c, http.StatusUnprocessableEntity, ErrCodeDeadline, err.Error())
	case errors.Is(err, types.ErrNotAWinner):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNotAWinner, err.Error())
	case errors.Is(err, types.ErrInsufficientFunds):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInsufficientFunds, err.Error())
	case errors.Is(err, safe.ErrOverflow), errors.Is(err, safe.ErrDivideByZero):
		fail(c, http.StatusUnprocessableEntity, ErrCodeOverflow, err.Error())
	default:
		InternalError(c, "An unexpected error occurred")
	}
}
