// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// MessageResponse answers 200 with the message stored under key and optional data.
func MessageResponse(c *gin.Context, key string, data interface{}) {
	respondMessage(c, http.StatusOK, key, data)
}

func CreatedMessageResponse(c *gin.Context, key string, data interface{}) {
	respondMessage(c, http.StatusCreated, key, data)
}

func respondMessage(c *gin.Context, status int, key string, data interface{}) {
	c.JSON(status, APIResponse{
		Success: true,
		Message: i18n.T(GetLangFromContext(c), key),
		Data:    data,
	})
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    result.Data,
		Meta: gin.H{
			"pagination": gin.H{
				"page":        result.Page,
				"limit":       result.Limit,
				"total":       result.Total,
				"total_pages": result.TotalPages,
			},
		},
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Error: &APIError{Code: code, Message: message, Details: details},
	})
}

// kindResponse writes an error envelope whose status and code come from kind.
func kindResponse(c *gin.Context, kind apperr.Kind, message string, details interface{}) {
	ErrorResponse(c, StatusForKind(kind), string(kind), message, details)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyAuthRequired)
	}
	kindResponse(c, apperr.KindUnauthenticated, message, nil)
}

func ValidationErrorResponse(c *gin.Context, errs []ValidationError) {
	message := i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "input")
	kindResponse(c, apperr.KindValidation, message, errs)
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthenticated, apperr.KindUserNotFound:
		return http.StatusUnauthorized
	case apperr.KindForbidden, apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindInvalidTransition, apperr.KindInsufficientStock, apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ServiceErrorResponse writes err using its apperr kind. Internal errors are
// logged and their detail is not sent to the client.
func ServiceErrorResponse(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	lang := GetLangFromContext(c)

	if kind == apperr.KindInternal {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		kindResponse(c, kind, i18n.T(lang, i18n.KeyInternalError), nil)
		return
	}

	message := err.Error()
	var tagged *apperr.Error
	if errors.As(err, &tagged) && tagged.Message != "" {
		message = i18n.T(lang, tagged.Message)
	}
	kindResponse(c, kind, message, nil)
}
