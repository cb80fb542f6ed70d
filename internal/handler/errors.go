package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/apperr"
)

// ErrorResponse is the body of every non-tool error
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// StatusFor maps an error code to its HTTP status
func StatusFor(err error) int {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnknownTool,
		apperr.CodeInvalidArgument,
		apperr.CodeInvalidMetric,
		apperr.CodeInvalidTimeRange,
		apperr.CodeUnrecognizedMetric:
		return http.StatusBadRequest
	case apperr.CodePrivacyViolation:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func validationError(c *gin.Context, message string, err error) {
	details := err.Error()
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: &details,
	})
}
