package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"class_newsletter_writer/apperr"
	"class_newsletter_writer/profile"
	"class_newsletter_writer/publisher"
	"class_newsletter_writer/workbook"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respond(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func respondBadRequest(c *gin.Context, err error) {
	respond(c, http.StatusBadRequest, "invalid_request", err)
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	respond(c, status, code, err)
}

func classify(err error) (int, string) {
	var (
		validation *apperr.ValidationError
		transport  *apperr.TransportError
		blocked    *apperr.SafetyBlockedError
		write      *publisher.WriteError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, apperr.ErrMissingCredential):
		return http.StatusPreconditionFailed, "missing_credential"
	case errors.As(err, &blocked):
		return http.StatusUnprocessableEntity, "safety_blocked"
	case errors.As(err, &transport):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, apperr.ErrEmptyGeneration):
		return http.StatusBadGateway, "empty_generation"
	case errors.Is(err, apperr.ErrAnalysisFailed):
		return http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, profile.ErrIncompleteProfile):
		return http.StatusUnprocessableEntity, "incomplete_profile"
	case errors.Is(err, workbook.ErrSheetNotFound):
		return http.StatusNotFound, "sheet_not_found"
	case errors.Is(err, workbook.ErrNoWritableSheet):
		return http.StatusConflict, "no_writable_sheet"
	case errors.As(err, &write):
		return http.StatusInternalServerError, "write_failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
