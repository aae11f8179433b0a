package web

import (
	"errors"
	"net/http"

	"dreamsite/internal/apperr"

	"github.com/gin-gonic/gin"
)

// statusOf maps component errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case apperr.IsValidation(err), errors.Is(err, apperr.ErrNotConfirmed):
		return http.StatusBadRequest
	case apperr.IsAuth(err), errors.Is(err, apperr.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrSubmissionInFlight),
		errors.Is(err, apperr.ErrLoginInFlight),
		errors.Is(err, apperr.ErrDeleteInFlight),
		errors.Is(err, apperr.ErrAlreadyAuthenticated),
		errors.Is(err, apperr.ErrClosed):
		return http.StatusConflict
	case apperr.IsRemote(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"err", "view"}. msg overrides the error text when set.
func fail(c *gin.Context, err error, msg string, view any) {
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(statusOf(err), gin.H{"err": msg, "view": view})
}
