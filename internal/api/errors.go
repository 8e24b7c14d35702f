package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rpggio/issuesuite/internal/domain/activity"
	"github.com/rpggio/issuesuite/internal/domain/project"
	"github.com/rpggio/issuesuite/internal/domain/ticket"
	"github.com/rpggio/issuesuite/internal/domain/user"
	"github.com/rpggio/issuesuite/internal/domain/video"
	"github.com/rpggio/issuesuite/internal/repository"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, ticket.ErrTicketNotFound),
		errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ticket.ErrConflict),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, project.ErrProjectExists),
		errors.Is(err, project.ErrProjectHasTickets),
		errors.Is(err, ticket.ErrInvalidInput),
		errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, user.ErrUserExists),
		errors.Is(err, video.ErrInvalidInput),
		errors.Is(err, video.ErrThumbnailMismatch),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	h.respondError(c, statusFor(err), err)
}

// failTicketWrite reports a ticket create or replace failure. A missing
// project is a problem with the submitted payload, not the URL.
func (h *Handlers) failTicketWrite(c *gin.Context, err error) {
	if errors.Is(err, project.ErrProjectNotFound) {
		h.respondError(c, http.StatusBadRequest, err)
		return
	}
	h.fail(c, err)
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (h *Handlers) respondError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", c.Request.Method, "route", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
