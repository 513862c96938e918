package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shineum/contact-relay/internal/email"
	"github.com/shineum/contact-relay/internal/relay"
)

// ContactAPI handles contact submissions.
type ContactAPI struct {
	Sender Sender
}

// HandleSend decodes and validates the submission, relays it, and maps the
// outcome to a status code.
func (a *ContactAPI) HandleSend(c *gin.Context) {
	var sub email.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		a.badRequest(c, decodeError(err))
		return
	}
	if err := sub.Validate(); err != nil {
		var verr *email.ValidationError
		if errors.As(err, &verr) {
			a.badRequest(c, verr)
			return
		}
		a.badRequest(c, email.NewDecodeError(err))
		return
	}

	err := a.Sender.Send(c.Request.Context(), &sub)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
		return
	}
	_ = c.Error(err)

	var cfgErr *relay.ConfigError
	var tErr *relay.TransportError
	switch {
	case errors.As(err, &cfgErr):
		slog.Error("relay is not configured", "missing", cfgErr.Field)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server misconfigured"})
	case errors.As(err, &tErr):
		slog.Error("delivery failed", "provider", tErr.Provider, "error", tErr.Err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed"})
	default:
		slog.Error("unexpected relay error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (a *ContactAPI) badRequest(c *gin.Context, verr *email.ValidationError) {
	_ = c.Error(verr)
	c.JSON(http.StatusBadRequest, gin.H{"error": "Bad Request", "details": verr.Fields})
}

// decodeError maps a binding failure to a ValidationError, reporting an
// oversized body explicitly.
func decodeError(err error) *email.ValidationError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &email.ValidationError{Fields: []email.FieldError{{Field: "body", Message: "request body too large"}}}
	}
	return email.NewDecodeError(err)
}
