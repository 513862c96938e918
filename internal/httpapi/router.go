// Package httpapi exposes the contact relay over HTTP using gin.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/shineum/contact-relay/internal/auth"
	"github.com/shineum/contact-relay/internal/email"
)

// EmailPath is the single endpoint accepting contact submissions.
const EmailPath = "/api/email"

// Sender delivers a validated submission.
type Sender interface {
	Send(ctx context.Context, sub *email.Submission) error
}

// Deps holds everything the router needs.
type Deps struct {
	Guard  *auth.Guard
	Sender Sender
	// MaxBodyBytes caps the request body. Zero or less disables the cap.
	MaxBodyBytes int64
	// AllowedOrigins enables CORS for the listed origins. "*" allows any
	// origin. Empty disables CORS handling entirely.
	AllowedOrigins []string
}

// NewRouter builds the gin engine. Middleware runs in this order:
// recovery, request logging, CORS, body limit, then authorization.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	}

	api := &ContactAPI{Sender: deps.Sender}
	router.POST(EmailPath,
		limitBody(deps.MaxBodyBytes),
		requireToken(deps.Guard),
		api.HandleSend,
	)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Authorization", "Content-Type"}
	cfg.MaxAge = 12 * time.Hour
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestLogger logs one line per request through slog.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("request completed", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("request completed", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requireToken rejects requests whose Authorization header does not carry
// the shared secret. The presented token is never logged.
func requireToken(guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := guard.Authorize(c.GetHeader("Authorization")); err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.Message(err)})
			return
		}
		c.Next()
	}
}
