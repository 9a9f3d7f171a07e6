// internal/server/server.go
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/audit"
	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/provider"
)

// Client-facing error messages.
const (
	MissingURLMessage  = "githubUrl is required"
	InvalidURLMessage  = "Could not parse owner/repo from URL."
	NoMatchMessage     = "No Anchor .rs files found in programs/ or src/, or repo tree could not be fetched."
	InvalidBodyMessage = "Request body must be a JSON object."
)

// Auditor runs one audit.
type Auditor interface {
	Run(ctx context.Context, req audit.Request, observe audit.StageObserver) (audit.Result, error)
}

// Options configures the router.
type Options struct {
	// CredentialErrorStatus is returned when a custom provider is selected
	// without an API key. 0 means 500.
	CredentialErrorStatus int
	// ServiceName enables otelgin spans when non-empty.
	ServiceName string
}

type handler struct {
	auditor Auditor
	logger  *zap.Logger
	opts    Options
}

// NewRouter mounts the audit API onto a new gin engine.
func NewRouter(auditor Auditor, logger *zap.Logger, opts Options) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CredentialErrorStatus == 0 {
		opts.CredentialErrorStatus = http.StatusInternalServerError
	}

	router := gin.New()
	// otelgin first so the request logger sees the span
	if opts.ServiceName != "" {
		router.Use(otelgin.Middleware(opts.ServiceName))
	}
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	h := &handler{auditor: auditor, logger: logger, opts: opts}
	router.POST("/api/audit", h.Audit)
	router.GET("/healthz", h.Health)

	return router
}

type auditRequest struct {
	GithubURL    string `json:"githubUrl"`
	Provider     string `json:"provider"`
	CustomAPIKey string `json:"customApiKey"`
}

// Audit handles POST /api/audit.
func (h *handler) Audit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": InvalidBodyMessage})
		return
	}
	if req.GithubURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": MissingURLMessage})
		return
	}
	if req.Provider == "" {
		req.Provider = string(provider.Default)
	}

	result, err := h.auditor.Run(c.Request.Context(), audit.Request{
		URL:        req.GithubURL,
		Provider:   provider.ParseID(req.Provider),
		Credential: req.CustomAPIKey,
	}, nil)
	if err != nil {
		status, message := h.errorResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": result.Report.Text})
}

// errorResponse maps a pipeline error to its HTTP status and message.
func (h *handler) errorResponse(err error) (int, string) {
	var (
		resolveErr    *model.ResolutionError
		noMatchErr    *model.NoMatchError
		credentialErr *model.CredentialError
	)
	switch {
	case errors.As(err, &resolveErr):
		return http.StatusBadRequest, InvalidURLMessage
	case errors.As(err, &noMatchErr):
		return http.StatusBadRequest, NoMatchMessage
	case errors.As(err, &credentialErr):
		return h.opts.CredentialErrorStatus, credentialErr.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// Health handles GET /healthz.
func (h *handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}
