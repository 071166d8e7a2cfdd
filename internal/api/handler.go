package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"leadpdf/internal/constants"
	"leadpdf/internal/dispatch"
	"leadpdf/internal/logger"
	"leadpdf/internal/recordsink"
	"leadpdf/internal/requestlog"
	"leadpdf/internal/submission"
	apperrors "leadpdf/pkg/errors"
	"leadpdf/pkg/health"
	"leadpdf/pkg/metrics"
)

var errInvalidBody = apperrors.ErrValidation.WithMessage("invalid request body")

type Dependencies struct {
	Guard     DedupGuard
	Log       RequestLog
	Sink      RecordSink
	Mailer    Mailer
	Health    *health.CheckerRegistry
	AssetsDir string
	Logger    logger.Logger
	Now       func() time.Time
}

type Handler struct {
	guard     DedupGuard
	log       RequestLog
	sink      RecordSink
	mailer    Mailer
	health    *health.CheckerRegistry
	assetsDir string
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(deps Dependencies) *Handler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	registry := deps.Health
	if registry == nil {
		registry = health.NewCheckerRegistry()
	}
	assetsDir := deps.AssetsDir
	if assetsDir == "" {
		assetsDir = constants.DefaultAssetsDir
	}

	return &Handler{
		guard:     deps.Guard,
		log:       deps.Log,
		sink:      deps.Sink,
		mailer:    deps.Mailer,
		health:    registry,
		assetsDir: assetsDir,
		logger:    deps.Logger,
		now:       now,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter, sendMiddleware ...gin.HandlerFunc) {
	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", h.Health)
		apiGroup.GET("/ready", h.Ready)
		apiGroup.POST("/send-pdf", append(sendMiddleware, h.SendPDF)...)
	}

	router.GET("/assets/:file", h.Asset)
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
}

// SendPDF runs validate, dedupe, document check, log, mirror and dispatch
// in that order. Only log and mirror failures are tolerated. The dedupe key
// is given back only when the document or provider was never usable.
func (h *Handler) SendPDF(c *gin.Context) {
	ctx := c.Request.Context()
	start := time.Now()

	var input submission.Input
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		metrics.ObserveSubmission("invalid", time.Since(start))
		c.JSON(http.StatusBadRequest, apperrors.ToErrorResponse(errInvalidBody))
		return
	}

	req, err := submission.Validate(input)
	if err != nil {
		metrics.ObserveSubmission("invalid", time.Since(start))
		c.JSON(apperrors.ToHTTPStatus(err), apperrors.ToErrorResponse(err))
		return
	}

	admission, suppressed := h.guard.ShouldSuppress(ctx, req.Email)
	if suppressed {
		h.logger.InfowCtx(ctx, "Suppressed repeat submission", "email", req.Email)
		metrics.ObserveSubmission("suppressed", time.Since(start))
		c.JSON(http.StatusOK, MessageResponse{OK: true, Message: constants.MessageAlreadySent})
		return
	}

	if err := h.mailer.CheckDocument(); err != nil {
		h.guard.Release(ctx, admission)
		metrics.ObserveSubmission("document_missing", time.Since(start))
		h.HandleError(c, err)
		return
	}

	now := h.now()

	if err := h.log.Append(ctx, requestlog.Record{
		Timestamp: now,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	}); err != nil {
		h.logger.ErrorwCtx(ctx, "Failed to append request log", "error", err)
	}

	result := h.sink.Save(ctx, recordsink.Record{
		Timestamp: now,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	switch {
	case result.Skipped:
		h.logger.WarnwCtx(ctx, "Record sink not configured, skipping mirror")
	case result.Err != nil:
		h.logger.ErrorwCtx(ctx, "Failed to mirror request to record sink", "error", result.Err)
	}

	outcome, err := h.mailer.Send(ctx, req.Email, req.Name)
	if err != nil {
		if nothingSent(err) {
			h.guard.Release(ctx, admission)
		}
		metrics.ObserveSubmission(submissionFailure(err), time.Since(start))
		h.HandleError(c, err)
		return
	}

	h.logger.InfowCtx(ctx, "Document sent",
		"email", req.Email,
		"provider", outcome.Provider,
		"status_code", outcome.StatusCode,
		"message_id", outcome.MessageID,
	)
	metrics.ObserveSubmission("sent", time.Since(start))
	c.JSON(http.StatusOK, MessageResponse{OK: true, Message: constants.MessageEmailSent})
}

// nothingSent reports failures that happen before any provider call. A
// provider error may still have delivered the message, so it keeps the key.
func nothingSent(err error) bool {
	return errors.Is(err, dispatch.ErrDocumentUnavailable) || errors.Is(err, dispatch.ErrNotConfigured)
}

func submissionFailure(err error) string {
	switch {
	case apperrors.IsConfiguration(err):
		return "not_configured"
	case apperrors.IsProvider(err):
		return "send_failed"
	default:
		return "error"
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		OK: true,
		TS: h.now().UTC().Format(constants.RecordTimestampFormat),
	})
}

func (h *Handler) Ready(c *gin.Context) {
	report := h.health.Check(c.Request.Context())
	statusCode := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, report)
}

// Asset serves a single file from the assets directory. Anything that is not
// a plain file name directly inside it is reported as not found.
func (h *Handler) Asset(c *gin.Context) {
	name := c.Param("file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		c.JSON(http.StatusNotFound, apperrors.ToErrorResponse(apperrors.ErrNotFound))
		return
	}

	path := filepath.Join(h.assetsDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		c.JSON(http.StatusNotFound, apperrors.ToErrorResponse(apperrors.ErrNotFound))
		return
	}

	c.File(path)
}
