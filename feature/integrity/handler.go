package integrity

import (
	"errors"

	"spring-change/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/bucket", h.HandleBucketCheck)
	group.Get("/reports", h.HandleReportsCheck)
	group.Get("/database", h.HandleDatabaseCheck)
}

// HandleIntegrityCheck runs every check without fixing anything.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	report := make(map[string]interface{})

	if r, err := h.service.CheckBucket(ctx, false); err != nil {
		report["bucket"] = statusOf(err)
	} else {
		report["bucket"] = r
	}

	if r, err := h.service.CheckReports(ctx, false); err != nil {
		report["reports"] = statusOf(err)
	} else {
		report["reports"] = r
	}

	if r, err := h.service.CheckDatabase(false); err != nil {
		report["database"] = statusOf(err)
	} else {
		report["database"] = r
	}

	return c.JSON(report)
}

// HandleBucketCheck checks and optionally creates the report bucket.
// Query: fix=true.
func (h *Handler) HandleBucketCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckBucket(c.Context(), c.Query("fix") == "true")
	if err != nil {
		return h.fail(c, "Bucket check failed", err)
	}
	return c.JSON(report)
}

// HandleReportsCheck cross-references archived reports with the run history.
// Query: fix=true removes orphans and clears dangling report keys.
func (h *Handler) HandleReportsCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckReports(c.Context(), c.Query("fix") == "true")
	if err != nil {
		return h.fail(c, "Reports check failed", err)
	}
	if len(report.Missing) > 0 || len(report.Orphans) > 0 {
		logger.WithRayID(h.service.logger, c).Warn("Report archive out of sync",
			zap.Strings("missing", report.Missing),
			zap.Strings("orphans", report.Orphans),
		)
	}
	return c.JSON(report)
}

// HandleDatabaseCheck checks and optionally migrates the run history table.
// Query: fix=true.
func (h *Handler) HandleDatabaseCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckDatabase(c.Query("fix") == "true")
	if err != nil {
		return h.fail(c, "Database check failed", err)
	}
	return c.JSON(report)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	if errors.Is(err, ErrStorageDisabled) || errors.Is(err, ErrDatabaseDisabled) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}
	logger.WithRayID(h.service.logger, c).Error(msg, zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func statusOf(err error) map[string]interface{} {
	if errors.Is(err, ErrStorageDisabled) || errors.Is(err, ErrDatabaseDisabled) {
		return map[string]interface{}{"status": "skipped", "reason": err.Error()}
	}
	return map[string]interface{}{"status": "error", "error": err.Error()}
}
